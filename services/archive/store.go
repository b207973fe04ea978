package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"
	"currentadda-pipeline/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

var QuizNotArchived = fmt.Errorf("No archived quiz was found for that url.")

const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	quiz_date TEXT NOT NULL,
	scraped_at INTEGER NOT NULL,
	html_path TEXT NOT NULL DEFAULT '',
	pdf_path TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	quiz_id INTEGER NOT NULL,
	number INTEGER NOT NULL,
	english TEXT NOT NULL,
	gujarati TEXT NOT NULL,
	options_english TEXT NOT NULL,
	options_gujarati TEXT NOT NULL,
	answer TEXT NOT NULL,
	explanation_english TEXT NOT NULL DEFAULT '',
	explanation_gujarati TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
);
`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(schema)
	if err != nil {
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Entry is one delivered quiz, the scraped english version and its
// translation zipped by question number.
type Entry struct {
	Url        string
	Date       string
	ScrapedAt  time.Time
	HtmlPath   string
	PdfPath    string
	English    quiz.Quiz
	Translated quiz.Quiz
}

type Summary struct {
	Url       string
	Date      string
	ScrapedAt time.Time
	Questions int
}

// SaveQuiz records an entry, replacing any previous record for the
// same url.
func (s *Store) SaveQuiz(ctx context.Context, entry Entry) error {
	ctx, span := tracer.Start(ctx, "SaveQuiz")
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save the quiz")
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM questions WHERE quiz_id IN (SELECT id FROM quizzes WHERE url = ?)`,
		entry.Url,
	)
	if err != nil {
		return fail(err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM quizzes WHERE url = ?`, entry.Url)
	if err != nil {
		return fail(err)
	}

	scrapedAt := entry.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = timezone.Now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO quizzes (url, quiz_date, scraped_at, html_path, pdf_path)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Url, entry.Date, scrapedAt.Unix(), entry.HtmlPath, entry.PdfPath,
	)
	if err != nil {
		return fail(err)
	}
	quizId, err := res.LastInsertId()
	if err != nil {
		return fail(err)
	}

	for i, english := range entry.English.Questions {
		var translated quiz.Question
		if i < len(entry.Translated.Questions) {
			translated = entry.Translated.Questions[i]
		}

		englishOptions, err := json.Marshal(english.Options)
		if err != nil {
			return fail(err)
		}
		translatedOptions, err := json.Marshal(translated.Options)
		if err != nil {
			return fail(err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (
				quiz_id, number, english, gujarati,
				options_english, options_gujarati,
				answer, explanation_english, explanation_gujarati
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			quizId, english.Number, english.Text, translated.Text,
			string(englishOptions), string(translatedOptions),
			english.Answer, english.Explanation, translated.Explanation,
		)
		if err != nil {
			return fail(err)
		}
	}

	return tx.Commit()
}

// GetQuiz loads the archived entry for a url. Returns QuizNotArchived
// when the url was never recorded.
func (s *Store) GetQuiz(ctx context.Context, quizUrl string) (Entry, error) {
	ctx, span := tracer.Start(ctx, "GetQuiz")
	defer span.End()

	var entry Entry
	var quizId int64
	var scrapedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, quiz_date, scraped_at, html_path, pdf_path
		 FROM quizzes WHERE url = ?`,
		quizUrl,
	).Scan(&quizId, &entry.Url, &entry.Date, &scrapedAt, &entry.HtmlPath, &entry.PdfPath)
	if err == sql.ErrNoRows {
		return Entry{}, QuizNotArchived
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load the quiz")
		return Entry{}, err
	}
	entry.ScrapedAt = time.Unix(scrapedAt, 0).In(timezone.Location)
	entry.English.SourceUrl = entry.Url
	entry.English.ExtractedAt = entry.ScrapedAt
	entry.Translated.SourceUrl = entry.Url
	entry.Translated.ExtractedAt = entry.ScrapedAt

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, english, gujarati, options_english, options_gujarati,
		        answer, explanation_english, explanation_gujarati
		 FROM questions WHERE quiz_id = ? ORDER BY number`,
		quizId,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load the questions")
		return Entry{}, err
	}
	defer rows.Close()

	hasTranslation := false
	for rows.Next() {
		var english, translated quiz.Question
		var englishOptions, translatedOptions string
		err := rows.Scan(
			&english.Number, &english.Text, &translated.Text,
			&englishOptions, &translatedOptions,
			&english.Answer, &english.Explanation, &translated.Explanation,
		)
		if err != nil {
			return Entry{}, err
		}
		err = json.Unmarshal([]byte(englishOptions), &english.Options)
		if err != nil {
			return Entry{}, err
		}
		err = json.Unmarshal([]byte(translatedOptions), &translated.Options)
		if err != nil {
			return Entry{}, err
		}
		translated.Number = english.Number
		translated.Answer = english.Answer
		if translated.Text != "" || len(translated.Options) > 0 {
			hasTranslation = true
		}

		entry.English.Questions = append(entry.English.Questions, english)
		entry.Translated.Questions = append(entry.Translated.Questions, translated)
	}
	// Entries archived before translation succeeded carry english only.
	if !hasTranslation {
		entry.Translated.Questions = nil
	}
	return entry, rows.Err()
}

// ListQuizzes returns all archived quizzes, newest first.
func (s *Store) ListQuizzes(ctx context.Context) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "ListQuizzes")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT q.url, q.quiz_date, q.scraped_at, COUNT(que.id)
		 FROM quizzes q
		 LEFT JOIN questions que ON que.quiz_id = q.id
		 GROUP BY q.id
		 ORDER BY q.scraped_at DESC`,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list quizzes")
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var summary Summary
		var scrapedAt int64
		err := rows.Scan(&summary.Url, &summary.Date, &scrapedAt, &summary.Questions)
		if err != nil {
			return nil, err
		}
		summary.ScrapedAt = time.Unix(scrapedAt, 0).In(timezone.Location)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
