package translate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"
	"currentadda-pipeline/lib/timezone"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	calls    int
	failures int
	empty    bool
}

func (b *fakeBackend) Translate(ctx context.Context, text string) (string, error) {
	b.calls++
	if b.calls <= b.failures {
		return "", fmt.Errorf("rate limited")
	}
	if b.empty {
		return "", nil
	}
	return "gu:" + text, nil
}

func newTestService(backend Backend) *Service {
	return NewService(Options{
		Backend:  backend,
		Throttle: time.Millisecond,
		Backoff:  time.Millisecond,
	})
}

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		SourceUrl: "https://pendulumedu.com/qotd/daily-current-affairs-quiz-28-november-2025",
		Questions: []quiz.Question{
			{
				Number: 1,
				Text:   "Which organisation released the report?",
				Options: map[string]string{
					"A": "World Bank",
					"B": "IMF",
					"C": "WTO",
					"D": "UNDP",
				},
				Answer:      "B",
				Explanation: "The IMF released the report in November 2025.",
			},
		},
		ExtractedAt: timezone.Now(),
	}
}

func TestTranslateQuiz(t *testing.T) {
	source := sampleQuiz()
	translated, err := newTestService(&fakeBackend{}).TranslateQuiz(context.Background(), source)
	require.NoError(t, err)

	require.Equal(t, source.SourceUrl, translated.SourceUrl)
	require.Equal(t, source.ExtractedAt, translated.ExtractedAt)
	require.Len(t, translated.Questions, 1)

	question := translated.Questions[0]
	require.Equal(t, 1, question.Number)
	require.Equal(t, "gu:Which organisation released the report?", question.Text)
	require.Equal(t, map[string]string{
		"A": "gu:World Bank",
		"B": "gu:IMF",
		"C": "gu:WTO",
		"D": "gu:UNDP",
	}, question.Options)
	require.Equal(t, "B", question.Answer)
	require.Equal(t, "gu:The IMF released the report in November 2025.", question.Explanation)
}

func TestTranslateQuizDoesNotMutateSource(t *testing.T) {
	source := sampleQuiz()
	_, err := newTestService(&fakeBackend{}).TranslateQuiz(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, "Which organisation released the report?", source.Questions[0].Text)
}

func TestPreservedItemsSkipTranslation(t *testing.T) {
	backend := &fakeBackend{}
	source := quiz.Quiz{
		Questions: []quiz.Question{{
			Number:      1,
			Text:        "Join CurrentAdda for daily quizzes.",
			Options:     map[string]string{"A": "CurrentAdda"},
			Answer:      "A",
			Explanation: "https://t.me/currentadda",
		}},
	}

	translated, err := newTestService(backend).TranslateQuiz(context.Background(), source)
	require.NoError(t, err)

	question := translated.Questions[0]
	require.Equal(t, "gu:Join CurrentAdda for daily quizzes.", question.Text)
	require.Equal(t, "CurrentAdda", question.Options["A"])
	require.Equal(t, "https://t.me/currentadda", question.Explanation)
	require.Equal(t, 1, backend.calls)
}

func TestEmptyTextPassesThrough(t *testing.T) {
	backend := &fakeBackend{}
	source := quiz.Quiz{
		Questions: []quiz.Question{{
			Number:  1,
			Text:    "Pick one.",
			Options: map[string]string{"A": "   "},
			Answer:  "A",
		}},
	}

	translated, err := newTestService(backend).TranslateQuiz(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, "   ", translated.Questions[0].Options["A"])
	require.Equal(t, "", translated.Questions[0].Explanation)
	require.Equal(t, 1, backend.calls)
}

func TestTranslateRetries(t *testing.T) {
	backend := &fakeBackend{failures: 2}
	source := quiz.Quiz{
		Questions: []quiz.Question{{
			Number:  1,
			Text:    "Pick one.",
			Options: map[string]string{"A": "CurrentAdda"},
			Answer:  "A",
		}},
	}

	translated, err := newTestService(backend).TranslateQuiz(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, "gu:Pick one.", translated.Questions[0].Text)
	require.Equal(t, 3, backend.calls)
}

func TestTranslateRetriesExhausted(t *testing.T) {
	backend := &fakeBackend{failures: maxAttempts}
	source := quiz.Quiz{
		Questions: []quiz.Question{{
			Number:  1,
			Text:    "Pick one.",
			Options: map[string]string{"A": "CurrentAdda"},
			Answer:  "A",
		}},
	}

	_, err := newTestService(backend).TranslateQuiz(context.Background(), source)
	require.ErrorIs(t, err, RetriesExhausted)
	require.Contains(t, err.Error(), "question 1")
}

func TestEmptyResultsKeepEnglishText(t *testing.T) {
	backend := &fakeBackend{empty: true}
	source := quiz.Quiz{
		Questions: []quiz.Question{{
			Number:  1,
			Text:    "Pick one.",
			Options: map[string]string{"A": "CurrentAdda"},
			Answer:  "A",
		}},
	}

	translated, err := newTestService(backend).TranslateQuiz(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, "Pick one.", translated.Questions[0].Text)
	require.Equal(t, maxAttempts, backend.calls)
}
