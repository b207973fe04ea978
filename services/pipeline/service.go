// Package pipeline strings the scraper, translator, renderer and
// telegram client together into full delivery runs. It keeps track of
// which quizzes already went out, archives what it delivered and mails
// a summary after runs that did any work.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"currentadda-pipeline/lib/scrapers/pendulum"
	"currentadda-pipeline/lib/scrapers/pendulum/quiz"
	"currentadda-pipeline/lib/timezone"
	"currentadda-pipeline/services/archive"
	"currentadda-pipeline/services/report"
	"currentadda-pipeline/services/statestore"
	"currentadda-pipeline/services/telegram"
	"currentadda-pipeline/services/translate"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Lister enumerates the quiz urls currently published on the site.
type Lister interface {
	QuizURLs(ctx context.Context) ([]string, error)
}

// Renderer produces the html and pdf artifacts for a quiz.
type Renderer interface {
	RenderPdf(ctx context.Context, source quiz.Quiz, date, stamp string) (string, error)
	HtmlPath(stamp string) string
}

// Sender delivers artifacts and messages to the channel.
type Sender interface {
	SendDocument(ctx context.Context, path, caption string) error
	SendQuiz(ctx context.Context, source quiz.Quiz, date string) error
}

type Service struct {
	lister     Lister
	revealer   pendulum.Revealer
	translator *translate.Service
	renderer   Renderer
	sender     Sender
	tracker    *statestore.Tracker
	archive    *archive.Store
	reporter   *report.Reporter
	sendText   bool
	workers    int
}

type Options struct {
	Lister     Lister
	Revealer   pendulum.Revealer
	Translator *translate.Service
	Renderer   Renderer
	Sender     Sender
	// Tracker remembers which quizzes already reached the channel so
	// reruns skip them.
	Tracker *statestore.Tracker
	// Archive records delivered quizzes so their documents can be
	// regenerated later. Nil disables archiving.
	Archive *archive.Store
	// Reporter mails a summary after runs that processed or failed at
	// least one quiz. Nil or an unconfigured reporter stays silent.
	Reporter *report.Reporter
	// SendText also posts the quiz as formatted channel messages once
	// the pdf is delivered.
	SendText bool
	// Workers bounds the concurrent scrapes in bulk mode. Defaults to 5.
	Workers int
}

func NewService(opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Service{
		lister:     opts.Lister,
		revealer:   opts.Revealer,
		translator: opts.Translator,
		renderer:   opts.Renderer,
		sender:     opts.Sender,
		tracker:    opts.Tracker,
		archive:    opts.Archive,
		reporter:   opts.Reporter,
		sendText:   opts.SendText,
		workers:    opts.Workers,
	}
}

// Summary describes what a run did.
type Summary struct {
	RunId     string
	StartedAt time.Time
	Duration  time.Duration
	Found     int
	Skipped   int
	Processed int
	Failed    int
	Failures  []report.Failure
}

// Run executes one full delivery pass. Every listed quiz that has not
// been delivered before goes through reveal, parse, translate, render
// and telegram delivery. A quiz that fails along the way is recorded
// and the run moves on, so one broken page never blocks the rest.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	runId, err := random.String(8)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{RunId: runId, StartedAt: timezone.Now()}
	span.SetAttributes(attribute.String("run.id", runId))

	slog.InfoContext(ctx, "starting quiz run",
		"run_id", runId,
		"already_delivered", s.tracker.Count(),
	)

	urls, err := s.lister.QuizURLs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the quiz listing")
		return summary, fmt.Errorf("fetch quiz listing: %w", err)
	}
	summary.Found = len(urls)

	for _, quizUrl := range urls {
		if s.tracker.IsProcessed(quizUrl) {
			summary.Skipped++
			continue
		}

		err := s.processQuiz(ctx, quizUrl)
		if err != nil {
			slog.ErrorContext(ctx, "failed to process quiz", "url", quizUrl, "err", err)
			summary.Failed++
			summary.Failures = append(summary.Failures, report.Failure{
				Url: quizUrl,
				Err: err.Error(),
			})
			continue
		}
		summary.Processed++
	}

	summary.Duration = time.Since(summary.StartedAt)
	slog.InfoContext(ctx, "quiz run finished",
		"run_id", runId,
		"found", summary.Found,
		"skipped", summary.Skipped,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"took", summary.Duration.Round(time.Second),
	)
	if summary.Failed > 0 {
		span.SetStatus(codes.Error, "some quizzes failed")
	}

	s.sendReport(ctx, summary)
	return summary, nil
}

// processQuiz pushes a single quiz through the whole pipeline. It is
// only marked processed once the pdf reached the channel, so a failure
// anywhere leaves the quiz eligible for the next run.
func (s *Service) processQuiz(ctx context.Context, quizUrl string) error {
	ctx, span := tracer.Start(ctx, "processQuiz")
	defer span.End()
	span.SetAttributes(attribute.String("quiz.url", quizUrl))

	fail := func(msg string, err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return fmt.Errorf("%s: %w", msg, err)
	}

	date, err := pendulum.ExtractQuizDate(quizUrl)
	if err != nil {
		date = todayDate()
		slog.WarnContext(ctx, "quiz url has no date, assuming today",
			"url", quizUrl, "date", date.English())
	}
	slog.InfoContext(ctx, "processing quiz", "url", quizUrl, "date", date.English())

	html, err := s.revealer.Reveal(ctx, quizUrl)
	if err != nil {
		return fail("reveal answers", err)
	}
	english, err := quiz.Parse(ctx, html, quizUrl)
	if err != nil {
		return fail("parse quiz", err)
	}
	translated, err := s.translator.TranslateQuiz(ctx, english)
	if err != nil {
		return fail("translate quiz", err)
	}

	stamp := date.Filename()
	pdfPath, err := s.renderer.RenderPdf(ctx, translated, date.Gujarati(), stamp)
	if err != nil {
		return fail("render pdf", err)
	}

	caption := telegram.QuizCaption(date.English(), len(translated.Questions))
	err = s.sender.SendDocument(ctx, pdfPath, caption)
	if err != nil {
		return fail("send pdf", err)
	}

	if s.sendText {
		err := s.sender.SendQuiz(ctx, translated, date.Gujarati())
		if err != nil {
			// The pdf already reached the channel, a lost text copy is
			// not worth failing the quiz over.
			slog.WarnContext(ctx, "failed to send the text version", "url", quizUrl, "err", err)
		}
	}

	s.archiveQuiz(ctx, quizUrl, date, english, translated, pdfPath, stamp)

	err = s.tracker.MarkProcessed(ctx, quizUrl)
	if err != nil {
		slog.WarnContext(ctx, "failed to record the quiz as processed", "url", quizUrl, "err", err)
	}

	slog.InfoContext(ctx, "quiz delivered", "url", quizUrl, "questions", len(translated.Questions))
	return nil
}

func (s *Service) archiveQuiz(
	ctx context.Context,
	quizUrl string,
	date pendulum.QuizDate,
	english, translated quiz.Quiz,
	pdfPath, stamp string,
) {
	if s.archive == nil {
		return
	}
	err := s.archive.SaveQuiz(ctx, archive.Entry{
		Url:        quizUrl,
		Date:       date.English(),
		ScrapedAt:  english.ExtractedAt,
		HtmlPath:   s.renderer.HtmlPath(stamp),
		PdfPath:    pdfPath,
		English:    english,
		Translated: translated,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to archive the quiz", "url", quizUrl, "err", err)
	}
}

// sendReport mails the summary when the run actually did anything.
// Runs where everything was already delivered stay silent.
func (s *Service) sendReport(ctx context.Context, summary Summary) {
	if s.reporter == nil || !s.reporter.Enabled() {
		return
	}
	if summary.Processed == 0 && summary.Failed == 0 {
		return
	}
	err := s.reporter.Send(ctx, report.RunReport{
		RunId:     summary.RunId,
		StartedAt: summary.StartedAt,
		Duration:  summary.Duration,
		Found:     summary.Found,
		Skipped:   summary.Skipped,
		Processed: summary.Processed,
		Failed:    summary.Failed,
		Failures:  summary.Failures,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to email the run report", "err", err)
	}
}

// todayDate stands in when a quiz url carries no recognizable date.
func todayDate() pendulum.QuizDate {
	now := timezone.Now()
	return pendulum.QuizDate{
		Time:   now,
		Day:    now.Day(),
		EndDay: now.Day(),
		Month:  now.Month(),
		Year:   now.Year(),
	}
}
