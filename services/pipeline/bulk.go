package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"
	"currentadda-pipeline/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var NoQuizzesForMonth = fmt.Errorf("No quizzes in the listing match that month.")

// defaultWorkers bounds the concurrent scrapes in bulk mode. The site
// tolerates a handful of parallel sessions but not a whole listing at
// once.
const defaultWorkers = 5

// BulkResult describes the combined document a bulk run produced.
type BulkResult struct {
	Quiz    quiz.Quiz
	Quizzes int
	Failed  int
	PdfPath string
}

// Bulk collects every listed quiz whose url mentions the given month,
// merges them into one continuously numbered set and renders a single
// combined document. Nothing is sent to the channel and the processed
// set is left untouched, so bulk runs can be repeated freely.
func (s *Service) Bulk(ctx context.Context, month string) (BulkResult, error) {
	ctx, span := tracer.Start(ctx, "Bulk")
	defer span.End()

	month = strings.ToLower(strings.TrimSpace(month))
	if month == "" {
		return BulkResult{}, fmt.Errorf("a month name is required")
	}
	span.SetAttributes(attribute.String("month", month))

	urls, err := s.lister.QuizURLs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the quiz listing")
		return BulkResult{}, fmt.Errorf("fetch quiz listing: %w", err)
	}

	var matched []string
	for _, quizUrl := range urls {
		if strings.Contains(strings.ToLower(quizUrl), month) {
			matched = append(matched, quizUrl)
		}
	}
	slog.InfoContext(ctx, "matched quizzes for month",
		"month", month, "matched", len(matched), "listed", len(urls))
	if len(matched) == 0 {
		return BulkResult{}, NoQuizzesForMonth
	}

	results := s.scrapeAll(ctx, matched)

	scraped := 0
	for _, result := range results {
		if result != nil {
			scraped++
		}
	}
	if scraped == 0 {
		span.SetStatus(codes.Error, "every matched quiz failed")
		return BulkResult{}, fmt.Errorf("all %d matched quizzes failed to scrape", len(matched))
	}

	merged := mergeQuizzes(matched, results)
	translated, err := s.translator.TranslateQuiz(ctx, merged)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "translation failed")
		return BulkResult{}, fmt.Errorf("translate quiz: %w", err)
	}

	now := timezone.Now()
	label := fmt.Sprintf("%s %d", cases.Title(language.English).String(month), now.Year())
	stamp := fmt.Sprintf("%d_%s", now.Year(), month)

	pdfPath, err := s.renderer.RenderPdf(ctx, translated, label, stamp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pdf rendering failed")
		return BulkResult{}, fmt.Errorf("render pdf: %w", err)
	}

	slog.InfoContext(ctx, "bulk document ready",
		"month", label,
		"quizzes", scraped,
		"failed", len(matched)-scraped,
		"questions", len(translated.Questions),
		"pdf", pdfPath,
	)
	return BulkResult{
		Quiz:    translated,
		Quizzes: scraped,
		Failed:  len(matched) - scraped,
		PdfPath: pdfPath,
	}, nil
}

// scrapeAll reveals and parses every url on a bounded pool of workers.
// The result slice mirrors the url slice and failed urls leave a nil
// slot, so merge order always follows the listing no matter which
// worker finishes first.
func (s *Service) scrapeAll(ctx context.Context, urls []string) []*quiz.Quiz {
	results := make([]*quiz.Quiz, len(urls))
	slots := make(chan struct{}, s.workers)

	wg := sync.WaitGroup{}
	for i, quizUrl := range urls {
		wg.Add(1)
		go func(i int, quizUrl string) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			html, err := s.revealer.Reveal(ctx, quizUrl)
			if err != nil {
				slog.WarnContext(ctx, "failed to reveal quiz", "url", quizUrl, "err", err)
				return
			}
			parsed, err := quiz.Parse(ctx, html, quizUrl)
			if err != nil {
				slog.WarnContext(ctx, "failed to parse quiz", "url", quizUrl, "err", err)
				return
			}
			results[i] = &parsed
		}(i, quizUrl)
	}
	wg.Wait()

	return results
}

// mergeQuizzes flattens the scraped quizzes into one continuously
// numbered set. The first surviving quiz donates the source url.
func mergeQuizzes(urls []string, results []*quiz.Quiz) quiz.Quiz {
	merged := quiz.Quiz{ExtractedAt: timezone.Now()}
	number := 1
	for i, result := range results {
		if result == nil {
			continue
		}
		if merged.SourceUrl == "" {
			merged.SourceUrl = urls[i]
		}
		for _, question := range result.Questions {
			question.Number = number
			merged.Questions = append(merged.Questions, question)
			number++
		}
	}
	return merged
}
