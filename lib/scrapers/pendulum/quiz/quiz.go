package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"currentadda-pipeline/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("currentadda.lib.scrapers.pendulum.quiz")

var NoQuestionsFound = fmt.Errorf("No question sections were found in the quiz page.")
var NoEnglishQuestions = fmt.Errorf("No english questions could be parsed from the quiz page.")

// OptionLabels is the fixed label order the site presents options in.
var OptionLabels = []string{"A", "B", "C", "D"}

type Question struct {
	Number      int
	Text        string
	Options     map[string]string
	Answer      string
	Explanation string
}

type Quiz struct {
	SourceUrl   string
	Questions   []Question
	ExtractedAt time.Time
}

// Parse extracts the structured quiz out of a page whose solutions have
// been revealed. The site interleaves hindi copies of every question,
// those are dropped and the surviving english questions renumbered from
// one.
func Parse(ctx context.Context, html, sourceUrl string) (Quiz, error) {
	ctx, span := tracer.Start(ctx, "Parse")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse quiz html")
		return Quiz{}, err
	}

	sections := doc.Find("div.q-section-inner-sol")
	if sections.Length() == 0 {
		slog.WarnContext(ctx, "no solved question sections, trying the unsolved selector")
		sections = doc.Find("div.q-section-inner")
	}
	if sections.Length() == 0 {
		span.SetStatus(codes.Error, NoQuestionsFound.Error())
		return Quiz{}, NoQuestionsFound
	}

	var questions []Question
	skipped := 0
	sections.Each(func(idx int, section *goquery.Selection) {
		question, err := parseSection(section)
		if err != nil {
			slog.WarnContext(ctx, "skipping unparsable question", "index", idx+1, "err", err)
			return
		}
		if !isEnglishText(question.Text) {
			skipped++
			return
		}
		question.Number = len(questions) + 1
		questions = append(questions, question)
	})

	slog.InfoContext(ctx, "parsed quiz",
		"url", sourceUrl,
		"kept", len(questions),
		"hindi_skipped", skipped,
	)

	if len(questions) == 0 {
		span.SetStatus(codes.Error, NoEnglishQuestions.Error())
		return Quiz{}, NoEnglishQuestions
	}

	return Quiz{
		SourceUrl:   sourceUrl,
		Questions:   questions,
		ExtractedAt: timezone.Now(),
	}, nil
}
