package pendulum

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var SubmitControlNotFound = fmt.Errorf("Could not find the quiz submit controls.")
var AnswersNotRevealed = fmt.Errorf("Submitting the quiz did not reveal its answers.")

// markers the site swaps into the first solution header once an attempt
// exists, in the english and hindi variants it serves
var answerMarkers = []string{"Correct Answer:", "सही उत्तर:"}

// AnswersRevealed reports whether the page already shows its solutions.
// The site renders placeholder "Solution:" headers until an attempt is
// recorded, so only the marker text counts.
func AnswersRevealed(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	head := doc.Find(".solution-sec .head").First()
	if head.Length() == 0 {
		return false
	}

	text := head.Text()
	for _, marker := range answerMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// explanationsPresent reports whether any explanation block has been
// filled in. The explanations stream in after the answers do.
func explanationsPresent(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(".ans-text li").Length() > 0 || doc.Find(".ans-text p").Length() > 0
}

// A Revealer turns a quiz URL into the page's HTML with solutions
// visible, submitting the quiz first if nobody attempted it yet.
type Revealer interface {
	Reveal(ctx context.Context, quizUrl string) (string, error)
}

// FallbackRevealer tries the primary strategy and falls back on any
// error, typically a QuickRevealer backed by a BrowserRevealer.
type FallbackRevealer struct {
	Primary  Revealer
	Fallback Revealer
}

func (r FallbackRevealer) Reveal(ctx context.Context, quizUrl string) (string, error) {
	html, err := r.Primary.Reveal(ctx, quizUrl)
	if err == nil {
		return html, nil
	}

	slog.WarnContext(
		ctx, "primary reveal strategy failed, falling back",
		"url", quizUrl,
		"err", err,
	)
	return r.Fallback.Reveal(ctx, quizUrl)
}
