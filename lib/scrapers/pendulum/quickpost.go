package pendulum

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const submitAnswersPath = "/quiz/quizanwers"

// QuickRevealer submits the quiz with a direct form POST, mimicking
// what the page's own javascript sends. Much faster than driving a
// browser, but the endpoint does not reliably record the attempt, so
// callers should wrap it in a FallbackRevealer.
type QuickRevealer struct {
	Client *Client
	// how long to wait between submitting and refetching the page,
	// defaults to two seconds when zero
	Settle time.Duration
}

func (r QuickRevealer) Reveal(ctx context.Context, quizUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "quick:Reveal")
	defer span.End()

	html, err := r.Client.GetQuizPage(ctx, quizUrl)
	if err != nil {
		return "", err
	}
	if AnswersRevealed(html) {
		slog.InfoContext(ctx, "quiz already submitted, answers visible", "url", quizUrl)
		return html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse quiz page html")
		return "", err
	}

	quizId := doc.Find("input#intQuizId").AttrOr("value", "")
	englishQuizId := doc.Find("input#intEnglishQuizId").AttrOr("value", "")
	if quizId == "" || englishQuizId == "" {
		span.SetStatus(codes.Error, SubmitControlNotFound.Error())
		return "", SubmitControlNotFound
	}

	form := map[string]string{
		"intQuizId":           quizId,
		"intEnglishQuizId":    englishQuizId,
		"txtCurrentURL":       quizUrl,
		"txtCurrentTime":      "0",
		"txtLoginPopupStatus": "no",
		"pauseBtnhms":         "resume",
	}

	// tick the first option of every question, the choices don't
	// matter, an attempt just has to exist for solutions to unlock
	answered := 0
	doc.Find("form#pendu_quiz input[type=radio]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		value := input.AttrOr("value", "")
		if name == "" || value == "" {
			return
		}
		if _, taken := form[name]; taken {
			return
		}
		form[name] = value
		answered++
	})
	slog.DebugContext(ctx, "submitting quiz attempt", "url", quizUrl, "questions", answered)

	_, err = r.Client.Http.R().
		SetContext(ctx).
		SetHeader("origin", strings.TrimSuffix(r.Client.BaseUrl.String(), "/")).
		SetHeader("referer", quizUrl).
		SetFormData(form).
		Post(submitAnswersPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit quiz answers")
		return "", err
	}

	// the attempt is recorded asynchronously server side
	settle := r.Settle
	if settle == 0 {
		settle = time.Second * 2
	}
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	html, err = r.Client.GetQuizPage(ctx, quizUrl)
	if err != nil {
		return "", err
	}
	if !AnswersRevealed(html) {
		span.SetStatus(codes.Error, AnswersNotRevealed.Error())
		return "", AnswersNotRevealed
	}
	return html, nil
}
