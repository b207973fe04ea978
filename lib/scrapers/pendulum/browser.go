package pendulum

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/codes"
)

const solutionPollAttempts = 15
const explanationPollAttempts = 10

// BrowserRevealer drives a real Chrome through the submit flow. The
// solution rendering runs entirely in the page's javascript, so a plain
// http client never sees the answers on a first attempt.
type BrowserRevealer struct {
	Client   *Client
	Headless bool
}

func (r BrowserRevealer) Reveal(ctx context.Context, quizUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "browser:Reveal")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, time.Minute*3)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.Headless),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// the site pops an alert when the quiz was already attempted,
	// accept it so the solutions render anyway
	chromedp.ListenTarget(browserCtx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				err := chromedp.Run(browserCtx, page.HandleJavaScriptDialog(true))
				if err != nil {
					slog.WarnContext(ctx, "failed to accept page dialog", "err", err)
				}
			}()
		}
	})

	err := chromedp.Run(browserCtx,
		r.restoreSessionCookies(),
		chromedp.Navigate(quizUrl),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open quiz page")
		return "", err
	}

	var html string
	err = chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	if AnswersRevealed(html) {
		slog.InfoContext(ctx, "quiz already submitted, answers visible", "url", quizUrl)
		return html, nil
	}

	err = chromedp.Run(browserCtx,
		chromedp.ScrollIntoView("#submit-ans", chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.Click("#submit-ans", chromedp.ByQuery),
		chromedp.Sleep(time.Second*2),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, SubmitControlNotFound.Error())
		return "", SubmitControlNotFound
	}

	revealed := false
	for attempt := 0; attempt < solutionPollAttempts; attempt++ {
		err = chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
		if err != nil {
			return "", err
		}
		if AnswersRevealed(html) {
			revealed = true
			break
		}
		err = chromedp.Run(browserCtx, chromedp.Sleep(time.Second))
		if err != nil {
			return "", err
		}
	}
	if !revealed {
		// better to ship a quiz without answers marked than nothing,
		// the parser downstream decides whether the page is usable
		slog.WarnContext(ctx, "timed out waiting for solutions, keeping the page as is", "url", quizUrl)
		return html, nil
	}

	for attempt := 0; attempt < explanationPollAttempts; attempt++ {
		if explanationsPresent(html) {
			break
		}
		err = chromedp.Run(browserCtx,
			chromedp.Sleep(time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return "", err
		}
	}

	// final settle so late explanation text makes it into the capture
	err = chromedp.Run(browserCtx,
		chromedp.Sleep(time.Second*2),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

func (r BrowserRevealer) restoreSessionCookies() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for name, value := range r.Client.ExportCookies() {
			err := network.SetCookie(name, value).
				WithDomain(r.Client.BaseUrl.Hostname()).
				WithPath("/").
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
