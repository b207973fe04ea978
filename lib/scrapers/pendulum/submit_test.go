package pendulum

import (
	"context"
	"fmt"
	"testing"
	"time"

	"currentadda-pipeline/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestAnswersRevealed(t *testing.T) {
	require.True(t, AnswersRevealed(revealedQuizHtml))
	require.False(t, AnswersRevealed(unansweredQuizHtml))
	require.False(t, AnswersRevealed(`<html><body>no solutions here</body></html>`))

	hindi := `<div class="solution-sec"><div class="head">सही उत्तर: B</div></div>`
	require.True(t, AnswersRevealed(hindi))
}

func TestExplanationsPresent(t *testing.T) {
	require.True(t, explanationsPresent(revealedQuizHtml))
	require.False(t, explanationsPresent(unansweredQuizHtml))
	require.True(t, explanationsPresent(`<div class="ans-text"><p>Some context.</p></div>`))
}

func loggedInClient(t *testing.T, ctx context.Context, baseUrl string) *Client {
	client, err := NewClient(ctx, ClientOptions{BaseUrl: baseUrl})
	require.NoError(t, err)
	err = client.LoginEmailPassword(ctx, fakeEmail, fakePassword)
	require.NoError(t, err)
	return client
}

func TestQuickRevealer(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/pendulum")
	defer cleanup()

	ctx, span := tracer.Start(context.Background(), "TestQuickRevealer")
	defer span.End()

	site, server := newFakeSite(t)
	client := loggedInClient(t, ctx, server.URL)

	revealer := QuickRevealer{Client: client, Settle: time.Millisecond}
	html, err := revealer.Reveal(ctx, server.URL+fakeQuizPath)
	require.NoError(t, err)
	require.True(t, AnswersRevealed(html))

	require.Len(t, site.submitForms, 1)
	form := site.submitForms[0]
	require.Equal(t, "4821", form.Get("intQuizId"))
	require.Equal(t, "4822", form.Get("intEnglishQuizId"))
	require.Equal(t, server.URL+fakeQuizPath, form.Get("txtCurrentURL"))
	require.Equal(t, "0", form.Get("txtCurrentTime"))
	require.Equal(t, "no", form.Get("txtLoginPopupStatus"))
	require.Equal(t, "resume", form.Get("pauseBtnhms"))
	require.Equal(t, "1", form.Get("ques1"), "should tick the first option of each question")
}

func TestQuickRevealerAlreadySubmitted(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/pendulum")
	defer cleanup()

	ctx, span := tracer.Start(context.Background(), "TestQuickRevealerAlreadySubmitted")
	defer span.End()

	site, server := newFakeSite(t)
	client := loggedInClient(t, ctx, server.URL)

	// mark this session's attempt as already recorded
	sid := client.ExportCookies()["PHPSESSID"]
	site.attempts[sid] = true

	revealer := QuickRevealer{Client: client, Settle: time.Millisecond}
	html, err := revealer.Reveal(ctx, server.URL+fakeQuizPath)
	require.NoError(t, err)
	require.True(t, AnswersRevealed(html))
	require.Empty(t, site.submitForms, "an already revealed quiz should not be submitted again")
}

func TestQuickRevealerNotRevealed(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/pendulum")
	defer cleanup()

	ctx, span := tracer.Start(context.Background(), "TestQuickRevealerNotRevealed")
	defer span.End()

	site, server := newFakeSite(t)
	site.ignoreSubmits = true
	client := loggedInClient(t, ctx, server.URL)

	revealer := QuickRevealer{Client: client, Settle: time.Millisecond}
	_, err := revealer.Reveal(ctx, server.URL+fakeQuizPath)
	require.ErrorIs(t, err, AnswersNotRevealed)
}

type stubRevealer struct {
	html  string
	err   error
	calls int
}

func (r *stubRevealer) Reveal(ctx context.Context, quizUrl string) (string, error) {
	r.calls++
	return r.html, r.err
}

func TestFallbackRevealer(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/pendulum")
	defer cleanup()

	ctx := context.Background()

	primary := &stubRevealer{err: fmt.Errorf("quick path broke")}
	fallback := &stubRevealer{html: revealedQuizHtml}

	html, err := FallbackRevealer{Primary: primary, Fallback: fallback}.Reveal(ctx, "https://example.com/quiz")
	require.NoError(t, err)
	require.Equal(t, revealedQuizHtml, html)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestFallbackRevealerPrimarySucceeds(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/pendulum")
	defer cleanup()

	ctx := context.Background()

	primary := &stubRevealer{html: revealedQuizHtml}
	fallback := &stubRevealer{}

	html, err := FallbackRevealer{Primary: primary, Fallback: fallback}.Reveal(ctx, "https://example.com/quiz")
	require.NoError(t, err)
	require.Equal(t, revealedQuizHtml, html)
	require.Equal(t, 1, primary.calls)
	require.Zero(t, fallback.calls)
}
