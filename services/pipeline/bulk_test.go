package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"currentadda-pipeline/lib/telemetry"
	"currentadda-pipeline/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestBulkMergesWholeMonth(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	p := newTestPipeline(t, Options{
		Lister: &fakeLister{urls: []string{novemberQuiz, earlierQuiz, octoberQuiz}},
		Revealer: &fakeRevealer{pages: map[string]string{
			novemberQuiz: quizPage("Who won the award?", "Where was the summit held?"),
			earlierQuiz:  quizPage("Which state launched the scheme?"),
			octoberQuiz:  quizPage("Which river was in the news?"),
		}},
	})

	result, err := p.service.Bulk(context.Background(), "November")
	require.NoError(t, err)
	require.Equal(t, 2, result.Quizzes)
	require.Equal(t, 0, result.Failed)

	require.Len(t, result.Quiz.Questions, 3)
	for i, question := range result.Quiz.Questions {
		require.Equal(t, i+1, question.Number)
	}
	require.Equal(t, "gu:Who won the award?", result.Quiz.Questions[0].Text)
	require.Equal(t, "gu:Which state launched the scheme?", result.Quiz.Questions[2].Text)
	require.Equal(t, novemberQuiz, result.Quiz.SourceUrl)

	year := timezone.Now().Year()
	require.Len(t, p.renderer.rendered, 1)
	require.Equal(t, fmt.Sprintf("November %d", year), p.renderer.rendered[0].Date)
	require.Equal(t, fmt.Sprintf("%d_november", year), p.renderer.rendered[0].Stamp)
	require.Contains(t, result.PdfPath, fmt.Sprintf("%d_november", year))

	// Bulk runs never touch the channel or the processed set.
	require.Empty(t, p.sender.documents)
	require.Equal(t, 0, p.tracker.Count())
}

func TestBulkSkipsFailedQuizzes(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	p := newTestPipeline(t, Options{
		Lister: &fakeLister{urls: []string{novemberQuiz, earlierQuiz}},
		Revealer: &fakeRevealer{pages: map[string]string{
			earlierQuiz: quizPage("Which state launched the scheme?"),
		}},
	})

	result, err := p.service.Bulk(context.Background(), "november")
	require.NoError(t, err)
	require.Equal(t, 1, result.Quizzes)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Quiz.Questions, 1)
	require.Equal(t, 1, result.Quiz.Questions[0].Number)
	require.Equal(t, earlierQuiz, result.Quiz.SourceUrl)
}

func TestBulkKeepsListingOrder(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	// The first quiz finishes last, merge order must still follow the
	// listing rather than completion.
	p := newTestPipeline(t, Options{
		Lister: &fakeLister{urls: []string{novemberQuiz, earlierQuiz}},
		Revealer: &fakeRevealer{
			pages: map[string]string{
				novemberQuiz: quizPage("Question from the newest quiz?"),
				earlierQuiz:  quizPage("Question from the older quiz?"),
			},
			delay: map[string]time.Duration{novemberQuiz: 50 * time.Millisecond},
		},
	})

	result, err := p.service.Bulk(context.Background(), "november")
	require.NoError(t, err)
	require.Len(t, result.Quiz.Questions, 2)
	require.Equal(t, "gu:Question from the newest quiz?", result.Quiz.Questions[0].Text)
	require.Equal(t, "gu:Question from the older quiz?", result.Quiz.Questions[1].Text)
	require.Equal(t, novemberQuiz, result.Quiz.SourceUrl)
}

func TestBulkBoundsWorkerPool(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	urls := make([]string, 6)
	pages := map[string]string{}
	delays := map[string]time.Duration{}
	for i := range urls {
		urls[i] = fmt.Sprintf("https://pendulumedu.com/qotd/daily-current-affairs-quiz-%d-november-2025", i+10)
		pages[urls[i]] = quizPage("Who won the award?")
		delays[urls[i]] = 10 * time.Millisecond
	}
	revealer := &fakeRevealer{pages: pages, delay: delays}

	p := newTestPipeline(t, Options{
		Lister:   &fakeLister{urls: urls},
		Revealer: revealer,
		Workers:  2,
	})

	result, err := p.service.Bulk(context.Background(), "november")
	require.NoError(t, err)
	require.Equal(t, 6, result.Quizzes)
	require.LessOrEqual(t, revealer.maxConcurrent, 2)
}

func TestBulkNoMatches(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	p := newTestPipeline(t, Options{
		Lister: &fakeLister{urls: []string{novemberQuiz}},
	})

	_, err := p.service.Bulk(context.Background(), "january")
	require.ErrorIs(t, err, NoQuizzesForMonth)
}

func TestBulkRequiresMonth(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	p := newTestPipeline(t, Options{})
	_, err := p.service.Bulk(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "month name is required")
}

func TestBulkAllQuizzesFailing(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/pipeline")
	defer cleanup()

	p := newTestPipeline(t, Options{
		Lister:   &fakeLister{urls: []string{novemberQuiz, earlierQuiz}},
		Revealer: &fakeRevealer{},
	})

	_, err := p.service.Bulk(context.Background(), "november")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to scrape")
	require.Empty(t, p.renderer.rendered)
}
