package pendulum

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"currentadda-pipeline/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// QuizURLs fetches the current affairs listing and returns the quiz
// page URL behind every card, newest first as the site orders them.
func (c *Client) QuizURLs(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:QuizURLs")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(listingPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch quiz listing")
		return nil, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "quiz listing returned an error status")
		return nil, fmt.Errorf("fetch quiz listing: %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse listing html")
		return nil, err
	}

	cards := doc.Find("div.card-section")
	if cards.Length() == 0 {
		slog.WarnContext(ctx, "no quiz cards found on listing page")
		return nil, nil
	}

	var urls []string
	cards.Each(func(_ int, card *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, card, c.BaseUrl)
		if len(anchors) == 0 {
			return
		}
		urls = append(urls, anchors[0].Href)
	})

	slog.InfoContext(ctx, "fetched quiz listing", "quizzes", len(urls))
	return urls, nil
}

// GetQuizPage fetches a single quiz page as served to a signed in user.
func (c *Client) GetQuizPage(ctx context.Context, quizUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetQuizPage")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.BaseUrl.JoinPath(listingPath).String()).
		Get(quizUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch quiz page")
		return "", err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "quiz page returned an error status")
		return "", fmt.Errorf("fetch quiz page: %s", res.Status())
	}

	return res.String(), nil
}
