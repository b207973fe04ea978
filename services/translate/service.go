// Package translate converts parsed quiz content from english to
// gujarati.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"

	"go.opentelemetry.io/otel/codes"
)

var RetriesExhausted = fmt.Errorf("Translation failed after all retry attempts.")

const maxAttempts = 3

// preserveItems are channel branding strings that must survive
// translation untouched.
var preserveItems = map[string]bool{
	"CurrentAdda":              true,
	"https://t.me/currentadda": true,
	"@currentadda":             true,
}

type Backend interface {
	Translate(ctx context.Context, text string) (string, error)
}

type Service struct {
	backend  Backend
	throttle time.Duration
	backoff  time.Duration
}

type Options struct {
	Backend Backend
	// Throttle is the pause between question translations, default
	// half a second.
	Throttle time.Duration
	// Backoff is the base retry delay, doubled after every failed
	// attempt, default one second.
	Backoff time.Duration
}

func NewService(opts Options) *Service {
	throttle := opts.Throttle
	if throttle == 0 {
		throttle = time.Millisecond * 500
	}
	backoff := opts.Backoff
	if backoff == 0 {
		backoff = time.Second
	}
	return &Service{backend: opts.Backend, throttle: throttle, backoff: backoff}
}

// TranslateQuiz returns a copy of the quiz with every question text,
// option and explanation translated. Option labels, answers, numbering
// and the source url pass through unchanged. One untranslatable
// question fails the whole quiz.
func (s *Service) TranslateQuiz(ctx context.Context, source quiz.Quiz) (quiz.Quiz, error) {
	ctx, span := tracer.Start(ctx, "TranslateQuiz")
	defer span.End()

	slog.InfoContext(ctx, "translating quiz", "questions", len(source.Questions))

	translated := source
	translated.Questions = make([]quiz.Question, 0, len(source.Questions))

	for _, question := range source.Questions {
		result, err := s.translateQuestion(ctx, question)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to translate question")
			return quiz.Quiz{}, fmt.Errorf("question %d: %w", question.Number, err)
		}
		translated.Questions = append(translated.Questions, result)

		// The free endpoint rate limits aggressively.
		select {
		case <-time.After(s.throttle):
		case <-ctx.Done():
			return quiz.Quiz{}, ctx.Err()
		}
	}

	return translated, nil
}

func (s *Service) translateQuestion(ctx context.Context, question quiz.Question) (quiz.Question, error) {
	text, err := s.translateText(ctx, question.Text)
	if err != nil {
		return quiz.Question{}, err
	}

	options := make(map[string]string, len(question.Options))
	for label, optionText := range question.Options {
		translated, err := s.translateText(ctx, optionText)
		if err != nil {
			return quiz.Question{}, err
		}
		options[label] = translated
	}

	explanation, err := s.translateText(ctx, question.Explanation)
	if err != nil {
		return quiz.Question{}, err
	}

	// The answer is a bare option label, nothing to translate.
	return quiz.Question{
		Number:      question.Number,
		Text:        text,
		Options:     options,
		Answer:      question.Answer,
		Explanation: explanation,
	}, nil
}

func (s *Service) translateText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if preserveItems[text] {
		return text, nil
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := s.backend.Translate(ctx, text)
		if err == nil && result != "" {
			return result, nil
		}
		if err == nil {
			slog.WarnContext(ctx, "empty translation result", "text", truncate(text, 50))
			continue
		}

		slog.WarnContext(ctx, "translation attempt failed", "attempt", attempt+1, "err", err)
		if attempt == maxAttempts-1 {
			return "", RetriesExhausted
		}

		select {
		case <-time.After(s.backoff << attempt):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	// Every attempt came back empty, keep the english text.
	slog.WarnContext(ctx, "keeping untranslated text", "text", truncate(text, 50))
	return text, nil
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
