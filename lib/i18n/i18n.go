// Package i18n renders the fixed ui strings of the generated documents
// in the configured output language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
)

// Init loads the translation bundle and selects the output language.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle = i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		_, err = bundle.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		slog.Debug("loaded locale file", "file", e.Name())
	}

	localizer = i18n.NewLocalizer(bundle, lang)
	return nil
}

func localize(cfg *i18n.LocalizeConfig) (string, error) {
	if localizer == nil {
		return "", fmt.Errorf("translations are not initialized")
	}
	return localizer.Localize(cfg)
}

// T translates a message by ID.
func T(msgID string) string {
	s, err := localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "err", err)
		return msgID
	}
	return s
}

// Td translates a message by ID with template data.
func Td(msgID string, data map[string]any) string {
	s, err := localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "err", err)
		return msgID
	}
	return s
}

// Tp translates a pluralized message by ID.
func Tp(msgID string, count int) string {
	s, err := localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "err", err)
		return msgID
	}
	return s
}
