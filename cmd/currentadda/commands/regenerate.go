package commands

import (
	"context"
	"log/slog"
	"os"

	"currentadda-pipeline/lib/scrapers/pendulum"
	"currentadda-pipeline/lib/serviceutil"
	"currentadda-pipeline/services/archive"
	"currentadda-pipeline/services/render"

	"github.com/spf13/cobra"
)

var regenerateTheme *string
var regenerateHtmlOnly *bool

func init() {
	regenerateTheme = regenerateCmd.Flags().String("theme", "", "Overrides the configured document theme.")
	regenerateHtmlOnly = regenerateCmd.Flags().Bool("html-only", false, "Rebuild the html documents without printing pdfs.")
	rootCmd.AddCommand(regenerateCmd)
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate [quiz-url]",
	Short: "Rebuilds html and pdf documents from the quiz archive.",
	Long: "Regenerate renders archived quizzes again without touching the site " +
		"or the channel. Handy after a theme or template change, the whole " +
		"archive can be reprinted in the new look. With a url only that quiz is " +
		"rebuilt, without one the entire archive is.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		if *regenerateTheme != "" {
			config.Render.Theme = *regenerateTheme
		}

		store := openArchive(config)
		defer store.Close()
		renderer := newRenderer(config)

		var entries []archive.Entry
		if len(args) > 0 {
			entry, err := store.GetQuiz(ctx, args[0])
			if err != nil {
				serviceutil.Fatal("quiz is not in the archive", err)
			}
			entries = append(entries, entry)
		} else {
			summaries, err := store.ListQuizzes(ctx)
			if err != nil {
				serviceutil.Fatal("failed to list the archive", err)
			}
			if len(summaries) == 0 {
				slog.Info("the archive is empty, nothing to regenerate")
				return
			}
			for _, summary := range summaries {
				entry, err := store.GetQuiz(ctx, summary.Url)
				if err != nil {
					serviceutil.Fatal("failed to read an archived quiz", err)
				}
				entries = append(entries, entry)
			}
		}

		failed := 0
		for _, entry := range entries {
			err := regenerateEntry(ctx, renderer, entry)
			if err != nil {
				slog.ErrorContext(ctx, "failed to regenerate quiz",
					"url", entry.Url, "err", err)
				failed++
			}
		}

		slog.Info("regeneration finished", "quizzes", len(entries)-failed, "failed", failed)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func regenerateEntry(ctx context.Context, renderer *render.Service, entry archive.Entry) error {
	// Old archive rows from before translation was wired may only
	// carry the english quiz.
	source := entry.Translated
	if len(source.Questions) == 0 {
		source = entry.English
	}

	date, err := pendulum.ExtractQuizDate(entry.Url)
	if err != nil {
		scraped := entry.ScrapedAt
		date = pendulum.QuizDate{
			Time:   scraped,
			Day:    scraped.Day(),
			EndDay: scraped.Day(),
			Month:  scraped.Month(),
			Year:   scraped.Year(),
		}
	}

	if *regenerateHtmlOnly {
		path, err := renderer.WriteHtml(ctx, source, date.Gujarati(), date.Filename())
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "regenerated html", "url", entry.Url, "path", path)
		return nil
	}

	path, err := renderer.RenderPdf(ctx, source, date.Gujarati(), date.Filename())
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "regenerated pdf", "url", entry.Url, "path", path)
	return nil
}
