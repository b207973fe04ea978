package commands

import (
	"log/slog"

	"currentadda-pipeline/lib/serviceutil"
	"currentadda-pipeline/services/pipeline"

	"github.com/spf13/cobra"
)

var bulkWorkers *int

func init() {
	bulkWorkers = bulkCmd.Flags().Int("workers", 0, "Overrides the configured scrape worker count.")
	rootCmd.AddCommand(bulkCmd)
}

var bulkCmd = &cobra.Command{
	Use:   "bulk <month>",
	Short: "Scrapes a whole month of quizzes into one combined pdf.",
	Long: "Collects every listed quiz whose url mentions the given month, merges " +
		"them into one renumbered quiz and renders a single combined pdf. " +
		"Nothing is posted to the channel and the processed set is left untouched.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		if *bulkWorkers > 0 {
			config.Workers = *bulkWorkers
		}
		client := authenticate(ctx, config)

		service := pipeline.NewService(pipeline.Options{
			Lister:     client,
			Revealer:   newRevealer(client, config),
			Translator: newTranslator(config),
			Renderer:   newRenderer(config),
			Workers:    config.Workers,
		})

		result, err := service.Bulk(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("bulk scrape failed", err)
		}
		slog.Info("bulk scrape finished",
			"quizzes", result.Quizzes,
			"failed", result.Failed,
			"questions", len(result.Quiz.Questions),
			"pdf", result.PdfPath,
		)
	},
}
