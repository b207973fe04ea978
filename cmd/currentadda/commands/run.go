package commands

import (
	"context"
	"log/slog"
	"os"

	"currentadda-pipeline/lib/serviceutil"
	"currentadda-pipeline/lib/timezone"
	"currentadda-pipeline/services/pipeline"
	"currentadda-pipeline/services/statestore"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var runTheme *string
var runSchedule *string
var runSendText *bool

func init() {
	runTheme = runCmd.Flags().String("theme", "", "Overrides the configured document theme.")
	runSchedule = runCmd.Flags().String("schedule", "", "Keep running on a cron schedule, e.g. \"30 8 * * *\".")
	runSendText = runCmd.Flags().Bool("send-text", false, "Also post every quiz as text messages.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--schedule <cron>]",
	Short: "Scrapes, translates and delivers every new quiz, once or on a schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfig()
		if *runTheme != "" {
			config.Render.Theme = *runTheme
		}
		if *runSendText {
			config.Telegram.SendText = true
		}

		if *runSchedule == "" {
			summary := executeRun(cmd.Context(), config)
			if summary.Failed > 0 {
				os.Exit(1)
			}
			return
		}

		// Schedules are interpreted in the site's timezone, the quizzes
		// are published on IST days.
		scheduler := cron.New(cron.WithLocation(timezone.Location))
		_, err := scheduler.AddFunc(*runSchedule, func() {
			executeRun(cmd.Context(), config)
		})
		if err != nil {
			serviceutil.Fatal("invalid cron schedule", err)
		}

		slog.Info("scheduler started", "schedule", *runSchedule)
		scheduler.Start()
		<-cmd.Context().Done()
		<-scheduler.Stop().Done()
	},
}

func executeRun(ctx context.Context, config Config) pipeline.Summary {
	client := authenticate(ctx, config)

	store := openArchive(config)
	defer store.Close()

	service := pipeline.NewService(pipeline.Options{
		Lister:     client,
		Revealer:   newRevealer(client, config),
		Translator: newTranslator(config),
		Renderer:   newRenderer(config),
		Sender:     newSender(),
		Tracker:    statestore.NewTracker(ctx, newTrackerStore(config)),
		Archive:    store,
		Reporter:   newReporter(),
		SendText:   config.Telegram.SendText,
	})

	summary, err := service.Run(ctx)
	if err != nil {
		serviceutil.Fatal("quiz run could not start", err)
	}
	return summary
}
