package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"currentadda-pipeline/lib/serviceutil"
	"currentadda-pipeline/lib/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose *bool
var shutdownTelemetry = func() {}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output.")
}

var rootCmd = &cobra.Command{
	Use:   "currentadda",
	Short: "currentadda scrapes daily current affairs quizzes, translates them to Gujarati and posts them to a telegram channel.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			serviceutil.Fatal("failed to load .env", err)
		}
		telemetry.InitSlog(*verbose)

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "currentadda")
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("no telemetry.json5 found, tracing stays off")
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		telemetry.InstrumentPerfStats(cmd.Context())
		shutdownTelemetry = func() {
			err := tel.Shutdown(context.Background())
			if err != nil {
				slog.Warn("failed to shut down telemetry", "err", err)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdownTelemetry()
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
