package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"currentadda-pipeline/lib/serviceutil"
	"currentadda-pipeline/services/statestore"

	"github.com/spf13/cobra"
)

var markAllYes *bool

func init() {
	markAllYes = markAllCmd.Flags().Bool("yes", false, "Skip the confirmation prompt.")
	rootCmd.AddCommand(markAllCmd)
}

var markAllCmd = &cobra.Command{
	Use:   "mark-all [--yes]",
	Short: "Marks every currently listed quiz as already delivered.",
	Long: "Marks every quiz on the site's listing page as already delivered, " +
		"so the next run only picks up quizzes published afterwards. " +
		"Meant for fresh deployments with an empty processed set.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		client := authenticate(ctx, config)

		urls, err := client.QuizURLs(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch the quiz listing", err)
		}
		tracker := statestore.NewTracker(ctx, newTrackerStore(config))

		pending := 0
		for _, quizUrl := range urls {
			if !tracker.IsProcessed(quizUrl) {
				pending++
			}
		}
		if pending == 0 {
			slog.Info("every listed quiz is already marked", "listed", len(urls))
			return
		}

		if !*markAllYes && !confirm(fmt.Sprintf(
			"Mark %d of %d listed quizzes as delivered?", pending, len(urls),
		)) {
			fmt.Println("aborted")
			return
		}

		for _, quizUrl := range urls {
			if tracker.IsProcessed(quizUrl) {
				continue
			}
			err := tracker.MarkProcessed(ctx, quizUrl)
			if err != nil {
				serviceutil.Fatal("failed to save url tracking state", err)
			}
		}
		slog.Info("marked listed quizzes as delivered", "marked", pending, "total", tracker.Count())
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
