package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"currentadda-pipeline/lib/scrapers/pendulum"
	"currentadda-pipeline/lib/scrapers/pendulum/quiz"
	"currentadda-pipeline/lib/serviceutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(debugCmd)
}

var debugCmd = &cobra.Command{
	Use:   "debug [quiz-url]",
	Short: "Reveals one quiz page and prints what the parser sees in it.",
	Long: "Debug fetches a single quiz page with its answers revealed, saves the " +
		"raw html next to the other data files and prints how often each selector " +
		"the parser relies on shows up. Without a url it inspects the newest quiz " +
		"in the listing. Reach for it when the site changes its markup and " +
		"parsing starts coming back empty.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		client := authenticate(ctx, config)

		var quizUrl string
		if len(args) > 0 {
			quizUrl = args[0]
		} else {
			urls, err := client.QuizURLs(ctx)
			if err != nil {
				serviceutil.Fatal("failed to fetch the quiz listing", err)
			}
			if len(urls) == 0 {
				slog.Info("the quiz listing is empty, nothing to inspect")
				return
			}
			quizUrl = urls[0]
		}

		slog.Info("revealing quiz page", "url", quizUrl)
		html, err := newRevealer(client, config).Reveal(ctx, quizUrl)
		if err != nil {
			serviceutil.Fatal("failed to reveal the quiz", err)
		}
		saveDump(config, html)
		printSelectorCounts(html)

		parsed, err := quiz.Parse(ctx, html, quizUrl)
		if err != nil {
			slog.Warn("the parser rejected the page", "err", err)
			return
		}
		printQuestions(parsed)
	},
}

func saveDump(config Config, html string) {
	path := filepath.Join(config.DataDir, "debug_quiz_page.html")
	err := os.MkdirAll(config.DataDir, 0755)
	if err == nil {
		err = os.WriteFile(path, []byte(html), 0644)
	}
	if err != nil {
		slog.Warn("failed to save the page dump", "err", err)
		return
	}
	slog.Info("saved page dump", "path", path)
}

func printSelectorCounts(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("failed to parse the page html", "err", err)
		return
	}

	t := newTable()
	t.AppendHeader(table.Row{"Selector", "Matches"})
	for _, selector := range []string{
		"div.q-section-inner-sol",
		"div.q-section-inner",
		"div.q-name",
		"div.q-option li div.containerr-text-opt",
		"div.solution-sec",
		"div.solution-sec div.head",
		"div.ans-text",
	} {
		t.AppendRow(table.Row{selector, doc.Find(selector).Length()})
	}
	t.AppendFooter(table.Row{"answers revealed", pendulum.AnswersRevealed(html)})
	t.Render()
}

func printQuestions(parsed quiz.Quiz) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Question", "Options", "Answer", "Explained"})
	for _, question := range parsed.Questions {
		t.AppendRow(table.Row{
			question.Number,
			clip(question.Text, 48),
			len(question.Options),
			question.Answer,
			question.Explanation != "",
		})
	}
	t.Render()
}

func clip(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-3]) + "..."
}
