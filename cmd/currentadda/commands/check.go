package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"currentadda-pipeline/services/statestore"
	"currentadda-pipeline/services/telegram"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verifies credentials, directories and the browser before a deployment.",
	Long: "Check walks through everything a quiz run depends on, the login and " +
		"bot credentials, the headless browser, the state gists and the output " +
		"directories, and prints a row for each. Probes that talk to the network " +
		"use the real services, so a passing check means a run can actually " +
		"start. Exits with status 1 when a required piece is missing.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()

		rows := []checkRow{
			envRow("LOGIN_EMAIL", true),
			envRow("LOGIN_PASSWORD", false),
			envRow("TELEGRAM_BOT_TOKEN", false),
			botRow(ctx),
			channelRow(),
			gistRow(ctx),
			sessionGistRow(),
			translatorRow(config),
			reportRow(),
			browserRow(),
			directoryRow("data directory", config.DataDir),
			directoryRow("html output", defaulted(config.Render.OutputDir, "output")),
			directoryRow("pdf output", defaulted(config.Render.PdfDir, "pdfs")),
			hostRow(),
		}

		t := newTable()
		t.AppendHeader(table.Row{"Check", "Status", "Detail"})
		failed := 0
		for _, row := range rows {
			t.AppendRow(table.Row{row.Name, row.Status, row.Detail})
			if row.Failed {
				failed++
			}
		}
		t.Render()

		if failed > 0 {
			slog.Error("the environment is not ready", "failed", failed)
			os.Exit(1)
		}
		slog.Info("environment looks ready")
	},
}

type checkRow struct {
	Name   string
	Status string
	Detail string
	Failed bool
}

func pass(name, detail string) checkRow {
	return checkRow{Name: name, Status: "ok", Detail: detail}
}

func broken(name, detail string) checkRow {
	return checkRow{Name: name, Status: "failed", Detail: detail, Failed: true}
}

func unused(name, detail string) checkRow {
	return checkRow{Name: name, Status: "off", Detail: detail}
}

// envRow checks a required variable is present. Values are secrets, at
// most the first characters are echoed back.
func envRow(name string, echo bool) checkRow {
	value := os.Getenv(name)
	if value == "" {
		return broken(name, "not set")
	}
	detail := ""
	if echo {
		detail = mask(value)
	}
	return pass(name, detail)
}

func mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 3 {
		return "***"
	}
	return string(runes[:3]) + "***"
}

func botRow(ctx context.Context) checkRow {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return broken("telegram bot", "needs TELEGRAM_BOT_TOKEN")
	}
	client, err := telegram.NewClient(telegram.ClientOptions{BotToken: token})
	if err != nil {
		return broken("telegram bot", err.Error())
	}
	username, err := client.GetMe(ctx)
	if err != nil {
		return broken("telegram bot", err.Error())
	}
	return pass("telegram bot", "@"+username)
}

func channelRow() checkRow {
	channel := os.Getenv("TELEGRAM_CHANNEL")
	if channel == "" {
		return pass("TELEGRAM_CHANNEL", "currentadda (default)")
	}
	return pass("TELEGRAM_CHANNEL", channel)
}

// gistRow probes the url tracking gist with a real load. An empty gist
// is fine, it fills up on the first run.
func gistRow(ctx context.Context) checkRow {
	token := os.Getenv("GIST_TOKEN")
	gistId := os.Getenv("GIST_ID")
	if token == "" || gistId == "" {
		return unused("gist sync", "GIST_TOKEN / GIST_ID not set, state stays local")
	}
	store := statestore.NewGistStore(statestore.GistOptions{
		Token:    token,
		GistId:   gistId,
		FileName: "scraped_urls.json",
	})
	_, err := store.Load(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return pass("gist sync", "gist reachable, still empty")
	}
	if err != nil {
		return broken("gist sync", err.Error())
	}
	return pass("gist sync", "gist reachable")
}

func sessionGistRow() checkRow {
	if os.Getenv("SESSION_GIST_ID") == "" {
		return unused("session gist", "SESSION_GIST_ID not set, sessions stay local")
	}
	return pass("session gist", "")
}

func translatorRow(config Config) checkRow {
	switch config.Translator.Backend {
	case "", "google":
		return pass("translator", "google")
	case "openai":
		if os.Getenv("OPENAI_API_KEY") == "" {
			return broken("translator", "openai backend needs OPENAI_API_KEY")
		}
		return pass("translator", "openai")
	default:
		return broken("translator", fmt.Sprintf("unknown backend %q", config.Translator.Backend))
	}
}

func reportRow() checkRow {
	reporter := newReporter()
	if !reporter.Enabled() {
		return unused("email reports", "smtp settings not set")
	}
	return pass("email reports", os.Getenv("REPORT_RECIPIENT"))
}

// browserCandidates are the executable names chromedp can drive,
// roughly in order of how often deployments ship them.
var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

func browserRow() checkRow {
	for _, name := range browserCandidates {
		path, err := exec.LookPath(name)
		if err == nil {
			return pass("browser", path)
		}
	}
	return broken("browser", "no chrome or chromium on PATH")
}

// directoryRow confirms a path can actually receive files, not just
// that it exists.
func directoryRow(name, dir string) checkRow {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return broken(name, err.Error())
	}
	probe, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return broken(name, err.Error())
	}
	probe.Close()
	os.Remove(probe.Name())
	return pass(name, dir)
}

func hostRow() checkRow {
	cpus, err := cpu.Counts(true)
	if err != nil {
		return unused("host", err.Error())
	}
	memory, err := mem.VirtualMemory()
	if err != nil {
		return unused("host", err.Error())
	}
	detail := fmt.Sprintf("%d cpus, %.1f of %.1f gb memory free",
		cpus,
		float64(memory.Available)/(1<<30),
		float64(memory.Total)/(1<<30))
	return pass("host", detail)
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
