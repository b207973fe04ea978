package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"currentadda-pipeline/lib/configutil"
	"currentadda-pipeline/lib/i18n"
	"currentadda-pipeline/lib/scrapers/pendulum"
	"currentadda-pipeline/lib/serviceutil"
	"currentadda-pipeline/services/archive"
	"currentadda-pipeline/services/render"
	"currentadda-pipeline/services/report"
	"currentadda-pipeline/services/statestore"
	"currentadda-pipeline/services/telegram"
	"currentadda-pipeline/services/translate"
)

const defaultBaseUrl = "https://pendulumedu.com"

type SiteConfig struct {
	BaseUrl string `json:"base_url"`
	// QuickSubmit tries the plain http submission first and only falls
	// back to the browser when the answers do not show up.
	QuickSubmit bool `json:"quick_submit"`
}

type RenderConfig struct {
	Theme         string `json:"theme"`
	SvgBackground string `json:"svg_background"`
	Language      string `json:"language"`
	TemplatesDir  string `json:"templates_dir"`
	OutputDir     string `json:"output_dir"`
	PdfDir        string `json:"pdf_dir"`
	ChannelName   string `json:"channel_name"`
	ChannelLink   string `json:"channel_link"`
}

type TranslatorConfig struct {
	// Backend picks the translation provider, "google" (default) or
	// "openai".
	Backend string `json:"backend"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Model   string `json:"model"`
}

type TelegramConfig struct {
	// SendText also posts every quiz as formatted channel messages.
	SendText bool `json:"send_text"`
}

type Config struct {
	Site       SiteConfig       `json:"site"`
	Render     RenderConfig     `json:"render"`
	Translator TranslatorConfig `json:"translator"`
	Telegram   TelegramConfig   `json:"telegram"`
	Archive    archive.Config   `json:"archive"`
	DataDir    string           `json:"data_dir"`
	Workers    int              `json:"workers"`
}

// loadConfig reads config.json5 with its .local.json5 override. A
// missing config file just means defaults everywhere.
func loadConfig() Config {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Site.BaseUrl == "" {
		config.Site.BaseUrl = defaultBaseUrl
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.Render.Language == "" {
		config.Render.Language = "gu"
	}
	if config.Archive.File == "" && config.Archive.Url == "" {
		config.Archive.File = filepath.Join(config.DataDir, "quiz_archive.db")
	}
	return config
}

func requireEnv(name string) string {
	value := os.Getenv(name)
	if value == "" {
		serviceutil.Fatal(
			"missing required environment variable",
			fmt.Errorf("%s is not set", name),
		)
	}
	return value
}

func newTrackerStore(config Config) statestore.Mirror {
	mirror := statestore.Mirror{
		Local: statestore.NewFileStore(filepath.Join(config.DataDir, "scraped_urls.json")),
	}
	token := os.Getenv("GIST_TOKEN")
	gistId := os.Getenv("GIST_ID")
	if token != "" && gistId != "" {
		mirror.Online = statestore.NewGistStore(statestore.GistOptions{
			Token:    token,
			GistId:   gistId,
			FileName: "scraped_urls.json",
		})
	}
	return mirror
}

func newSessionStore(config Config) statestore.Mirror {
	mirror := statestore.Mirror{
		Local: statestore.NewFileStore(filepath.Join(config.DataDir, "session.json")),
	}
	token := os.Getenv("GIST_TOKEN")
	gistId := os.Getenv("SESSION_GIST_ID")
	if token != "" && gistId != "" {
		mirror.Online = statestore.NewGistStore(statestore.GistOptions{
			Token:    token,
			GistId:   gistId,
			FileName: "session.json",
		})
	}
	return mirror
}

func authenticate(ctx context.Context, config Config) *pendulum.Client {
	client, err := pendulum.Authenticate(ctx, newSessionStore(config), pendulum.AuthOptions{
		BaseUrl:  config.Site.BaseUrl,
		Email:    requireEnv("LOGIN_EMAIL"),
		Password: requireEnv("LOGIN_PASSWORD"),
	})
	if err != nil {
		serviceutil.Fatal("failed to sign in to the quiz site", err)
	}
	return client
}

func newRevealer(client *pendulum.Client, config Config) pendulum.Revealer {
	headless := os.Getenv("USE_HEADLESS") != "false"
	browser := pendulum.BrowserRevealer{Client: client, Headless: headless}
	if config.Site.QuickSubmit {
		return pendulum.FallbackRevealer{
			Primary:  pendulum.QuickRevealer{Client: client},
			Fallback: browser,
		}
	}
	return browser
}

func newTranslator(config Config) *translate.Service {
	var backend translate.Backend
	switch config.Translator.Backend {
	case "", "google":
		backend = translate.NewGoogleBackend(translate.GoogleOptions{
			Source: config.Translator.Source,
			Target: config.Translator.Target,
		})
	case "openai":
		backend = translate.NewOpenAIBackend(translate.OpenAIOptions{
			ApiKey: requireEnv("OPENAI_API_KEY"),
			Model:  config.Translator.Model,
		})
	default:
		serviceutil.Fatal(
			"unknown translator backend",
			fmt.Errorf("%q is not a supported backend", config.Translator.Backend),
		)
	}
	return translate.NewService(translate.Options{Backend: backend})
}

func newRenderer(config Config) *render.Service {
	err := i18n.Init(config.Render.Language)
	if err != nil {
		serviceutil.Fatal("failed to load locale strings", err)
	}
	return render.NewService(render.Options{
		Theme:         config.Render.Theme,
		TemplatesDir:  config.Render.TemplatesDir,
		OutputDir:     config.Render.OutputDir,
		PdfDir:        config.Render.PdfDir,
		ChannelName:   config.Render.ChannelName,
		ChannelLink:   config.Render.ChannelLink,
		SvgBackground: config.Render.SvgBackground,
	})
}

func newSender() *telegram.Client {
	client, err := telegram.NewClient(telegram.ClientOptions{
		BotToken: requireEnv("TELEGRAM_BOT_TOKEN"),
		Channel:  os.Getenv("TELEGRAM_CHANNEL"),
	})
	if err != nil {
		serviceutil.Fatal("failed to create the telegram client", err)
	}
	return client
}

func openArchive(config Config) *archive.Store {
	db, err := config.Archive.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open the archive database", err)
	}
	store, err := archive.NewStore(db)
	if err != nil {
		serviceutil.Fatal("failed to migrate the archive database", err)
	}
	return store
}

func newReporter() *report.Reporter {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	return report.NewReporter(report.SmtpConfig{
		Server:       os.Getenv("SMTP_SERVER"),
		Port:         port,
		EmailAddress: os.Getenv("SMTP_EMAIL"),
		Password:     os.Getenv("SMTP_PASSWORD"),
		Recipient:    os.Getenv("REPORT_RECIPIENT"),
	})
}
