// Package telegram posts quiz pdfs and formatted question messages to
// a channel through the bot api.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"currentadda-pipeline/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var (
	BotTokenMissing = fmt.Errorf("A telegram bot token is required.")
	FileTooLarge    = fmt.Errorf("The document exceeds the bot api upload limit.")
)

const telegramApiUrl = "https://api.telegram.org"

// documentSizeLimit is the bot api cap on uploads, 50 MB.
const documentSizeLimit = 50 << 20

type Client struct {
	channel         string
	throttle        time.Duration
	maxDocumentSize int64
	http            *resty.Client
}

type ClientOptions struct {
	BotToken string
	// Channel is the target channel username, with or without the
	// leading @. Defaults to currentadda.
	Channel string
	// BaseUrl overrides the bot api host.
	BaseUrl string
	// Throttle is the delay between consecutive message sends.
	// Defaults to 500ms, negative disables it.
	Throttle time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BotToken == "" {
		return nil, BotTokenMissing
	}
	if opts.Channel == "" {
		opts.Channel = "currentadda"
	}
	if !strings.HasPrefix(opts.Channel, "@") {
		opts.Channel = "@" + opts.Channel
	}
	if opts.BaseUrl == "" {
		opts.BaseUrl = telegramApiUrl
	}
	if opts.Throttle == 0 {
		opts.Throttle = time.Millisecond * 500
	}

	client := resty.New().
		SetBaseURL(opts.BaseUrl + "/bot" + opts.BotToken).
		SetTimeout(time.Second * 30)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		channel:         opts.Channel,
		throttle:        opts.Throttle,
		maxDocumentSize: documentSizeLimit,
		http:            client,
	}, nil
}

// Channel returns the normalized channel username the client posts to.
func (c *Client) Channel() string {
	return c.channel
}

type tgResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageId int64 `json:"message_id"`
	} `json:"result"`
}

// SendDocument uploads a file to the channel with the given caption.
// An empty caption falls back to DefaultCaption. Oversized files fail
// with FileTooLarge before any network call.
func (c *Client) SendDocument(ctx context.Context, path, caption string) error {
	ctx, span := tracer.Start(ctx, "SendDocument")
	defer span.End()

	if caption == "" {
		caption = DefaultCaption()
	}

	info, err := os.Stat(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "document not found")
		return fmt.Errorf("document not found: %w", err)
	}
	if info.Size() > c.maxDocumentSize {
		slog.ErrorContext(
			ctx, "document exceeds the upload limit",
			"path", path, "size", info.Size(), "limit", c.maxDocumentSize,
		)
		return FileTooLarge
	}

	slog.InfoContext(ctx, "sending document", "path", path, "size", info.Size(), "channel", c.channel)

	var out tgResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("document", path).
		SetFormData(map[string]string{
			"chat_id": c.channel,
			"caption": caption,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/sendDocument")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send the document")
		return err
	}
	if !out.Ok {
		c.logApiHint(ctx, out.Description)
		err := apiError(resp, out.Description)
		span.RecordError(err)
		span.SetStatus(codes.Error, "the bot api rejected the document")
		return err
	}

	slog.InfoContext(ctx, "document sent", "message_id", out.Result.MessageId)
	return nil
}

// SendText posts a single html formatted message to the channel.
func (c *Client) SendText(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "SendText")
	defer span.End()

	var out tgResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id":                  c.channel,
			"text":                     text,
			"parse_mode":               "HTML",
			"disable_web_page_preview": true,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/sendMessage")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send the message")
		return err
	}
	if !out.Ok {
		c.logApiHint(ctx, out.Description)
		err := apiError(resp, out.Description)
		span.RecordError(err)
		span.SetStatus(codes.Error, "the bot api rejected the message")
		return err
	}
	return nil
}

// GetMe asks the bot api which bot the token belongs to and returns
// its username. The check command uses it as a credentials probe.
func (c *Client) GetMe(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "GetMe")
	defer span.End()

	var out struct {
		Ok          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		Get("/getMe")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach the bot api")
		return "", err
	}
	if !out.Ok {
		err := apiError(resp, out.Description)
		span.RecordError(err)
		span.SetStatus(codes.Error, "the bot api rejected the token")
		return "", err
	}
	return out.Result.Username, nil
}

func apiError(resp *resty.Response, description string) error {
	if description != "" {
		return fmt.Errorf("telegram api: %s", description)
	}
	return fmt.Errorf("telegram api: %s", resp.Status())
}

// logApiHint translates the most common bot api rejections into
// actionable log lines.
func (c *Client) logApiHint(ctx context.Context, description string) {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "chat not found"):
		slog.ErrorContext(ctx, "channel not found, verify the bot was added to it", "channel", c.channel)
	case strings.Contains(desc, "bot was blocked"):
		slog.ErrorContext(ctx, "the bot was blocked by the channel", "channel", c.channel)
	case strings.Contains(desc, "not enough rights"):
		slog.ErrorContext(ctx, "the bot cannot post to the channel, grant it the post messages right", "channel", c.channel)
	}
}

func (c *Client) waitThrottle(ctx context.Context) {
	if c.throttle <= 0 {
		return
	}
	select {
	case <-time.After(c.throttle):
	case <-ctx.Done():
	}
}
