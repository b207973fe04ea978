package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend translates through a chat completion model, for runs
// where the free google endpoint is blocked.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	target string
}

type OpenAIOptions struct {
	ApiKey string
	Model  string
	Target string
}

func NewOpenAIBackend(opts OpenAIOptions) *OpenAIBackend {
	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	target := opts.Target
	if target == "" {
		target = "Gujarati"
	}
	return &OpenAIBackend{
		client: openai.NewClient(opts.ApiKey),
		model:  model,
		target: target,
	}
}

func (b *OpenAIBackend) Translate(ctx context.Context, text string) (string, error) {
	res, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You translate text into %s. Reply with the translation only, keep option labels, numbers and proper nouns intact.",
					b.target,
				),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}
