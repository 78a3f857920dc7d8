package llmgateway

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// PrimaryConfig configures the hosted chat-completion provider (§6: bearer
// API key, model, messages array, temperature 0.2).
type PrimaryConfig struct {
	APIKey string
	Model  string
}

// primaryProvider calls the hosted chat-completion API.
type primaryProvider struct {
	client anthropic.Client
	model  string
}

func newPrimaryProvider(cfg PrimaryConfig) *primaryProvider {
	return &primaryProvider{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
}

func (p *primaryProvider) name() Provider { return ProviderPrimary }

func (p *primaryProvider) call(ctx context.Context, prompt string) (text string, tokens int, err error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   4096,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", 0, err
	}
	if len(resp.Content) == 0 {
		return "", 0, parseFailure{errors.New("primary provider returned no content blocks")}
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", 0, parseFailure{errors.New("primary provider returned no text content")}
	}

	tokens = int(resp.Usage.InputTokens + resp.Usage.OutputTokens)
	return text, tokens, nil
}
