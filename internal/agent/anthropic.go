package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// AnthropicProvider is the secondary hosted provider. It is tried after the
// local inference server.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicProvider creates a provider backed by Anthropic or a
// compatible endpoint.
func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// the fallback chain moves on instead of retrying
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 2048,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, "", prompt)
}

// CompleteJSON sends system as the system prompt. Anthropic has no JSON
// response mode, so callers still strip fences from the reply.
func (p *AnthropicProvider) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return p.complete(ctx, system, user)
}

func (p *AnthropicProvider) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(p.model)),
		MaxTokens: anthropic.F(int64(p.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		}),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}
	log.Debug().
		Str("model", p.model).
		Str("stop_reason", string(resp.StopReason)).
		Str("text_preview", truncate(text, 80)).
		Msg("anthropic completion")
	if text == "" {
		return "", errors.New("anthropic returned no text")
	}
	return text, nil
}
