package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultClassifierModel = "gpt-4o-mini"
	defaultGenerationModel = openai.GPT3Dot5Turbo
)

// OpenAIConfig configures the hosted primary provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// Model is used for free-form generation.
	Model string
	// ClassifierModel is used for JSON-mode completions.
	ClassifierModel string
	// Timeout bounds one HTTP call. Zero means no limit.
	Timeout time.Duration
}

// OpenAIProvider is the primary generation provider and the JSON-mode
// backend of the intent classifier.
type OpenAIProvider struct {
	client          *openai.Client
	model           string
	classifierModel string
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultGenerationModel
	}
	if cfg.ClassifierModel == "" {
		cfg.ClassifierModel = defaultClassifierModel
	}
	return &OpenAIProvider{
		client:          openai.NewClientWithConfig(oc),
		model:           cfg.Model,
		classifierModel: cfg.ClassifierModel,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return firstChoice(resp)
}

// CompleteJSON runs a low-temperature completion in JSON response mode.
func (p *OpenAIProvider) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.classifierModel,
		Temperature: 0.1,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai json completion: %w", err)
	}
	return firstChoice(resp)
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
