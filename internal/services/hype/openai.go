package hype

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/lockin/internal/logger"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const (
	// DefaultModel is used when AI_MODEL is unset
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 15 * time.Second

	maxHypeLength = 80
	systemPrompt  = "You write one brutal, all-caps motivational line of at most eight words. " +
		"No profanity, no emojis, no quotes. Reply with the line only."
)

// OpenAIProvider asks a chat model for a line and falls back on error.
type OpenAIProvider struct {
	client   openai.Client
	model    string
	fallback Provider
	logger   *zap.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider. A nil fallback uses the static list.
func NewOpenAIProvider(apiKey, baseURL, model string, fallback Provider, log *zap.Logger) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if fallback == nil {
		fallback = NewStaticProvider(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		option.WithMaxRetries(1),
	)

	return &OpenAIProvider{client: client, model: model, fallback: fallback, logger: log}
}

// Hype returns a generated line, or a static one when generation fails.
func (p *OpenAIProvider) Hype(ctx context.Context, goal string) (string, error) {
	line, err := p.generate(ctx, goal)
	if err == nil {
		return line, nil
	}
	p.logger.Warn("hype_generation_failed",
		zap.String("model", p.model),
		zap.String("error", logger.SanitizeError(err)))
	return p.fallback.Hype(ctx, goal)
}

func (p *OpenAIProvider) generate(ctx context.Context, goal string) (string, error) {
	prompt := "Give me one line."
	if goal != "" {
		prompt = fmt.Sprintf("My goal is: %s. Give me one line.", logger.SanitizeString(goal, logger.MaxTitleLength))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(32),
		Temperature: openai.Float(1.1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate hype: %w", classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	p.logger.Debug("hype_generated",
		zap.String("model", p.model),
		zap.String("prompt", logger.SanitizeDebugContent(prompt)),
		zap.String("completion", logger.SanitizeDebugContent(resp.Choices[0].Message.Content)))

	line := normalize(resp.Choices[0].Message.Content)
	if line == "" || len(line) > maxHypeLength {
		return "", ErrEmptyResponse
	}
	return line, nil
}
