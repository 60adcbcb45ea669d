package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/fundsight/ragengine/internal/models"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   float64 // provider calls per second
}

// ChatEngine generates chat completions through the OpenAI API. Calls are
// rate limited and bounded by a timeout; cancellation of the caller's
// context propagates to the provider request.
type ChatEngine struct {
	config  ChatConfig
	llm     llms.Model
	limiter *rate.Limiter
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.APIKey == "" {
		return nil, &models.ConfigurationError{Reason: "OPENAI_API_KEY not set"}
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	model, err := openai.New(
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config:  config,
		llm:     model,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Generate produces a completion for the ordered message list.
func (ce *ChatEngine) Generate(ctx context.Context, turns []models.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ce.config.Timeout)
	defer cancel()

	if err := ce.limiter.Wait(ctx); err != nil {
		return "", &models.GenerationError{Err: err}
	}

	content := make([]llms.MessageContent, 0, len(turns))
	for _, turn := range turns {
		content = append(content, llms.TextParts(messageType(turn.Role), turn.Content))
	}

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", &models.GenerationError{Err: err}
	}
	if len(response.Choices) == 0 {
		return "", &models.GenerationError{Err: fmt.Errorf("no choices in response")}
	}

	return response.Choices[0].Content, nil
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
