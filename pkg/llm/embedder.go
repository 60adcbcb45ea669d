package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/fundsight/ragengine/internal/models"
)

type EmbedderConfig struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	RateLimit float64 // provider calls per second
}

// Embedder creates vector embeddings through the OpenAI API.
type Embedder struct {
	config  EmbedderConfig
	llm     *openai.LLM
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.APIKey == "" {
		return nil, &models.ConfigurationError{Reason: "OPENAI_API_KEY not set"}
	}
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	emb, err := openai.New(
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		config:  config,
		llm:     emb,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	embeddings, err := e.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(embeddings), len(texts))
	}

	return embeddings, nil
}
