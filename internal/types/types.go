package types

import (
	"context"

	"github.com/fundsight/ragengine/internal/models"
)

// VectorIndex is the durable store of chunks and their embeddings.
// Search returns results ordered by index-native distance, lower = closer;
// Similarity maps that distance onto [0,1] for the implementation's metric,
// so callers never depend on one backend's distance semantics.
type VectorIndex interface {
	Add(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	Document(ctx context.Context, documentID string) (*models.DocumentInfo, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Similarity(distance float64) float64
}

// Embedder turns text into vectors for similarity comparison.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a model completion for an ordered message list.
type Generator interface {
	Generate(ctx context.Context, turns []models.Turn) (string, error)
}
