package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/internal/types"
)

// Memory is a brute-force in-memory index with the same contract as the
// pgvector store. It backs the engine tests and the -memory development
// mode; it is not durable.
type Memory struct {
	mu       sync.RWMutex
	embedder types.Embedder
	chunks   []models.Chunk
}

var _ types.VectorIndex = (*Memory)(nil)

func NewMemory(embedder types.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

func (m *Memory) Add(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return &models.StorageError{Op: "embed", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
		m.chunks = append(m.chunks, chunk)
	}
	return nil
}

func (m *Memory) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	embeddings, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &models.StorageError{Op: "embed query", Err: err}
	}
	queryVec := embeddings[0]

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]models.ScoredChunk, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		results = append(results, models.ScoredChunk{
			Chunk:    chunk,
			Distance: cosineDistance(queryVec, chunk.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *Memory) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chunks[:0]
	deleted := 0
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			deleted++
			continue
		}
		kept = append(kept, chunk)
	}
	m.chunks = kept
	return deleted, nil
}

func (m *Memory) Document(ctx context.Context, documentID string) (*models.DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := &models.DocumentInfo{DocumentID: documentID}
	for _, chunk := range m.chunks {
		if chunk.DocumentID != documentID {
			continue
		}
		if info.ChunkCount == 0 || chunk.ChunkIndex == 0 {
			info.SourceName = chunk.SourceName
			info.Metadata = chunk.Metadata
		}
		info.ChunkCount++
	}
	if info.ChunkCount == 0 {
		return nil, &models.NotFoundError{DocumentID: documentID}
	}
	return info, nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	return nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *Memory) Similarity(distance float64) float64 {
	if distance > 0 {
		return 1.0 / (1.0 + distance)
	}
	return 1.0
}

func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
