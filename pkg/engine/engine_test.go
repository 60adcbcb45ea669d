package engine_test

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/pkg/chunker"
	"github.com/fundsight/ragengine/pkg/classifier"
	"github.com/fundsight/ragengine/pkg/engine"
	"github.com/fundsight/ragengine/pkg/session"
	"github.com/fundsight/ragengine/pkg/store"
)

// stubEmbedder produces deterministic bag-of-words vectors so similarity
// search in the memory index ranks overlapping texts closest.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 64)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(word))
			vec[h.Sum32()%64]++
		}
		out[i] = vec
	}
	return out, nil
}

type stubGenerator struct {
	response string
	err      error
	calls    int
	last     []models.Turn
}

func (g *stubGenerator) Generate(_ context.Context, turns []models.Turn) (string, error) {
	g.calls++
	g.last = turns
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func newTestEngine(gen *stubGenerator) (*engine.Engine, *store.Memory) {
	index := store.NewMemory(stubEmbedder{})
	eng := engine.New(engine.EngineConfig{},
		index,
		gen,
		chunker.New(),
		session.NewStore(session.StoreConfig{}),
		nil,
		nil,
	)
	return eng, index
}

func TestChat_RAGAnswersWithCitations(t *testing.T) {
	gen := &stubGenerator{response: "Paris is the capital of France."}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "Paris is the capital city of France.", "geography.txt", nil)
	require.NoError(t, err)

	result, err := eng.Chat(ctx, "What is the capital of France?", "", true)
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", result.Response)
	assert.Equal(t, models.StatusOK, result.Status)
	assert.True(t, strings.HasPrefix(result.SessionID, "session_"))
	require.NotEmpty(t, result.Sources)
	assert.Equal(t, "geography.txt", result.Sources[0].SourceName)
	assert.Greater(t, result.Sources[0].RelevanceScore, 0.0)
	assert.LessOrEqual(t, result.Sources[0].RelevanceScore, 1.0)
}

func TestChat_EmptyIndexSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{response: "should not be called"}
	eng, _ := newTestEngine(gen)

	result, err := eng.Chat(context.Background(), "anything", "", true)
	require.NoError(t, err)

	assert.Contains(t, result.Response, "no documents have been uploaded")
	assert.Empty(t, result.Sources)
	assert.Equal(t, models.StatusOK, result.Status)
	assert.Zero(t, gen.calls)
}

func TestChat_DirectModeSkipsRetrieval(t *testing.T) {
	gen := &stubGenerator{response: "direct answer"}
	eng, _ := newTestEngine(gen)

	result, err := eng.Chat(context.Background(), "hello", "", false)
	require.NoError(t, err)

	assert.Equal(t, "direct answer", result.Response)
	assert.Empty(t, result.Sources)
	require.NotEmpty(t, gen.last)
	assert.NotContains(t, gen.last[0].Content, "Context:")
}

func TestChat_MethodologyGate(t *testing.T) {
	gen := &stubGenerator{response: "should not be called"}
	eng, _ := newTestEngine(gen)

	result, err := eng.Chat(context.Background(),
		"How do you wnsure that these entities are from investment domains?", "sess", true)
	require.NoError(t, err)

	assert.Equal(t, classifier.Explanation, result.Response)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "sess", result.SessionID)
	assert.Zero(t, gen.calls)
}

func TestChat_GenerationFailureMaskedInBand(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "some document content", "doc.txt", nil)
	require.NoError(t, err)

	result, err := eng.Chat(ctx, "tell me about the document", "", true)
	require.NoError(t, err)

	assert.Contains(t, result.Response, "I apologize, but I encountered an error")
	assert.Contains(t, result.Response, "model unavailable")
	assert.Equal(t, models.StatusGenerationFailed, result.Status)
	assert.Empty(t, result.Sources)
}

func TestChat_HistoryCarriesAcrossTurns(t *testing.T) {
	gen := &stubGenerator{response: "answer"}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "background material for the conversation", "doc.txt", nil)
	require.NoError(t, err)

	first, err := eng.Chat(ctx, "first question", "", true)
	require.NoError(t, err)

	_, err = eng.Chat(ctx, "second question", first.SessionID, true)
	require.NoError(t, err)

	// system + prior user/assistant pair + new user turn
	require.Len(t, gen.last, 4)
	assert.Equal(t, models.RoleUser, gen.last[1].Role)
	assert.Equal(t, "first question", gen.last[1].Content)
	assert.Equal(t, models.RoleAssistant, gen.last[2].Role)
}

func TestIngest_ChunkAccounting(t *testing.T) {
	gen := &stubGenerator{}
	eng, index := newTestEngine(gen)
	ctx := context.Background()

	long := strings.Repeat("fund administration reporting obligations ", 60)
	result, err := eng.Ingest(ctx, long, "handbook.txt", map[string]string{"department": "ops"})
	require.NoError(t, err)
	assert.Greater(t, result.ChunksCreated, 1)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.ChunksCreated, count)

	info, err := index.Document(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "handbook.txt", info.SourceName)
	assert.Equal(t, result.ChunksCreated, info.ChunkCount)
	assert.Equal(t, "ops", info.Metadata["department"])
}

func TestUpdate_PreservesIDAndMergesMetadata(t *testing.T) {
	gen := &stubGenerator{}
	eng, index := newTestEngine(gen)
	ctx := context.Background()

	ingested, err := eng.Ingest(ctx, "original content", "doc.txt",
		map[string]string{"owner": "alice", "status": "draft"})
	require.NoError(t, err)

	updated, err := eng.Update(ctx, ingested.DocumentID, "replacement content", "",
		map[string]string{"status": "final"})
	require.NoError(t, err)
	assert.Equal(t, ingested.DocumentID, updated.DocumentID)

	info, err := index.Document(ctx, ingested.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", info.SourceName)
	assert.Equal(t, "alice", info.Metadata["owner"])
	assert.Equal(t, "final", info.Metadata["status"])
}

func TestUpdate_UnknownDocument(t *testing.T) {
	gen := &stubGenerator{}
	eng, _ := newTestEngine(gen)

	_, err := eng.Update(context.Background(), "missing", "content", "", nil)
	assert.True(t, engine.IsNotFound(err))
}

func TestDelete_RemovesAllChunks(t *testing.T) {
	gen := &stubGenerator{}
	eng, index := newTestEngine(gen)
	ctx := context.Background()

	keep, err := eng.Ingest(ctx, "document to keep", "keep.txt", nil)
	require.NoError(t, err)
	drop, err := eng.Ingest(ctx, "document to drop", "drop.txt", nil)
	require.NoError(t, err)

	result, err := eng.Delete(ctx, drop.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, drop.ChunksCreated, result.ChunksDeleted)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, keep.ChunksCreated, count)
}

func TestDelete_UnknownDocument(t *testing.T) {
	gen := &stubGenerator{}
	eng, _ := newTestEngine(gen)

	_, err := eng.Delete(context.Background(), "missing")
	assert.True(t, engine.IsNotFound(err))
}

func TestClear_EmptiesIndex(t *testing.T) {
	gen := &stubGenerator{}
	eng, index := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "some content", "doc.txt", nil)
	require.NoError(t, err)

	result, err := eng.Clear(ctx)
	require.NoError(t, err)
	assert.Greater(t, result.ChunksRemoved, 0)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpload_UnsupportedFormatHasNoSideEffect(t *testing.T) {
	gen := &stubGenerator{}
	eng, index := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Upload(ctx, "malware.exe", []byte{0x4d, 0x5a})
	assert.True(t, engine.IsUnsupportedFormat(err))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStats_ReflectsIndexState(t *testing.T) {
	gen := &stubGenerator{}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	stats := eng.Stats(ctx)
	assert.Equal(t, models.IndexEmpty, stats.Status)
	assert.Zero(t, stats.TotalChunks)

	_, err := eng.Ingest(ctx, "content", "doc.txt", nil)
	require.NoError(t, err)

	stats = eng.Stats(ctx)
	assert.Equal(t, models.IndexActive, stats.Status)
	assert.Greater(t, stats.TotalChunks, 0)
}
