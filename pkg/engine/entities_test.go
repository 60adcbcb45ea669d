package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/pkg/classifier"
)

func TestMatchEntities_ParsesFencedJSON(t *testing.T) {
	gen := &stubGenerator{response: "Here are the matches:\n```json\n" +
		`{"matches": [{"name": "Northern Trust", "shortCode": "NT", "category": "custodian", "confidence": 0.92}], "explanation": "Matched by name."}` +
		"\n```"}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "Northern Trust (NT) is a custodian bank.", "entities.txt", nil)
	require.NoError(t, err)

	result, err := eng.MatchEntities(ctx, "the custodian called northern trust", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, result.Status)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Northern Trust", result.Matches[0].Name)
	assert.Equal(t, "NT", result.Matches[0].ShortCode)
	assert.Equal(t, "custodian", result.Matches[0].Category)
	assert.InDelta(t, 0.92, result.Matches[0].Confidence, 1e-9)
	assert.Equal(t, "Matched by name.", result.Explanation)
}

func TestMatchEntities_ClampsConfidence(t *testing.T) {
	gen := &stubGenerator{response: `{"matches": [` +
		`{"name": "A", "shortCode": "A", "category": "fund", "confidence": 1.7},` +
		`{"name": "B", "shortCode": "B", "category": "fund", "confidence": -0.3}` +
		`], "explanation": "x"}`}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "funds A and B", "funds.txt", nil)
	require.NoError(t, err)

	result, err := eng.MatchEntities(ctx, "funds", "")
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, 1.0, result.Matches[0].Confidence)
	assert.Equal(t, 0.0, result.Matches[1].Confidence)
}

func TestMatchEntities_BracesInsideStringsDontBreakParsing(t *testing.T) {
	gen := &stubGenerator{response: `preamble {"matches": [], "explanation": "uses {braces} and a \"quote\" inside"} trailer`}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "reference data", "ref.txt", nil)
	require.NoError(t, err)

	result, err := eng.MatchEntities(ctx, "anything", "")
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.Equal(t, `uses {braces} and a "quote" inside`, result.Explanation)
}

func TestMatchEntities_UnparseableFallsBackToRawText(t *testing.T) {
	gen := &stubGenerator{response: "  I could not find any structured entities.  "}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "reference data", "ref.txt", nil)
	require.NoError(t, err)

	result, err := eng.MatchEntities(ctx, "anything", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, result.Status)
	assert.Empty(t, result.Matches)
	assert.Equal(t, "I could not find any structured entities.", result.Explanation)
}

func TestMatchEntities_EmptyIndexStillAsksModel(t *testing.T) {
	gen := &stubGenerator{response: `{"matches": [], "explanation": "no reference documents"}`}
	eng, _ := newTestEngine(gen)

	result, err := eng.MatchEntities(context.Background(), "some fund", "")
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Empty(t, result.Matches)
	require.NotEmpty(t, gen.last)
	assert.Contains(t, gen.last[0].Content, "No entity reference documents")
}

func TestMatchEntities_QueryRewriteBiasesRetrieval(t *testing.T) {
	gen := &stubGenerator{response: `{"matches": [], "explanation": "x"}`}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "entity names and short codes for custodians", "ref.txt", nil)
	require.NoError(t, err)

	_, err = eng.MatchEntities(ctx, "custodians", "")
	require.NoError(t, err)

	// The retrieved context reaches the model via the system turn.
	require.NotEmpty(t, gen.last)
	assert.Equal(t, models.RoleSystem, gen.last[0].Role)
	assert.Contains(t, gen.last[0].Content, "short codes")
}

func TestMatchEntities_MethodologyGate(t *testing.T) {
	gen := &stubGenerator{response: "should not be called"}
	eng, _ := newTestEngine(gen)

	result, err := eng.MatchEntities(context.Background(),
		"Ensure these entities are from investment domain", "sess")
	require.NoError(t, err)

	assert.Equal(t, classifier.Explanation, result.Explanation)
	assert.Empty(t, result.Matches)
	assert.Equal(t, "sess", result.SessionID)
	assert.Zero(t, gen.calls)
}

func TestMatchEntities_GenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("rate limited")}
	eng, _ := newTestEngine(gen)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "reference data", "ref.txt", nil)
	require.NoError(t, err)

	result, err := eng.MatchEntities(ctx, "anything", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusGenerationFailed, result.Status)
	assert.Empty(t, result.Matches)
	assert.True(t, strings.HasPrefix(result.Explanation, "I apologize, but I encountered an error"))
}
