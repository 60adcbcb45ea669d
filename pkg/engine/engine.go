// Package engine wires retrieval, generation, conversation state and the
// document lifecycle into the answering pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/internal/types"
	"github.com/fundsight/ragengine/pkg/chunker"
	"github.com/fundsight/ragengine/pkg/classifier"
	"github.com/fundsight/ragengine/pkg/logger"
	"github.com/fundsight/ragengine/pkg/session"
	"github.com/fundsight/ragengine/pkg/staging"
)

const (
	// DefaultTopK is the number of chunks retrieved for generation context.
	DefaultTopK = 5
	// DefaultCitationCount is how many of those are returned as citations.
	DefaultCitationCount = 3
	// DefaultPreviewLength bounds citation excerpts.
	DefaultPreviewLength = 300
)

type EngineConfig struct {
	TopK          int
	CitationCount int
	PreviewLength int
}

// Engine is the retrieval-augmented answering core. Mutating operations on
// the same logical document are serialized through a keyed mutex; everything
// else runs concurrently.
type Engine struct {
	config   EngineConfig
	index    types.VectorIndex
	gen      types.Generator
	chunker  chunker.Chunker
	sessions *session.Store
	staging  *staging.Dir
	log      *logger.Logger

	docMu    sync.Mutex
	docLocks map[string]*sync.Mutex
}

func New(config EngineConfig, index types.VectorIndex, gen types.Generator,
	ch chunker.Chunker, sessions *session.Store, stagingDir *staging.Dir, log *logger.Logger) *Engine {

	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.CitationCount <= 0 {
		config.CitationCount = DefaultCitationCount
	}
	if config.CitationCount > config.TopK {
		config.CitationCount = config.TopK
	}
	if config.PreviewLength <= 0 {
		config.PreviewLength = DefaultPreviewLength
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Engine{
		config:   config,
		index:    index,
		gen:      gen,
		chunker:  ch,
		sessions: sessions,
		staging:  stagingDir,
		log:      log,
		docLocks: make(map[string]*sync.Mutex),
	}
}

// Chat answers a message in one of three modes: RAG with documents, RAG
// without documents (fixed guidance), or direct generation. All modes sit
// behind the methodology gate. Generation failures are converted into an
// in-band apologetic answer with a generation_failed status; storage
// failures propagate.
func (e *Engine) Chat(ctx context.Context, message, sessionID string, useRAG bool) (*models.ChatResult, error) {
	if classifier.IsMethodologyQuestion(message) {
		e.log.Info("methodology question intercepted", "session_id", sessionID)
		return &models.ChatResult{
			Response:  classifier.Explanation,
			Sources:   []models.SourceCitation{},
			SessionID: sessionID,
			Status:    models.StatusOK,
		}, nil
	}

	sess := e.sessions.GetOrCreate(sessionID)

	if !useRAG {
		return e.chatDirect(ctx, message, sess)
	}

	count, err := e.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &models.ChatResult{
			Response:  noDocumentsMessage,
			Sources:   []models.SourceCitation{},
			SessionID: sess.ID(),
			Status:    models.StatusOK,
		}, nil
	}

	results, err := e.index.Search(ctx, message, e.config.TopK)
	if err != nil {
		return nil, err
	}

	turns := buildRAGPrompt(contextBlock(results), sess.History(), message)
	answer, err := e.gen.Generate(ctx, turns)
	if err != nil {
		return e.generationFallback(err, sess.ID()), nil
	}

	sess.Append(
		models.Turn{Role: models.RoleUser, Content: message},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)

	return &models.ChatResult{
		Response:  answer,
		Sources:   e.citations(results),
		SessionID: sess.ID(),
		Status:    models.StatusOK,
	}, nil
}

func (e *Engine) chatDirect(ctx context.Context, message string, sess *session.Session) (*models.ChatResult, error) {
	turns := buildDirectPrompt(sess.History(), message)
	answer, err := e.gen.Generate(ctx, turns)
	if err != nil {
		return e.generationFallback(err, sess.ID()), nil
	}

	sess.Append(
		models.Turn{Role: models.RoleUser, Content: message},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)

	return &models.ChatResult{
		Response:  answer,
		Sources:   []models.SourceCitation{},
		SessionID: sess.ID(),
		Status:    models.StatusOK,
	}, nil
}

func (e *Engine) generationFallback(err error, sessionID string) *models.ChatResult {
	e.log.Error("generation failed", "session_id", sessionID, "error", err)
	return &models.ChatResult{
		Response:  fmt.Sprintf("I apologize, but I encountered an error: %v", err),
		Sources:   []models.SourceCitation{},
		SessionID: sessionID,
		Status:    models.StatusGenerationFailed,
	}
}

// citations converts the closest retrieved chunks into annotated sources
// with normalized relevance scores and bounded excerpts.
func (e *Engine) citations(results []models.ScoredChunk) []models.SourceCitation {
	n := e.config.CitationCount
	if n > len(results) {
		n = len(results)
	}

	citations := make([]models.SourceCitation, 0, n)
	for _, sc := range results[:n] {
		excerpt := sc.Chunk.Text
		if len(excerpt) > e.config.PreviewLength {
			excerpt = excerpt[:e.config.PreviewLength]
		}
		citations = append(citations, models.SourceCitation{
			Excerpt:        excerpt,
			SourceName:     sc.Chunk.SourceName,
			Page:           sc.Chunk.Page,
			RelevanceScore: e.index.Similarity(sc.Distance),
		})
	}
	return citations
}

// Stats reports the current index size. Failures degrade to an error
// status rather than failing the call.
func (e *Engine) Stats(ctx context.Context) models.Stats {
	count, err := e.index.Count(ctx)
	if err != nil {
		e.log.Error("stats lookup failed", "error", err)
		return models.Stats{Status: models.IndexError}
	}
	status := models.IndexActive
	if count == 0 {
		status = models.IndexEmpty
	}
	return models.Stats{TotalChunks: count, Status: status}
}

// lockDocument serializes mutating operations per logical document id.
func (e *Engine) lockDocument(documentID string) func() {
	e.docMu.Lock()
	m, ok := e.docLocks[documentID]
	if !ok {
		m = &sync.Mutex{}
		e.docLocks[documentID] = m
	}
	e.docMu.Unlock()

	m.Lock()
	return m.Unlock
}

// IsNotFound reports whether err is a missing-document failure.
func IsNotFound(err error) bool {
	var nf *models.NotFoundError
	return errors.As(err, &nf)
}

// IsUnsupportedFormat reports whether err is a format-dispatch failure.
func IsUnsupportedFormat(err error) bool {
	var uf *models.UnsupportedFormatError
	return errors.As(err, &uf)
}
