package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/pkg/extract"
)

// Ingest commits raw text content to the index under a fresh logical
// document id.
func (e *Engine) Ingest(ctx context.Context, content, name string, metadata map[string]string) (*models.IngestResult, error) {
	documentID := uuid.NewString()
	pages := []models.Page{{Text: content}}

	created, err := e.commit(ctx, documentID, name, pages, metadata)
	if err != nil {
		return nil, err
	}

	e.log.Info("document ingested", "document_id", documentID, "name", name, "chunks", created)
	return &models.IngestResult{DocumentID: documentID, ChunksCreated: created}, nil
}

// Upload extracts text from a file payload by its declared type, stages the
// raw payload, and indexes the result. Unsupported types fail before any
// side effect.
func (e *Engine) Upload(ctx context.Context, filename string, data []byte) (*models.IngestResult, error) {
	pages, err := extract.Extract(filename, data)
	if err != nil {
		return nil, err
	}

	if e.staging != nil {
		if _, err := e.staging.Save(filename, data); err != nil {
			e.log.Warn("failed to stage upload", "filename", filename, "error", err)
		}
	}

	documentID := uuid.NewString()
	created, err := e.commit(ctx, documentID, filename, pages, nil)
	if err != nil {
		return nil, err
	}

	e.log.Info("file processed", "document_id", documentID, "filename", filename, "chunks", created)
	return &models.IngestResult{DocumentID: documentID, ChunksCreated: created}, nil
}

// Update replaces the content of an existing logical document: delete all
// of its chunks, then re-ingest under the same id with indices from zero.
// Caller metadata merges over stored metadata, caller values winning. The
// two steps are serialized per document id but not atomic; a failure
// between them leaves the document absent.
func (e *Engine) Update(ctx context.Context, documentID, content, name string, metadata map[string]string) (*models.UpdateResult, error) {
	unlock := e.lockDocument(documentID)
	defer unlock()

	info, err := e.index.Document(ctx, documentID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(info.Metadata)+len(metadata))
	for k, v := range info.Metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	if name == "" {
		name = info.SourceName
	}

	if _, err := e.index.DeleteDocument(ctx, documentID); err != nil {
		return nil, err
	}

	created, err := e.commit(ctx, documentID, name, []models.Page{{Text: content}}, merged)
	if err != nil {
		return nil, err
	}

	e.log.Info("document updated", "document_id", documentID, "chunks", created)
	return &models.UpdateResult{DocumentID: documentID, ChunksCreated: created}, nil
}

// Delete removes every chunk of the logical document.
func (e *Engine) Delete(ctx context.Context, documentID string) (*models.DeleteResult, error) {
	unlock := e.lockDocument(documentID)
	defer unlock()

	deleted, err := e.index.DeleteDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, &models.NotFoundError{DocumentID: documentID}
	}

	e.log.Info("document deleted", "document_id", documentID, "chunks", deleted)
	return &models.DeleteResult{DocumentID: documentID, ChunksDeleted: deleted}, nil
}

// Clear wipes the whole index and purges staged uploads.
func (e *Engine) Clear(ctx context.Context) (*models.ClearResult, error) {
	count, err := e.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.index.Clear(ctx); err != nil {
		return nil, err
	}

	files := 0
	if e.staging != nil {
		files, err = e.staging.Purge()
		if err != nil {
			e.log.Warn("failed to purge staged uploads", "error", err)
		}
	}

	e.log.Info("knowledge base cleared", "chunks_removed", count, "files_removed", files)
	return &models.ClearResult{ChunksRemoved: count, FilesRemoved: files}, nil
}

// commit chunks the extracted pages, stamps ordering metadata, and adds
// everything to the index in one call. Native 0-based page hints become
// 1-based here. A partial batch failure is not rolled back; the inserted
// prefix stays in the index (known gap, reported to the caller).
func (e *Engine) commit(ctx context.Context, documentID, name string, pages []models.Page, metadata map[string]string) (int, error) {
	now := time.Now().UTC()

	var chunks []models.Chunk
	for _, page := range pages {
		var pageNum *int
		if page.Number != nil {
			n := *page.Number + 1
			pageNum = &n
		}
		for _, text := range e.chunker.Split(page.Text) {
			chunks = append(chunks, models.Chunk{
				DocumentID: documentID,
				SourceName: name,
				Text:       text,
				Page:       pageNum,
				IngestedAt: now,
				Metadata:   metadata,
			})
		}
	}

	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s_%d", documentID, i)
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = len(chunks)
	}

	if err := e.index.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
