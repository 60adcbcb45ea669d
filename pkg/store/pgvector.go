package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/internal/types"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// VectorStore is the pgvector-backed index. The store owns its embedding
// function: texts are embedded on the way in (Add) and queries on the way
// out (Search). Every mutating call commits before returning.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
}

var _ types.VectorIndex = (*VectorStore)(nil)

func NewWithConfig(config VectorStoreConfig, embedder types.Embedder) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "rag_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, &models.StorageError{Op: "connect", Err: err}
	}

	vs := &VectorStore{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vs.initialize(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	if _, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return &models.StorageError{Op: "create extension", Err: err}
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			source_name TEXT NOT NULL,
			content TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			total_chunks INTEGER NOT NULL,
			page INTEGER,
			ingested_at TIMESTAMPTZ NOT NULL,
			embedding vector(%d),
			metadata JSONB
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return &models.StorageError{Op: "create table", Err: err}
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return &models.StorageError{Op: "create index", Err: err}
	}

	createDocIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_document_id_idx ON %s (document_id)`,
		vs.config.TableName, vs.config.TableName)

	if _, err := vs.pool.Exec(ctx, createDocIndex); err != nil {
		return &models.StorageError{Op: "create index", Err: err}
	}

	return nil
}

// Add embeds and persists the chunks in one transaction.
func (vs *VectorStore) Add(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = sanitizeUTF8(chunk.Text)
	}

	embeddings, err := vs.embedder.Embed(ctx, texts)
	if err != nil {
		return &models.StorageError{Op: "embed", Err: err}
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return &models.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, source_name, content, chunk_index, total_chunks, page, ingested_at, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		vs.config.TableName)

	for i, chunk := range chunks {
		_, err = tx.Exec(ctx, stmt,
			chunk.ID,
			chunk.DocumentID,
			chunk.SourceName,
			texts[i],
			chunk.ChunkIndex,
			chunk.TotalChunks,
			chunk.Page,
			chunk.IngestedAt,
			pgvector.NewVector(embeddings[i]),
			chunk.Metadata,
		)
		if err != nil {
			return &models.StorageError{Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &models.StorageError{Op: "commit", Err: err}
	}

	return nil
}

// Search embeds the query and returns the k nearest chunks ordered by
// cosine distance, closest first.
func (vs *VectorStore) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	embeddings, err := vs.embedder.Embed(ctx, []string{sanitizeUTF8(query)})
	if err != nil {
		return nil, &models.StorageError{Op: "embed query", Err: err}
	}

	stmt := fmt.Sprintf(`
		SELECT id, document_id, source_name, content, chunk_index, total_chunks, page, ingested_at, metadata,
			embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, stmt, pgvector.NewVector(embeddings[0]), k)
	if err != nil {
		return nil, &models.StorageError{Op: "search", Err: err}
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var sc models.ScoredChunk
		err := rows.Scan(
			&sc.Chunk.ID,
			&sc.Chunk.DocumentID,
			&sc.Chunk.SourceName,
			&sc.Chunk.Text,
			&sc.Chunk.ChunkIndex,
			&sc.Chunk.TotalChunks,
			&sc.Chunk.Page,
			&sc.Chunk.IngestedAt,
			&sc.Chunk.Metadata,
			&sc.Distance,
		)
		if err != nil {
			return nil, &models.StorageError{Op: "scan", Err: err}
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "search", Err: err}
	}

	return results, nil
}

// DeleteDocument removes every chunk of the logical document and reports
// how many were deleted.
func (vs *VectorStore) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", vs.config.TableName)
	tag, err := vs.pool.Exec(ctx, stmt, documentID)
	if err != nil {
		return 0, &models.StorageError{Op: "delete", Err: err}
	}
	return int(tag.RowsAffected()), nil
}

// Document returns the stored view of one logical document, or NotFoundError
// if no chunks carry the id.
func (vs *VectorStore) Document(ctx context.Context, documentID string) (*models.DocumentInfo, error) {
	stmt := fmt.Sprintf(`
		SELECT source_name, metadata
		FROM %s
		WHERE document_id = $1
		ORDER BY chunk_index
		LIMIT 1`,
		vs.config.TableName)

	info := &models.DocumentInfo{DocumentID: documentID}
	err := vs.pool.QueryRow(ctx, stmt, documentID).Scan(&info.SourceName, &info.Metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{DocumentID: documentID}
	}
	if err != nil {
		return nil, &models.StorageError{Op: "lookup", Err: err}
	}

	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE document_id = $1", vs.config.TableName)
	if err := vs.pool.QueryRow(ctx, countStmt, documentID).Scan(&info.ChunkCount); err != nil {
		return nil, &models.StorageError{Op: "lookup", Err: err}
	}

	return info, nil
}

// Clear drops the collection and recreates it empty.
func (vs *VectorStore) Clear(ctx context.Context) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt); err != nil {
		return &models.StorageError{Op: "clear", Err: err}
	}
	return vs.initialize(ctx)
}

func (vs *VectorStore) Count(ctx context.Context) (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", vs.config.TableName)
	var count int
	if err := vs.pool.QueryRow(ctx, stmt).Scan(&count); err != nil {
		return 0, &models.StorageError{Op: "count", Err: err}
	}
	return count, nil
}

// Similarity converts cosine distance to a [0,1] relevance score, higher =
// more relevant. Other backends with different distance semantics supply
// their own mapping.
func (vs *VectorStore) Similarity(distance float64) float64 {
	if distance > 0 {
		return 1.0 / (1.0 + distance)
	}
	return 1.0
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
