package models

import "time"

// Chunk is a bounded span of document text stored in the vector index
// together with its embedding and ordering metadata. Chunks are immutable
// once created; updates to a document replace its chunks wholesale.
type Chunk struct {
	ID          string
	DocumentID  string
	SourceName  string
	Text        string
	Embedding   []float32
	ChunkIndex  int
	TotalChunks int
	Page        *int
	IngestedAt  time.Time
	Metadata    map[string]string
}

// ScoredChunk pairs a chunk with its index-native distance (lower = closer).
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// DocumentInfo describes one logical document as currently indexed.
type DocumentInfo struct {
	DocumentID string
	SourceName string
	ChunkCount int
	Metadata   map[string]string
}

// Turn is one message in a conversation session.
type Turn struct {
	Role    string
	Content string
}

// Roles used in conversation turns and prompts.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SourceCitation annotates an answer with the document excerpt it drew on.
// RelevanceScore is normalized to [0,1], higher = more relevant.
type SourceCitation struct {
	Excerpt        string  `json:"content"`
	SourceName     string  `json:"filename"`
	Page           *int    `json:"page,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// EntityCandidate is one structured match parsed from model output.
type EntityCandidate struct {
	Name       string  `json:"name"`
	ShortCode  string  `json:"shortCode"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Status values reported alongside chat and entity results. A generation
// failure still produces answer text for the caller, but the status lets
// operators tell a masked failure from a real answer.
const (
	StatusOK               = "ok"
	StatusGenerationFailed = "generation_failed"
)

type ChatResult struct {
	Response  string           `json:"response"`
	Sources   []SourceCitation `json:"sources"`
	SessionID string           `json:"session_id"`
	Status    string           `json:"status"`
}

type EntityMatchResult struct {
	Matches     []EntityCandidate `json:"matches"`
	Explanation string            `json:"explanation"`
	SessionID   string            `json:"session_id"`
	Status      string            `json:"status"`
}

type IngestResult struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

type UpdateResult struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

type DeleteResult struct {
	DocumentID    string `json:"document_id"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

type ClearResult struct {
	ChunksRemoved int `json:"chunks_removed"`
	FilesRemoved  int `json:"files_removed"`
}

// Stats summarizes the index. Status is "active", "empty" or "error".
type Stats struct {
	TotalChunks int    `json:"total_chunks"`
	Status      string `json:"status"`
}

const (
	IndexActive = "active"
	IndexEmpty  = "empty"
	IndexError  = "error"
)

// Page is a unit of extracted text. Number is the extractor-native 0-based
// page index for formats that have pages, or nil for flat text.
type Page struct {
	Text   string
	Number *int
}
