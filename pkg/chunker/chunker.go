package chunker

import (
	"strings"
)

// DefaultChunkSize is the target chunk size in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the number of characters shared between adjacent
// chunks.
const DefaultChunkOverlap = 200

// defaultSeparators, coarsest first. The empty separator means hard
// character cuts.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

type ChunkerConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Chunker splits text into overlapping segments using a separator-priority
// strategy: paragraph breaks first, then lines, then words, then hard cuts.
// Splitting is deterministic; the same input and config always produce the
// same chunk sequence.
type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) Chunker {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = DefaultChunkOverlap
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 4
	}
	if len(config.Separators) == 0 {
		config.Separators = defaultSeparators
	}
	return Chunker{config: config}
}

func New() Chunker {
	return NewWithConfig(ChunkerConfig{})
}

// Split chunks the given text. Empty or blank input yields no chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.segment(text, c.config.Separators)
	return c.merge(pieces)
}

// segment recursively cuts text into pieces no longer than the chunk size,
// using the coarsest separator whose pieces fit and falling back to the next
// one for oversized pieces. The empty separator cuts at exact character
// boundaries, stepping size-overlap so adjacent cuts share exactly the
// configured overlap.
func (c *Chunker) segment(text string, seps []string) []string {
	if len(text) <= c.config.ChunkSize {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return c.hardCut(text)
	}

	var out []string
	for _, part := range strings.Split(text, sep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(part) <= c.config.ChunkSize {
			out = append(out, part)
		} else {
			out = append(out, c.segment(part, seps[1:])...)
		}
	}
	return out
}

func (c *Chunker) hardCut(text string) []string {
	step := c.config.ChunkSize - c.config.ChunkOverlap
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + c.config.ChunkSize
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}
		out = append(out, text[start:end])
	}
	return out
}

// merge packs pieces into chunks up to the target size, seeding each new
// chunk with the tail of the previous one to preserve context across
// boundaries. Pieces produced by hard cuts are already full chunks and
// carry their overlap from segment.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder

	flush := func(seed bool) {
		chunk := strings.TrimSpace(cur.String())
		cur.Reset()
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if seed && c.config.ChunkOverlap > 0 && len(chunk) > c.config.ChunkOverlap {
			cur.WriteString(chunk[len(chunk)-c.config.ChunkOverlap:])
		}
	}

	for _, piece := range pieces {
		if len(piece) >= c.config.ChunkSize {
			flush(false)
			chunks = append(chunks, piece)
			continue
		}
		if cur.Len() > 0 && cur.Len()+1+len(piece) > c.config.ChunkSize {
			flush(true)
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(piece)
	}
	flush(false)

	return chunks
}
