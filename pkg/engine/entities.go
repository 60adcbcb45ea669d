package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/pkg/classifier"
)

const entityInstruction = `You are an entity resolution assistant. Using the reference context, match the user's description to exact entities.
Respond with a single fenced JSON object of the form:

` + "```json" + `
{
  "matches": [
    {"name": "...", "shortCode": "...", "category": "...", "confidence": 0.0}
  ],
  "explanation": "..."
}
` + "```" + `

Confidence must be between 0 and 1. Only include entities supported by the context. If nothing matches, return an empty matches array and explain why.`

const noEntityContext = "No entity reference documents have been uploaded."

// MatchEntities resolves a free-form description to structured entity
// candidates. The methodology gate applies exactly as it does for chat.
// Model output is parsed from the first balanced JSON object in the raw
// text; a parse failure degrades to empty matches with the raw text as
// the explanation.
func (e *Engine) MatchEntities(ctx context.Context, query, sessionID string) (*models.EntityMatchResult, error) {
	if classifier.IsMethodologyQuestion(query) {
		e.log.Info("methodology question intercepted", "session_id", sessionID)
		return &models.EntityMatchResult{
			Matches:     []models.EntityCandidate{},
			Explanation: classifier.Explanation,
			SessionID:   sessionID,
			Status:      models.StatusOK,
		}, nil
	}

	sess := e.sessions.GetOrCreate(sessionID)

	count, err := e.index.Count(ctx)
	if err != nil {
		return nil, err
	}

	contextText := noEntityContext
	if count > 0 {
		// Bias retrieval toward entity-descriptive chunks.
		rewritten := "entity names, short codes and categories relevant to: " + query
		results, err := e.index.Search(ctx, rewritten, e.config.TopK)
		if err != nil {
			return nil, err
		}
		contextText = contextBlock(results)
	}

	turns := []models.Turn{
		{Role: models.RoleSystem, Content: entityInstruction + "\n\nReference context:\n" + contextText},
		{Role: models.RoleUser, Content: query},
	}

	raw, err := e.gen.Generate(ctx, turns)
	if err != nil {
		e.log.Error("entity generation failed", "session_id", sess.ID(), "error", err)
		return &models.EntityMatchResult{
			Matches:     []models.EntityCandidate{},
			Explanation: fmt.Sprintf("I apologize, but I encountered an error: %v", err),
			SessionID:   sess.ID(),
			Status:      models.StatusGenerationFailed,
		}, nil
	}

	matches, explanation := parseEntityResponse(raw)
	return &models.EntityMatchResult{
		Matches:     matches,
		Explanation: explanation,
		SessionID:   sess.ID(),
		Status:      models.StatusOK,
	}, nil
}

type entityResponse struct {
	Matches     []models.EntityCandidate `json:"matches"`
	Explanation string                   `json:"explanation"`
}

// parseEntityResponse extracts the first balanced JSON object from the raw
// model output. Anything unparseable becomes an explanation instead of an
// error.
func parseEntityResponse(raw string) ([]models.EntityCandidate, string) {
	payload := firstJSONObject(raw)
	if payload == "" {
		return []models.EntityCandidate{}, strings.TrimSpace(raw)
	}

	var resp entityResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return []models.EntityCandidate{}, strings.TrimSpace(raw)
	}

	matches := resp.Matches
	if matches == nil {
		matches = []models.EntityCandidate{}
	}
	for i := range matches {
		if matches[i].Confidence < 0 {
			matches[i].Confidence = 0
		}
		if matches[i].Confidence > 1 {
			matches[i].Confidence = 1
		}
	}
	return matches, resp.Explanation
}

// firstJSONObject returns the first balanced {...} substring, tracking
// strings and escapes so braces inside values don't unbalance the scan.
func firstJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
