package engine

import (
	"strings"

	"github.com/fundsight/ragengine/internal/models"
)

const ragInstruction = `You are a helpful AI assistant. Use the following pieces of context to answer the question at the end.
If you can find ANY relevant information in the context, use it to provide a helpful answer.
If you're not completely certain, still try to provide helpful information based on what's available.
Only say you don't know if there is absolutely no relevant information in the context.`

const directInstruction = "You are a helpful AI assistant."

const noDocumentsMessage = "I'm in RAG mode but no documents have been uploaded yet. " +
	"Please upload some documents first, or toggle RAG mode off " +
	"to chat without document context."

// contextBlock concatenates retrieved chunk texts with their source names.
func contextBlock(results []models.ScoredChunk) string {
	var sb strings.Builder
	for _, sc := range results {
		sb.WriteString("Source: ")
		sb.WriteString(sc.Chunk.SourceName)
		sb.WriteString("\n")
		sb.WriteString(sc.Chunk.Text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

func buildRAGPrompt(context string, history []models.Turn, question string) []models.Turn {
	var sb strings.Builder
	sb.WriteString(ragInstruction)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(context)

	turns := make([]models.Turn, 0, len(history)+2)
	turns = append(turns, models.Turn{Role: models.RoleSystem, Content: sb.String()})
	turns = append(turns, history...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Content: question})
	return turns
}

func buildDirectPrompt(history []models.Turn, message string) []models.Turn {
	turns := make([]models.Turn, 0, len(history)+2)
	turns = append(turns, models.Turn{Role: models.RoleSystem, Content: directInstruction})
	turns = append(turns, history...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Content: message})
	return turns
}
