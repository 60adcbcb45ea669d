package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fundsight/ragengine/pkg/classifier"
)

func TestIsMethodologyQuestion(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{
			name:  "typo in ensure still matches",
			query: "How do you wnsure that these entities are from investment domains?",
			want:  true,
		},
		{
			name:  "imperative without how opener",
			query: "Ensure these entities are from investment domain",
			want:  true,
		},
		{
			name:  "verify with domain phrase",
			query: "How can you verify entities belong to investment domain?",
			want:  true,
		},
		{
			name:  "methodology noun instead of how",
			query: "What is the validation process you use to check these entities?",
			want:  true,
		},
		{
			name:  "explain how variant",
			query: "Explain how you validate that an entity belongs to the right category",
			want:  true,
		},
		{
			name:  "regular entity lookup",
			query: "Show me custodian entities",
			want:  false,
		},
		{
			name:  "entity question without assurance or domain",
			query: "Which entities are mentioned in the uploaded documents?",
			want:  false,
		},
		{
			name:  "how question without entities",
			query: "How do you check the weather?",
			want:  false,
		},
		{
			name:  "empty query",
			query: "",
			want:  false,
		},
		{
			name:  "case insensitive",
			query: "HOW DO YOU VERIFY THAT THESE ENTITIES BELONG TO THE INVESTMENT DOMAIN?",
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsMethodologyQuestion(tt.query))
		})
	}
}

func TestExplanationIsNonRevealing(t *testing.T) {
	assert.NotEmpty(t, classifier.Explanation)
	assert.NotContains(t, classifier.Explanation, "pattern")
	assert.NotContains(t, classifier.Explanation, "keyword")
}
