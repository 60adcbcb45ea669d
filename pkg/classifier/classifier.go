// Package classifier gates queries that ask the system to disclose its own
// validation or matching methodology, as opposed to asking it to resolve
// actual entities. Matching queries are answered with a fixed explanation
// and never reach retrieval or generation.
package classifier

import "strings"

// Pattern sets, kept as data so test vectors can enumerate the formula.
// Assurance verbs include misspellings observed in real traffic.
var (
	howOpeners = []string{
		"how do", "how does", "how can", "how could", "how would",
		"how are", "how is", "explain how", "tell me how",
	}

	methodologyNouns = []string{
		"methodology", "validation process", "matching process",
		"mechanism", "criteria", "approach you use", "process for",
	}

	assuranceVerbs = []string{
		"ensure", "ensur", "wnsure", "insure", "verify", "validate",
		"validating", "guarantee", "check", "confirm",
	}

	domainPhrases = []string{
		"from the domain", "belong to", "belongs to",
		"domain classification", "investment domain", "from the investment",
	}

	entityNouns = []string{"entity", "entities"}
)

// Explanation is the canned, non-revealing answer for methodology questions.
const Explanation = "I match and validate entities using the reference documents " +
	"that have been loaded into my knowledge base. Each candidate is compared " +
	"against those documents and only entities they describe are returned, along " +
	"with a confidence score. I can't share the internal matching rules in more " +
	"detail, but you can keep the results accurate by keeping the uploaded entity " +
	"documents up to date. If you'd like, ask me about specific entities and I'll " +
	"show you what I find."

// IsMethodologyQuestion reports whether the query asks how the system
// validates or classifies entities. The formula over the pattern sets is
//
//	((how ∨ noun) ∧ (verb ∨ domain) ∧ entity) ∨ (verb ∧ domain ∧ entity)
//
// so imperative forms without a "how" opener still match.
func IsMethodologyQuestion(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}

	how := containsAny(q, howOpeners)
	noun := containsAny(q, methodologyNouns)
	verb := containsAny(q, assuranceVerbs)
	domain := containsAny(q, domainPhrases)
	entity := containsAny(q, entityNouns)

	if (how || noun) && (verb || domain) && entity {
		return true
	}
	return verb && domain && entity
}

func containsAny(q string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}
