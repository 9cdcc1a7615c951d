package reasoning

import "strings"

// Concept synonym tables used for soft matching between problem text and
// stored knowledge. Rule conditions tend to be written in causal vocabulary
// while patterns carry broader feature tags, so the two tables diverge
// slightly.

var ruleConcepts = map[string][]string{
	"creative": {"innovative", "new", "novel", "alternative", "brainstorm"},
	"physical": {"move", "force", "object", "weight", "space", "lift"},
	"moral":    {"ethical", "right", "wrong", "should", "fair", "harm"},
	"logical":  {"if", "then", "because", "therefore", "prove", "deduce"},
	"social":   {"people", "person", "friend", "relationship", "communicate"},
	"helping":  {"help", "assist", "support", "aid"},
	"problem":  {"challenge", "issue", "difficulty", "question"},
}

var patternConcepts = map[string][]string{
	"creative":        {"innovative", "new", "novel", "alternative", "brainstorm"},
	"physical":        {"move", "force", "object", "weight", "space", "lift"},
	"moral":           {"ethical", "right", "wrong", "should", "fair", "harm"},
	"logical":         {"if", "then", "because", "therefore", "prove", "deduce"},
	"social":          {"people", "person", "friend", "relationship", "communicate"},
	"learning":        {"learn", "study", "understand", "practice", "improve"},
	"problem_solving": {"solve", "problem", "solution", "approach", "strategy"},
}

// semanticMatches counts concepts that appear (directly or via a synonym) in
// both texts. Both inputs must already be lowercased.
func semanticMatches(concepts map[string][]string, problemText, knowledgeText string) int {
	matches := 0
	for concept, synonyms := range concepts {
		if containsConcept(knowledgeText, concept, synonyms) &&
			containsConcept(problemText, concept, synonyms) {
			matches++
		}
	}
	return matches
}

func containsConcept(s, concept string, synonyms []string) bool {
	if strings.Contains(s, concept) {
		return true
	}
	for _, syn := range synonyms {
		if strings.Contains(s, syn) {
			return true
		}
	}
	return false
}
