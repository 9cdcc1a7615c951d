package reasoning

import (
	"encoding/json"
	"strings"

	"github.com/nidhogg/cogito/internal/text"
)

// Classifier maps a task's text and context to a problem category.
// Implementations can swap keyword indicators for embeddings without touching
// the router contract.
type Classifier interface {
	Classify(description string, context map[string]interface{}) Category
}

// KeywordClassifier scores each category's indicator list against the task
// text and takes the max. Single-word indicators match whole tokens, phrase
// indicators match substrings. Ties resolve to Unknown rather than an
// arbitrary winner.
type KeywordClassifier struct {
	indicators map[Category][]string
}

// NewKeywordClassifier builds a classifier with the default indicator table.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{indicators: map[Category][]string{
		CategoryLogical:      {"if", "then", "because", "therefore", "logic", "prove", "deduce", "expect"},
		CategoryCreative:     {"creative", "new way", "innovative", "brainstorm", "imagine", "alternative"},
		CategoryMoral:        {"should", "right", "wrong", "ethical", "moral", "fair", "harm"},
		CategoryPhysical:     {"move", "lift", "force", "weight", "space", "object", "physics"},
		CategorySocial:       {"person", "friend", "relationship", "collaborate", "communication", "social"},
		CategoryMathematical: {"calculate", "number", "math", "equation", "sequence"},
		CategoryPlanning:     {"plan", "goal", "steps", "organize", "schedule", "strategy", "accomplish"},
	}}
}

// Register replaces the indicator list for a category.
func (c *KeywordClassifier) Register(cat Category, indicators []string) {
	c.indicators[cat] = indicators
}

// Classify scores indicator matches in the combined description+context
// text. No match, or a tie between top categories, yields Unknown.
func (c *KeywordClassifier) Classify(description string, context map[string]interface{}) Category {
	combined := strings.ToLower(description)
	if len(context) > 0 {
		if data, err := json.Marshal(context); err == nil {
			combined += " " + strings.ToLower(string(data))
		}
	}
	tokens := text.Set(text.Tokenize(combined))

	best := CategoryUnknown
	bestScore := 0
	tied := false
	for cat, indicators := range c.indicators {
		score := 0
		for _, ind := range indicators {
			if strings.ContainsRune(ind, ' ') {
				if strings.Contains(combined, ind) {
					score++
				}
			} else if tokens[ind] {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = cat, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return CategoryUnknown
	}
	return best
}
