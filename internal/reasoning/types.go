package reasoning

import "time"

// Mode is the strategy family used to answer a task.
type Mode string

const (
	ModeSymbolic Mode = "symbolic"
	ModeNeural   Mode = "neural"
	ModeHybrid   Mode = "hybrid"
	ModeAdaptive Mode = "adaptive"
)

// Category classifies a problem for reasoning mode selection.
type Category string

const (
	CategoryLogical      Category = "logical"
	CategoryCreative     Category = "creative"
	CategoryMoral        Category = "moral"
	CategoryPhysical     Category = "physical"
	CategorySocial       Category = "social"
	CategoryMathematical Category = "mathematical"
	CategoryPlanning     Category = "planning"
	CategoryUnknown      Category = "unknown"
)

// SymbolicRule is one condition→conclusion rule used by the symbolic branch.
// Rules are only reinforced on success, never penalized on failure; the
// asymmetry keeps a run of bad luck from starving the rule base.
type SymbolicRule struct {
	ID            string    `json:"id"`
	Condition     string    `json:"condition"`
	Conclusion    string    `json:"conclusion"`
	Confidence    float64   `json:"confidence"`
	EvidenceCount int       `json:"evidence_count"`
	Category      string    `json:"category"`
	Created       time.Time `json:"created"`
}

// NeuralPattern is one learned feature→prediction association used by the
// pattern branch.
type NeuralPattern struct {
	ID               string    `json:"id"`
	InputFeatures    []string  `json:"input_features"`
	OutputPrediction string    `json:"output_prediction"`
	Confidence       float64   `json:"confidence"`
	SuccessRate      float64   `json:"success_rate"`
	UsageCount       int       `json:"usage_count"`
	ContextTags      []string  `json:"context_tags,omitempty"`
	LastUsed         time.Time `json:"last_used"`
}

// Episode is the immutable record of one routed task. Success stays nil
// until feedback arrives, then is written exactly once.
type Episode struct {
	ID           string        `json:"id"`
	Problem      string        `json:"problem"`
	Category     Category      `json:"category"`
	Mode         Mode          `json:"mode"`
	RulesApplied []string      `json:"rules_applied,omitempty"`
	PatternsUsed []string      `json:"patterns_used,omitempty"`
	Confidence   float64       `json:"confidence"`
	Success      *bool         `json:"success,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	Duration     time.Duration `json:"duration"`
}

// branchResult is the output of one reasoning branch (symbolic or neural).
type branchResult struct {
	chain         []string
	rulesApplied  []string
	patternsUsed  []string
	confidence    float64
	success       bool
	symbolicShare float64
	neuralShare   float64
}

// Result is the router's output for one task.
type Result struct {
	EpisodeID            string        `json:"episode_id"`
	Category             Category      `json:"category"`
	Mode                 Mode          `json:"mode"`
	Chain                []string      `json:"reasoning_trace"`
	RulesApplied         []string      `json:"rules_applied,omitempty"`
	PatternsUsed         []string      `json:"patterns_used,omitempty"`
	Confidence           float64       `json:"confidence"`
	Success              bool          `json:"success"`
	SymbolicContribution float64       `json:"symbolic_contribution,omitempty"`
	NeuralContribution   float64       `json:"neural_contribution,omitempty"`
	Duration             time.Duration `json:"duration"`
}
