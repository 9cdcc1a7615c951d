package episodic

import "time"

// Trace is one durable record of a past event, indexed by time, context,
// and emotional valence.
type Trace struct {
	ID               string                 `json:"id"`
	Payload          map[string]interface{} `json:"payload"`
	MemoryType       string                 `json:"memory_type"`
	EncodingStrength float64                `json:"encoding_strength"`
	RetrievalCount   int                    `json:"retrieval_count"`
	LastAccessed     time.Time              `json:"last_accessed"`
	EmotionalValence float64                `json:"emotional_valence"`
	Temporal         TemporalContext        `json:"temporal_context"`
}

// TemporalContext anchors a trace to when and under what circumstances it
// was recorded.
type TemporalContext struct {
	Timestamp time.Time         `json:"timestamp"`
	Context   map[string]string `json:"context,omitempty"`
}

// ValenceBand names the fixed emotional ranges used for indexing.
type ValenceBand string

const (
	BandVeryPositive ValenceBand = "very_positive"
	BandPositive     ValenceBand = "positive"
	BandNeutral      ValenceBand = "neutral"
	BandNegative     ValenceBand = "negative"
	BandVeryNegative ValenceBand = "very_negative"
)

// valenceBand buckets a valence value into one of the five fixed bands.
func valenceBand(valence float64) ValenceBand {
	switch {
	case valence > 0.5:
		return BandVeryPositive
	case valence > 0.1:
		return BandPositive
	case valence > -0.1:
		return BandNeutral
	case valence > -0.5:
		return BandNegative
	default:
		return BandVeryNegative
	}
}

// dayKey is the temporal index bucket, one per calendar day.
func dayKey(ts time.Time) string {
	return ts.Format("2006-01-02")
}

// Query selects traces by any combination of filters. A missing filter is
// skipped, not treated as match-nothing.
type Query struct {
	Keywords []string          `json:"keywords,omitempty"`
	After    *time.Time        `json:"after,omitempty"`
	Before   *time.Time        `json:"before,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
	Bands    []ValenceBand     `json:"bands,omitempty"`
}

// Retrieved pairs a trace with its relevance to the query that found it.
type Retrieved struct {
	Trace     *Trace  `json:"trace"`
	Relevance float64 `json:"relevance"`
}
