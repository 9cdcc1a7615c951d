package episodic

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/cogito/internal/text"
	"go.uber.org/zap"
)

// Relevance scoring weights and consolidation thresholds.
const (
	keywordWeight  = 0.5
	recencyWeight  = 0.2
	strengthWeight = 0.3

	maxResults = 10

	strengthenRetrievals = 3
	strengthenValence    = 0.7
	strengthenFactor     = 1.1
	weakenStrength       = 0.3
	weakenFactor         = 0.9
)

// Store is the long-term episodic record store. Traces are kept in a primary
// table plus three indexes: calendar day, context key:value pair, and
// emotional-valence band. All three are updated together under the store lock,
// so no partial-index state is ever visible to a caller.
type Store struct {
	mu      sync.RWMutex
	traces  map[string]*Trace
	byDay   map[string][]string
	byCtx   map[string][]string
	byBand  map[ValenceBand][]string
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewStore creates an empty episodic store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		traces:  make(map[string]*Trace),
		byDay:   make(map[string][]string),
		byCtx:   make(map[string][]string),
		byBand:  make(map[ValenceBand][]string),
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Store inserts a trace and indexes it. Missing fields get defaults: id,
// timestamp, and an encoding strength of 0.7.
func (s *Store) Store(trace *Trace) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trace.ID == "" {
		trace.ID = uuid.New().String()
	}
	if trace.MemoryType == "" {
		trace.MemoryType = "episodic"
	}
	if trace.EncodingStrength == 0 {
		trace.EncodingStrength = 0.7
	}
	if trace.Temporal.Timestamp.IsZero() {
		trace.Temporal.Timestamp = s.nowFunc()
	}
	if trace.LastAccessed.IsZero() {
		trace.LastAccessed = trace.Temporal.Timestamp
	}

	s.traces[trace.ID] = trace
	s.index(trace)

	s.logger.Debug("stored episodic trace",
		zap.String("id", trace.ID),
		zap.String("day", dayKey(trace.Temporal.Timestamp)),
		zap.Float64("valence", trace.EmotionalValence))
	return trace.ID
}

// index adds a trace to all buckets implied by its field values.
// Caller holds the lock.
func (s *Store) index(trace *Trace) {
	day := dayKey(trace.Temporal.Timestamp)
	s.byDay[day] = append(s.byDay[day], trace.ID)

	for k, v := range trace.Temporal.Context {
		key := k + ":" + v
		s.byCtx[key] = append(s.byCtx[key], trace.ID)
	}

	band := valenceBand(trace.EmotionalValence)
	s.byBand[band] = append(s.byBand[band], trace.ID)
}

// Retrieve returns the top traces matching the query, ranked by a weighted
// blend of keyword overlap, recency, and encoding strength. Retrieval is a
// reinforcing side effect: matched traces get their retrieval count and
// last-accessed time updated. An empty candidate set returns an empty list.
func (s *Store) Retrieve(q Query) []Retrieved {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := s.candidates(q)
	if len(candidates) == 0 {
		return nil
	}

	now := s.nowFunc()
	results := make([]Retrieved, 0, len(candidates))
	for id := range candidates {
		trace, ok := s.traces[id]
		if !ok {
			// Index entry for a trace no longer in the primary table:
			// skipped, never a fault.
			continue
		}
		trace.RetrievalCount++
		trace.LastAccessed = now
		results = append(results, Retrieved{
			Trace:     trace,
			Relevance: s.relevance(trace, q, now),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Trace.EncodingStrength > results[j].Trace.EncodingStrength
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// candidates intersects the index lookups for every filter present.
// Caller holds the lock.
func (s *Store) candidates(q Query) map[string]bool {
	all := make(map[string]bool, len(s.traces))
	for id := range s.traces {
		all[id] = true
	}

	if q.After != nil || q.Before != nil {
		timeSet := make(map[string]bool)
		for day, ids := range s.byDay {
			d, err := time.Parse("2006-01-02", day)
			if err != nil {
				continue
			}
			if q.After != nil && d.Before(q.After.Truncate(24*time.Hour)) {
				continue
			}
			if q.Before != nil && d.After(*q.Before) {
				continue
			}
			for _, id := range ids {
				timeSet[id] = true
			}
		}
		all = intersect(all, timeSet)
	}

	if len(q.Context) > 0 {
		ctxSet := make(map[string]bool)
		for k, v := range q.Context {
			for _, id := range s.byCtx[k+":"+v] {
				ctxSet[id] = true
			}
		}
		all = intersect(all, ctxSet)
	}

	if len(q.Bands) > 0 {
		bandSet := make(map[string]bool)
		for _, band := range q.Bands {
			for _, id := range s.byBand[band] {
				bandSet[id] = true
			}
		}
		all = intersect(all, bandSet)
	}

	return all
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for id := range a {
		if b[id] {
			out[id] = true
		}
	}
	return out
}

// relevance blends keyword overlap (0.5), recency decay over days (0.2), and
// current encoding strength (0.3).
func (s *Store) relevance(trace *Trace, q Query, now time.Time) float64 {
	var keyword float64
	if len(q.Keywords) > 0 {
		data, err := json.Marshal(trace.Payload)
		if err == nil {
			keyword = text.OverlapRatio(q.Keywords, text.Set(text.Tokenize(string(data))))
		}
	}

	age := now.Sub(trace.Temporal.Timestamp).Seconds()
	if age < 0 {
		age = 0
	}
	recency := 1.0 / (1.0 + age/86400)

	return keywordWeight*keyword + recencyWeight*recency + strengthWeight*trace.EncodingStrength
}

// Consolidate strengthens traces that are frequently retrieved or emotionally
// salient, and decays untouched weak ones. Returns the count strengthened.
// Encoding strength stays within [0, 1] for any input distribution.
func (s *Store) Consolidate() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	strengthened := 0
	for _, trace := range s.traces {
		switch {
		case trace.RetrievalCount > strengthenRetrievals ||
			trace.EmotionalValence > strengthenValence ||
			trace.EmotionalValence < -strengthenValence:
			trace.EncodingStrength *= strengthenFactor
			if trace.EncodingStrength > 1.0 {
				trace.EncodingStrength = 1.0
			}
			strengthened++
		case trace.RetrievalCount == 0 && trace.EncodingStrength < weakenStrength:
			trace.EncodingStrength *= weakenFactor
		}
	}

	s.logger.Debug("consolidation pass complete",
		zap.Int("strengthened", strengthened),
		zap.Int("total", len(s.traces)))
	return strengthened
}

// Len returns the number of traces stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

// Get looks up a trace by id without retrieval side effects.
func (s *Store) Get(id string) (*Trace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traces[id]
	return t, ok
}

// Snapshot returns copies of all traces, for persistence.
func (s *Store) Snapshot() []*Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Trace, 0, len(s.traces))
	for _, t := range s.traces {
		cp := *t
		out = append(out, &cp)
	}
	return out
}

// Restore replaces the store contents and rebuilds every index from the
// traces' current field values.
func (s *Store) Restore(traces []*Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces = make(map[string]*Trace, len(traces))
	s.byDay = make(map[string][]string)
	s.byCtx = make(map[string][]string)
	s.byBand = make(map[ValenceBand][]string)

	for _, t := range traces {
		if t.ID == "" {
			continue
		}
		s.traces[t.ID] = t
		s.index(t)
	}
}
