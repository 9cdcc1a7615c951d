package workmem

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/cogito/internal/text"
	"go.uber.org/zap"
)

// Item is one entry in the working memory buffer.
type Item struct {
	ID              string                 `json:"id"`
	Payload         map[string]interface{} `json:"payload"`
	AttentionWeight float64                `json:"attention_weight"`
	AccessCount     int                    `json:"access_count"`
	StoredAt        time.Time              `json:"stored_at"`
}

// Retrieved pairs an item with its relevance to the query that found it.
type Retrieved struct {
	Item      *Item   `json:"item"`
	Relevance float64 `json:"relevance"`
}

// Options controls buffer behavior.
type Options struct {
	Capacity           int     // max items held, 0 falls back to default (Miller's 7)
	RelevanceThreshold float64 // min token-overlap ratio to return an item
	RetrievalBoost     float64 // attention multiplier applied on retrieval
	UpdateBoost        float64 // attention multiplier applied on update
	RehearsalBoost     float64 // attention multiplier applied on rehearsal
	RehearsalFloor     float64 // items at or below this weight are not rehearsed
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Capacity:           7,
		RelevanceThreshold: 0.3,
		RetrievalBoost:     1.1,
		UpdateBoost:        1.05,
		RehearsalBoost:     1.02,
		RehearsalFloor:     0.5,
	}
}

// Store is a capacity-bounded, attention-weighted short-term buffer.
// Store never rejects on a full buffer: the least attended item is evicted.
type Store struct {
	mu     sync.RWMutex
	items  []*Item
	opts   Options
	logger *zap.Logger
}

// NewStore creates a working memory buffer.
func NewStore(opts Options, logger *zap.Logger) *Store {
	if opts.Capacity <= 0 {
		opts = DefaultOptions()
	}
	return &Store{
		items:  make([]*Item, 0, opts.Capacity),
		opts:   opts,
		logger: logger,
	}
}

// Store inserts a payload, evicting the lowest-attention item when full.
// Ties on attention weight evict the oldest item.
func (s *Store) Store(payload map[string]interface{}) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) >= s.opts.Capacity {
		evicted := s.evictLeastAttended()
		s.logger.Debug("working memory full, evicted item",
			zap.String("id", evicted.ID),
			zap.Float64("weight", evicted.AttentionWeight))
	}

	item := &Item{
		ID:              uuid.New().String(),
		Payload:         payload,
		AttentionWeight: 1.0,
		StoredAt:        time.Now(),
	}
	s.items = append(s.items, item)
	return item.ID
}

// Retrieve returns items relevant to the query, ranked descending by
// relevance x attention weight. Retrieval reinforces attention: every
// returned item gets its weight boosted and access count incremented.
func (s *Store) Retrieve(query string) []Retrieved {
	queryTokens := text.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Retrieved
	for _, item := range s.items {
		relevance := text.OverlapRatio(queryTokens, payloadTokens(item.Payload))
		if relevance > s.opts.RelevanceThreshold {
			item.AttentionWeight *= s.opts.RetrievalBoost
			item.AccessCount++
			matched = append(matched, Retrieved{Item: item, Relevance: relevance})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Relevance*matched[i].Item.AttentionWeight >
			matched[j].Relevance*matched[j].Item.AttentionWeight
	})
	return matched
}

// Update merges a patch into an item's payload. Returns false when the id is
// not in the buffer.
func (s *Store) Update(id string, patch map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			for k, v := range patch {
				item.Payload[k] = v
			}
			item.AccessCount++
			item.AttentionWeight *= s.opts.UpdateBoost
			return true
		}
	}
	return false
}

// Rehearse applies a small passive reinforcement boost to every item above
// the rehearsal floor. Returns the number of items rehearsed.
func (s *Store) Rehearse() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rehearsed := 0
	for _, item := range s.items {
		if item.AttentionWeight > s.opts.RehearsalFloor {
			item.AttentionWeight *= s.opts.RehearsalBoost
			rehearsed++
		}
	}
	return rehearsed
}

// Len returns the number of items currently buffered.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Capacity returns the buffer's item limit.
func (s *Store) Capacity() int {
	return s.opts.Capacity
}

// Snapshot returns copies of all buffered items, for persistence.
func (s *Store) Snapshot() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Item, len(s.items))
	for i, item := range s.items {
		cp := *item
		out[i] = &cp
	}
	return out
}

// Restore replaces the buffer contents, keeping at most Capacity items.
// Excess items are dropped lowest-attention first.
func (s *Store) Restore(items []*Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	s.items = append(s.items, items...)
	for len(s.items) > s.opts.Capacity {
		s.evictLeastAttended()
	}
}

// payloadTokens flattens a payload into a token set for relevance matching.
func payloadTokens(payload map[string]interface{}) map[string]bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return text.Set(text.Tokenize(string(data)))
}

// evictLeastAttended removes and returns the item with the lowest attention
// weight, breaking ties by oldest StoredAt. Caller holds the lock.
func (s *Store) evictLeastAttended() *Item {
	idx := 0
	for i, item := range s.items[1:] {
		cur := s.items[idx]
		if item.AttentionWeight < cur.AttentionWeight ||
			(item.AttentionWeight == cur.AttentionWeight && item.StoredAt.Before(cur.StoredAt)) {
			idx = i + 1
		}
	}
	evicted := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return evicted
}
