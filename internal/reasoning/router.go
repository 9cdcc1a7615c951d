package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/task"
)

// Stats reports the observed success rate of a reasoning mode. The router
// consults it before committing to a category's default mode.
type Stats interface {
	ModeStats(mode Mode) (successRate float64, observations int)
}

const (
	modeOverrideMinObservations = 5
	modeOverrideSuccessFloor    = 0.5

	// Feedback never pushes knowledge confidence outside these bounds.
	knowledgeFloor   = 0.1
	knowledgeCeiling = 1.0
)

// defaultModes maps each problem category to the mode that historically
// handles it best, before any runtime adjustment.
var defaultModes = map[Category]Mode{
	CategoryLogical:      ModeSymbolic,
	CategoryMathematical: ModeSymbolic,
	CategoryPlanning:     ModeSymbolic,
	CategoryCreative:     ModeNeural,
	CategoryPhysical:     ModeHybrid,
	CategorySocial:       ModeHybrid,
	CategoryMoral:        ModeHybrid,
	CategoryUnknown:      ModeAdaptive,
}

// Router classifies problems, dispatches them to a reasoning mode, and learns
// from feedback on past episodes. Safe for concurrent use.
type Router struct {
	mu         sync.Mutex
	rules      map[string]*SymbolicRule
	patterns   map[string]*NeuralPattern
	episodes   map[string]*Episode
	classifier Classifier
	stats      Stats
	logger     *zap.Logger
	nowFunc    func() time.Time
}

// NewRouter builds a router seeded with the foundational knowledge base.
// stats may be nil, in which case category defaults are never overridden.
func NewRouter(logger *zap.Logger, stats Stats) *Router {
	r := &Router{
		rules:      make(map[string]*SymbolicRule),
		patterns:   make(map[string]*NeuralPattern),
		episodes:   make(map[string]*Episode),
		classifier: NewKeywordClassifier(),
		stats:      stats,
		logger:     logger,
		nowFunc:    time.Now,
	}
	seedKnowledge(r)
	return r
}

// SetClassifier swaps the category classifier.
func (r *Router) SetClassifier(c Classifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifier = c
}

// AddRule registers a symbolic rule, replacing any rule with the same ID.
func (r *Router) AddRule(rule SymbolicRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.Created.IsZero() {
		rule.Created = r.nowFunc()
	}
	if rule.EvidenceCount == 0 {
		rule.EvidenceCount = 1
	}
	r.rules[rule.ID] = &rule
}

// AddPattern registers a neural pattern, replacing any pattern with the same ID.
func (r *Router) AddPattern(p NeuralPattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[p.ID] = &p
}

// Reason classifies the problem, picks a reasoning mode, and runs it. The
// returned episode ID accepts later feedback through LearnFromFeedback.
func (r *Router) Reason(description, goal string, context map[string]interface{}) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.nowFunc()
	category := r.classifier.Classify(description, context)
	mode := r.selectMode(category, context)

	problemText := strings.ToLower(description + " " + goal)
	if len(context) > 0 {
		if data, err := json.Marshal(context); err == nil {
			problemText += " " + strings.ToLower(string(data))
		}
	}

	var branch branchResult
	switch mode {
	case ModeSymbolic:
		branch = r.reasonSymbolically(problemText)
	case ModeNeural:
		branch = r.reasonNeurally(problemText)
	case ModeHybrid:
		branch = r.reasonHybrid(problemText, category)
	case ModeAdaptive:
		branch, mode = r.reasonAdaptively(problemText)
	}

	if branch.confidence < 0 {
		branch.confidence = 0
	} else if branch.confidence > 1 {
		branch.confidence = 1
	}
	duration := r.nowFunc().Sub(start)

	episode := &Episode{
		ID:           uuid.New().String(),
		Problem:      description,
		Category:     category,
		Mode:         mode,
		RulesApplied: branch.rulesApplied,
		PatternsUsed: branch.patternsUsed,
		Confidence:   branch.confidence,
		Timestamp:    start,
		Duration:     duration,
	}
	r.episodes[episode.ID] = episode

	r.logger.Debug("reasoning episode complete",
		zap.String("episode_id", episode.ID),
		zap.String("category", string(category)),
		zap.String("mode", string(mode)),
		zap.Float64("confidence", branch.confidence),
		zap.Bool("success", branch.success))

	return &Result{
		EpisodeID:            episode.ID,
		Category:             category,
		Mode:                 mode,
		Chain:                branch.chain,
		RulesApplied:         branch.rulesApplied,
		PatternsUsed:         branch.patternsUsed,
		Confidence:           branch.confidence,
		Success:              branch.success,
		SymbolicContribution: branch.symbolicShare,
		NeuralContribution:   branch.neuralShare,
		Duration:             duration,
	}
}

// selectMode starts from the category default, demotes modes with a poor
// observed track record to hybrid, then lets explicit task hints win.
func (r *Router) selectMode(category Category, context map[string]interface{}) Mode {
	mode, ok := defaultModes[category]
	if !ok {
		mode = ModeAdaptive
	}

	if r.stats != nil && mode != ModeAdaptive {
		rate, n := r.stats.ModeStats(mode)
		if n >= modeOverrideMinObservations && rate < modeOverrideSuccessFloor {
			r.logger.Debug("overriding default mode due to poor track record",
				zap.String("category", string(category)),
				zap.String("default_mode", string(mode)),
				zap.Float64("success_rate", rate),
				zap.Int("observations", n))
			mode = ModeHybrid
		}
	}

	switch {
	case contextFlag(context, "time_pressure"):
		return ModeNeural
	case contextFlag(context, "requires_explanation"):
		return ModeSymbolic
	case contextFlag(context, "high_stakes"):
		return ModeHybrid
	}
	return mode
}

// reasonAdaptively runs both branches and commits to the more confident one.
// A tie goes to the symbolic branch for the sake of its explainable chain.
func (r *Router) reasonAdaptively(problemText string) (branchResult, Mode) {
	symbolic := r.reasonSymbolically(problemText)
	neural := r.reasonNeurally(problemText)
	if neural.confidence > symbolic.confidence {
		return neural, ModeNeural
	}
	return symbolic, ModeSymbolic
}

// LearnFromFeedback adjusts the knowledge that produced an episode. Success
// reinforces both the rules and the patterns involved; failure only weakens
// patterns, since evidence-backed rules would otherwise be starved out by a
// few bad episodes.
func (r *Router) LearnFromFeedback(episodeID string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	episode, ok := r.episodes[episodeID]
	if !ok {
		return fmt.Errorf("episode %s: %w", episodeID, task.ErrNotFound)
	}
	episode.Success = &success

	if success {
		for _, id := range episode.RulesApplied {
			if rule, ok := r.rules[id]; ok {
				rule.Confidence = min(rule.Confidence*1.05, knowledgeCeiling)
				rule.EvidenceCount++
			}
		}
		for _, id := range episode.PatternsUsed {
			if p, ok := r.patterns[id]; ok {
				p.SuccessRate = min(p.SuccessRate*1.1, knowledgeCeiling)
			}
		}
	} else {
		for _, id := range episode.PatternsUsed {
			if p, ok := r.patterns[id]; ok {
				p.SuccessRate = max(p.SuccessRate*0.95, knowledgeFloor)
			}
		}
	}

	r.logger.Debug("applied reasoning feedback",
		zap.String("episode_id", episodeID),
		zap.Bool("success", success),
		zap.Int("rules_touched", len(episode.RulesApplied)),
		zap.Int("patterns_touched", len(episode.PatternsUsed)))
	return nil
}

// Rule returns a stored rule by ID.
func (r *Router) Rule(id string) (SymbolicRule, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return SymbolicRule{}, false
	}
	return *rule, true
}

// Pattern returns a stored pattern by ID.
func (r *Router) Pattern(id string) (NeuralPattern, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patterns[id]
	if !ok {
		return NeuralPattern{}, false
	}
	return *p, true
}

// Episode returns a stored episode by ID.
func (r *Router) Episode(id string) (*Episode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.episodes[id]
	if !ok {
		return nil, false
	}
	copied := *e
	return &copied, true
}

// Counts reports knowledge base and episode sizes.
func (r *Router) Counts() (rules, patterns, episodes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rules), len(r.patterns), len(r.episodes)
}

// RuleStat is the learned state of one symbolic rule.
type RuleStat struct {
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
	EvidenceCount int     `json:"evidence_count"`
}

// PatternStat is the learned state of one neural pattern.
type PatternStat struct {
	Confidence  float64 `json:"confidence"`
	SuccessRate float64 `json:"success_rate"`
	UsageCount  int     `json:"usage_count"`
}

// RuleStats reports every rule's current confidence and evidence.
func (r *Router) RuleStats() map[string]RuleStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]RuleStat, len(r.rules))
	for id, rule := range r.rules {
		out[id] = RuleStat{
			Category:      rule.Category,
			Confidence:    rule.Confidence,
			EvidenceCount: rule.EvidenceCount,
		}
	}
	return out
}

// PatternStats reports every pattern's current track record.
func (r *Router) PatternStats() map[string]PatternStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]PatternStat, len(r.patterns))
	for id, p := range r.patterns {
		out[id] = PatternStat{
			Confidence:  p.Confidence,
			SuccessRate: p.SuccessRate,
			UsageCount:  p.UsageCount,
		}
	}
	return out
}

// State is the router's persistable knowledge.
type State struct {
	Rules    []SymbolicRule  `json:"rules"`
	Patterns []NeuralPattern `json:"patterns"`
	Episodes []Episode       `json:"episodes"`
}

// Snapshot copies the rules, patterns, and episodes for persistence.
func (r *Router) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := State{
		Rules:    make([]SymbolicRule, 0, len(r.rules)),
		Patterns: make([]NeuralPattern, 0, len(r.patterns)),
		Episodes: make([]Episode, 0, len(r.episodes)),
	}
	for _, rule := range r.rules {
		s.Rules = append(s.Rules, *rule)
	}
	for _, p := range r.patterns {
		s.Patterns = append(s.Patterns, *p)
	}
	for _, e := range r.episodes {
		s.Episodes = append(s.Episodes, *e)
	}
	return s
}

// Restore replaces the router's knowledge with a snapshot.
func (r *Router) Restore(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = make(map[string]*SymbolicRule, len(s.Rules))
	for i := range s.Rules {
		rule := s.Rules[i]
		r.rules[rule.ID] = &rule
	}
	r.patterns = make(map[string]*NeuralPattern, len(s.Patterns))
	for i := range s.Patterns {
		p := s.Patterns[i]
		r.patterns[p.ID] = &p
	}
	r.episodes = make(map[string]*Episode, len(s.Episodes))
	for i := range s.Episodes {
		e := s.Episodes[i]
		r.episodes[e.ID] = &e
	}
}

func contextFlag(context map[string]interface{}, key string) bool {
	v, ok := context[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

