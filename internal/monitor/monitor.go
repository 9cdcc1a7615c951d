// Package monitor tracks cognitive state over time, evaluates task
// performance, and learns which strategies pay off.
package monitor

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/reasoning"
)

const (
	snapshotWindow = 100
	outcomeWindow  = 100

	highLoadThreshold       = 0.8
	scatteredFocusThreshold = 5
	errorRateThreshold      = 0.3
	errorRateLookback       = 5

	strengthThreshold = 0.8
	weaknessThreshold = 0.5

	// Exponential moving average retention for strategy effectiveness.
	strategyRetention = 0.7
	// How many learned strategies lead a recommendation list.
	learnedStrategyLimit = 2
)

// StateSnapshot is one observation of the system's cognitive state.
// ProcessingSpeed and ConfidenceLevel are carried for reporting; they do not
// drive detection.
type StateSnapshot struct {
	Timestamp         time.Time `json:"timestamp"`
	WorkingMemoryLoad float64   `json:"working_memory_load"`
	AttentionFocus    int       `json:"attention_focus"`
	ProcessingSpeed   float64   `json:"processing_speed"`
	ErrorRate         float64   `json:"error_rate"`
	ConfidenceLevel   float64   `json:"confidence_level"`
}

// Assessment names the issues found in the current state and what to do
// about them.
type Assessment struct {
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// TypeStats aggregates outcomes for one task type.
type TypeStats struct {
	Tasks          int           `json:"tasks"`
	SuccessRate    float64       `json:"success_rate"`
	MeanConfidence float64       `json:"mean_confidence"`
	MeanDuration   time.Duration `json:"mean_duration"`
}

// PerformanceReport summarizes everything observed so far.
type PerformanceReport struct {
	TotalTasks     int                  `json:"total_tasks"`
	SuccessRate    float64              `json:"success_rate"`
	MeanConfidence float64              `json:"mean_confidence"`
	MeanDuration   time.Duration        `json:"mean_duration"`
	ByTaskType     map[string]TypeStats `json:"by_task_type"`
	Strengths      []string             `json:"strengths"`
	Weaknesses     []string             `json:"weaknesses"`
}

type outcome struct {
	taskType   string
	success    bool
	confidence float64
	duration   time.Duration
}

type modeRecord struct {
	successes int
	total     int
}

// TrackRecord is an observed success rate over a number of outcomes.
type TrackRecord struct {
	SuccessRate  float64 `json:"success_rate"`
	Observations int     `json:"observations"`
}

// Monitor is the meta-cognitive layer. Safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	snapshots  []StateSnapshot
	outcomes   []outcome
	strategies map[reasoning.Category]map[string]float64
	modes      map[reasoning.Mode]*modeRecord
	categories map[reasoning.Category]*modeRecord
	metrics    *Metrics
	logger     *zap.Logger
	nowFunc    func() time.Time
}

// New builds a monitor. metrics may be nil when no registry is wired.
func New(logger *zap.Logger, metrics *Metrics) *Monitor {
	return &Monitor{
		strategies: make(map[reasoning.Category]map[string]float64),
		modes:      make(map[reasoning.Mode]*modeRecord),
		categories: make(map[reasoning.Category]*modeRecord),
		metrics:    metrics,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// ObserveState records a snapshot and returns an assessment of it. The
// snapshot buffer keeps the most recent window only.
func (m *Monitor) ObserveState(s StateSnapshot) Assessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Timestamp.IsZero() {
		s.Timestamp = m.nowFunc()
	}
	if s.ProcessingSpeed == 0 {
		s.ProcessingSpeed = 1.0
	}
	if s.ConfidenceLevel == 0 {
		s.ConfidenceLevel = 0.5
	}
	m.snapshots = append(m.snapshots, s)
	if len(m.snapshots) > snapshotWindow {
		m.snapshots = m.snapshots[len(m.snapshots)-snapshotWindow:]
	}
	if m.metrics != nil {
		m.metrics.CognitiveLoad.Set(s.WorkingMemoryLoad)
	}

	var a Assessment
	if s.WorkingMemoryLoad > highLoadThreshold {
		a.Issues = append(a.Issues, "high_cognitive_load")
		a.Recommendations = append(a.Recommendations, "reduce_working_memory_load")
	}
	if s.AttentionFocus > scatteredFocusThreshold {
		a.Issues = append(a.Issues, "attention_scattered")
		a.Recommendations = append(a.Recommendations, "focus_attention")
	}
	if m.recentErrorRateLocked() > errorRateThreshold {
		a.Issues = append(a.Issues, "increasing_error_rate")
		a.Recommendations = append(a.Recommendations, "increase_monitoring")
	}

	if len(a.Issues) > 0 {
		m.logger.Debug("cognitive state issues detected",
			zap.Strings("issues", a.Issues),
			zap.Float64("working_memory_load", s.WorkingMemoryLoad))
	}
	return a
}

// recentErrorRateLocked averages error rates over the last few snapshots.
func (m *Monitor) recentErrorRateLocked() float64 {
	n := len(m.snapshots)
	if n == 0 {
		return 0
	}
	start := n - errorRateLookback
	if start < 0 {
		start = 0
	}
	total := 0.0
	for _, s := range m.snapshots[start:] {
		total += s.ErrorRate
	}
	return total / float64(n-start)
}

// RecordOutcome logs one finished task, keeping the most recent window only.
func (m *Monitor) RecordOutcome(taskType string, success bool, confidence float64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes = append(m.outcomes, outcome{taskType, success, confidence, duration})
	if len(m.outcomes) > outcomeWindow {
		m.outcomes = m.outcomes[len(m.outcomes)-outcomeWindow:]
	}
	if m.metrics != nil {
		status := "failure"
		if success {
			status = "success"
		}
		m.metrics.TasksProcessed.WithLabelValues(taskType, status).Inc()
		m.metrics.TaskDuration.Observe(duration.Seconds())
	}
}

// RecordMode logs the outcome of one reasoning mode invocation.
func (m *Monitor) RecordMode(mode reasoning.Mode, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.modes[mode]
	if !ok {
		rec = &modeRecord{}
		m.modes[mode] = rec
	}
	rec.total++
	if success {
		rec.successes++
	}
	if m.metrics != nil {
		m.metrics.ReasoningMode.WithLabelValues(string(mode)).Inc()
	}
}

// ModeStats reports the observed success rate for a reasoning mode. Satisfies
// the router's Stats interface.
func (m *Monitor) ModeStats(mode reasoning.Mode) (float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.modes[mode]
	if !ok || rec.total == 0 {
		return 0, 0
	}
	return float64(rec.successes) / float64(rec.total), rec.total
}

// RecordCategory logs the outcome of a task in one problem category.
func (m *Monitor) RecordCategory(category reasoning.Category, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.categories[category]
	if !ok {
		rec = &modeRecord{}
		m.categories[category] = rec
	}
	rec.total++
	if success {
		rec.successes++
	}
}

// CategoryStats reports the observed success rate per problem category.
func (m *Monitor) CategoryStats() map[reasoning.Category]TrackRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[reasoning.Category]TrackRecord, len(m.categories))
	for category, rec := range m.categories {
		if rec.total == 0 {
			continue
		}
		out[category] = TrackRecord{
			SuccessRate:  float64(rec.successes) / float64(rec.total),
			Observations: rec.total,
		}
	}
	return out
}

// EvaluatePerformance aggregates the recent outcome window. Task types with a
// strong track record land in Strengths, poor ones in Weaknesses.
func (m *Monitor) EvaluatePerformance() PerformanceReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := PerformanceReport{ByTaskType: make(map[string]TypeStats)}
	if len(m.outcomes) == 0 {
		return report
	}

	type agg struct {
		tasks      int
		successes  int
		confidence float64
		duration   time.Duration
	}
	perType := make(map[string]*agg)
	var total agg
	for _, o := range m.outcomes {
		a, ok := perType[o.taskType]
		if !ok {
			a = &agg{}
			perType[o.taskType] = a
		}
		for _, dst := range []*agg{a, &total} {
			dst.tasks++
			if o.success {
				dst.successes++
			}
			dst.confidence += o.confidence
			dst.duration += o.duration
		}
	}

	report.TotalTasks = total.tasks
	report.SuccessRate = float64(total.successes) / float64(total.tasks)
	report.MeanConfidence = total.confidence / float64(total.tasks)
	report.MeanDuration = total.duration / time.Duration(total.tasks)

	for taskType, a := range perType {
		rate := float64(a.successes) / float64(a.tasks)
		report.ByTaskType[taskType] = TypeStats{
			Tasks:          a.tasks,
			SuccessRate:    rate,
			MeanConfidence: a.confidence / float64(a.tasks),
			MeanDuration:   a.duration / time.Duration(a.tasks),
		}
		if rate > strengthThreshold {
			report.Strengths = append(report.Strengths, taskType)
		} else if rate < weaknessThreshold {
			report.Weaknesses = append(report.Weaknesses, taskType)
		}
	}
	sort.Strings(report.Strengths)
	sort.Strings(report.Weaknesses)
	return report
}

// RecommendStrategy suggests approaches for a task in one problem category:
// the category's best learned strategies lead the list, followed by fixed
// defaults triggered by context hints.
func (m *Monitor) RecommendStrategy(category reasoning.Category, context map[string]interface{}) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategies := m.topStrategiesLocked(category, learnedStrategyLimit)

	if v, ok := context["complexity"].(string); ok && v == "high" {
		strategies = append(strategies, "decomposition", "analogical_reasoning")
	}
	if flag(context, "requires_creativity") {
		strategies = append(strategies, "divergent_thinking", "associative_reasoning")
	}
	if flag(context, "has_uncertainty") {
		strategies = append(strategies, "probabilistic_reasoning", "evidence_gathering")
	}
	if len(strategies) == 0 {
		return []string{"direct_approach"}
	}

	seen := make(map[string]bool, len(strategies))
	deduped := strategies[:0]
	for _, s := range strategies {
		if !seen[s] {
			seen[s] = true
			deduped = append(deduped, s)
		}
	}
	return deduped
}

// topStrategiesLocked returns the category's highest-scoring learned
// strategies, best first. Ties break alphabetically so the order is stable.
func (m *Monitor) topStrategiesLocked(category reasoning.Category, n int) []string {
	learned := m.strategies[category]
	if len(learned) == 0 {
		return nil
	}
	names := make([]string, 0, len(learned))
	for name := range learned {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if learned[names[i]] != learned[names[j]] {
			return learned[names[i]] > learned[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// UpdateStrategyEffectiveness folds a new observation into a strategy's
// running score for one problem category. Unseen strategies start neutral.
func (m *Monitor) UpdateStrategyEffectiveness(category reasoning.Category, strategy string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	learned := m.strategies[category]
	if learned == nil {
		learned = make(map[string]float64)
		m.strategies[category] = learned
	}
	old, ok := learned[strategy]
	if !ok {
		old = 0.5
	}
	learned[strategy] = strategyRetention*old + (1-strategyRetention)*score
}

// StrategyEffectiveness returns a copy of the learned per-category strategy
// scores.
func (m *Monitor) StrategyEffectiveness() map[reasoning.Category]map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[reasoning.Category]map[string]float64, len(m.strategies))
	for category, learned := range m.strategies {
		scores := make(map[string]float64, len(learned))
		for strategy, score := range learned {
			scores[strategy] = score
		}
		out[category] = scores
	}
	return out
}

func flag(context map[string]interface{}, key string) bool {
	b, ok := context[key].(bool)
	return ok && b
}
