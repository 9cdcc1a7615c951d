// Package cognition wires the memory stores, reasoning router, performance
// monitor, and executive coordinator into one adaptive task subsystem.
package cognition

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/episodic"
	"github.com/nidhogg/cogito/internal/executive"
	"github.com/nidhogg/cogito/internal/monitor"
	"github.com/nidhogg/cogito/internal/reasoning"
	"github.com/nidhogg/cogito/internal/repository"
	"github.com/nidhogg/cogito/internal/task"
	"github.com/nidhogg/cogito/internal/workmem"
)

const (
	successOutcomeStrength = 0.7
	failureOutcomeStrength = 0.4
	successOutcomeValence  = 0.3
	failureOutcomeValence  = -0.3
)

// Options controls subsystem behavior.
type Options struct {
	WorkingMemory       workmem.Options
	MaintenanceInterval time.Duration // consolidation/rehearsal cadence, 0 disables
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		WorkingMemory:       workmem.DefaultOptions(),
		MaintenanceInterval: time.Minute,
	}
}

// Subsystem is the facade callers interact with. Safe for concurrent use.
type Subsystem struct {
	logger      *zap.Logger
	repo        repository.Repository
	metrics     *monitor.Metrics
	workmem     *workmem.Store
	episodic    *episodic.Store
	router      *reasoning.Router
	monitor     *monitor.Monitor
	coordinator *executive.Coordinator
	interval    time.Duration

	mu              sync.Mutex
	tasks           int
	successes       int
	totalTime       time.Duration
	totalConfidence float64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New assembles the subsystem. repo may be nil for purely in-process use;
// metrics may be nil when no Prometheus registry is wired.
func New(logger *zap.Logger, repo repository.Repository, metrics *monitor.Metrics, opts Options) *Subsystem {
	mon := monitor.New(logger, metrics)
	s := &Subsystem{
		logger:      logger,
		repo:        repo,
		metrics:     metrics,
		workmem:     workmem.NewStore(opts.WorkingMemory, logger),
		episodic:    episodic.NewStore(logger),
		router:      reasoning.NewRouter(logger, mon),
		monitor:     mon,
		coordinator: executive.New(logger),
		interval:    opts.MaintenanceInterval,
		stopCh:      make(chan struct{}),
	}

	s.coordinator.Register(&reasoningModule{router: s.router, mon: mon})
	s.coordinator.Register(&episodicModule{store: s.episodic})
	s.coordinator.Register(&workmemModule{store: s.workmem})
	s.coordinator.Register(&monitorModule{
		mon:        mon,
		classifier: reasoning.NewKeywordClassifier(),
		workmem:    s.workmem,
		subsystem:  s,
	})
	return s
}

// Start loads persisted state and begins background maintenance. A load
// failure is logged and the subsystem starts empty rather than refusing to
// run.
func (s *Subsystem) Start(ctx context.Context) error {
	if s.repo != nil {
		if err := s.loadState(ctx); err != nil {
			s.logger.Warn("loading persisted state failed, starting empty", zap.Error(err))
		}
	}

	if s.interval > 0 {
		s.wg.Add(1)
		go s.maintain()
	}
	s.logger.Info("cognitive subsystem started",
		zap.Int("working_memory_items", s.workmem.Len()),
		zap.Int("episodic_traces", s.episodic.Len()))
	return nil
}

// Stop halts maintenance and persists state. Save errors are surfaced, not
// swallowed.
func (s *Subsystem) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()

	if s.repo == nil {
		return nil
	}
	return s.saveState(ctx)
}

// SubmitTask runs a task through the coordinator and feeds the outcome back
// into episodic memory and the monitor.
func (s *Subsystem) SubmitTask(ctx context.Context, t *task.Task) (*task.IntegratedResult, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Created.IsZero() {
		t.Created = time.Now()
	}

	result, err := s.coordinator.Coordinate(ctx, t)
	if err != nil {
		return nil, err
	}

	s.recordOutcome(t, result)
	return result, nil
}

// recordOutcome closes the feedback loop: running metrics, monitor records,
// strategy effectiveness, and an episodic trace of what happened.
func (s *Subsystem) recordOutcome(t *task.Task, result *task.IntegratedResult) {
	s.mu.Lock()
	s.tasks++
	if result.Success {
		s.successes++
	}
	s.totalTime += result.ProcessingTime
	s.totalConfidence += result.Confidence
	s.mu.Unlock()

	s.monitor.RecordOutcome(t.Type, result.Success, result.Confidence, result.ProcessingTime)

	score := 0.0
	if result.Success {
		score = 1.0
	}
	category := taskCategory(result)
	for _, strategy := range s.monitor.RecommendStrategy(category, t.Context) {
		s.monitor.UpdateStrategyEffectiveness(category, strategy, score)
	}

	strength, valence := successOutcomeStrength, successOutcomeValence
	if !result.Success {
		strength, valence = failureOutcomeStrength, failureOutcomeValence
	}
	s.episodic.Store(&episodic.Trace{
		Payload: map[string]interface{}{
			"task_id":     t.ID,
			"task_type":   t.Type,
			"description": t.Description,
			"success":     result.Success,
			"confidence":  result.Confidence,
			"mode":        result.Mode,
		},
		MemoryType:       "task_outcome",
		EncodingStrength: strength,
		EmotionalValence: valence,
		Temporal: episodic.TemporalContext{
			Timestamp: time.Now(),
			Context:   map[string]string{"task_type": t.Type},
		},
	})

	s.updateGauges()
}

// taskCategory reads the classified problem category out of the reasoning
// module's contribution. Tasks that never reached reasoning count as unknown.
func taskCategory(result *task.IntegratedResult) reasoning.Category {
	mc, ok := result.ModuleContributions[task.ModuleReasoning]
	if !ok || mc == nil {
		return reasoning.CategoryUnknown
	}
	if c, ok := mc.Output["category"].(string); ok && c != "" {
		return reasoning.Category(c)
	}
	return reasoning.CategoryUnknown
}

// SupplyFeedback reports the real-world outcome of a reasoning episode.
func (s *Subsystem) SupplyFeedback(episodeID string, success bool) error {
	return s.router.LearnFromFeedback(episodeID, success)
}

// QueryWorkingMemory searches the short-term buffer.
func (s *Subsystem) QueryWorkingMemory(query string) []workmem.Retrieved {
	return s.workmem.Retrieve(query)
}

// QueryEpisodicMemory searches long-term memory.
func (s *Subsystem) QueryEpisodicMemory(q episodic.Query) []episodic.Retrieved {
	return s.episodic.Retrieve(q)
}

// Consolidate runs one episodic consolidation pass and reports how many
// traces were strengthened.
func (s *Subsystem) Consolidate() int {
	n := s.episodic.Consolidate()
	s.updateGauges()
	return n
}

// Rehearse reinforces attention on well-attended working memory items.
func (s *Subsystem) Rehearse() int {
	return s.workmem.Rehearse()
}

// Metrics is the aggregate view exposed to callers.
type Metrics struct {
	TasksProcessed        int                              `json:"tasks_processed"`
	OverallSuccessRate    float64                          `json:"overall_success_rate"`
	MeanProcessingTime    time.Duration                    `json:"mean_processing_time"`
	WorkingMemoryItems    int                              `json:"working_memory_items"`
	EpisodicTraces        int                              `json:"episodic_traces"`
	Rules                 int                              `json:"rules"`
	Patterns              int                              `json:"patterns"`
	ReasoningEpisodes     int                              `json:"reasoning_episodes"`
	PerMode               map[string]monitor.TrackRecord   `json:"per_mode"`
	PerCategory           map[string]monitor.TrackRecord   `json:"per_category"`
	RuleStats             map[string]reasoning.RuleStat    `json:"rule_stats"`
	PatternStats          map[string]reasoning.PatternStat `json:"pattern_stats"`
	Performance           monitor.PerformanceReport        `json:"performance"`
	StrategyEffectiveness map[string]map[string]float64    `json:"strategy_effectiveness"`
}

// GetMetrics aggregates running counters with the monitor's evaluation.
func (s *Subsystem) GetMetrics() Metrics {
	s.mu.Lock()
	tasks, successes, totalTime := s.tasks, s.successes, s.totalTime
	s.mu.Unlock()

	m := Metrics{
		TasksProcessed:        tasks,
		WorkingMemoryItems:    s.workmem.Len(),
		EpisodicTraces:        s.episodic.Len(),
		PerMode:               make(map[string]monitor.TrackRecord, 4),
		PerCategory:           make(map[string]monitor.TrackRecord),
		RuleStats:             s.router.RuleStats(),
		PatternStats:          s.router.PatternStats(),
		Performance:           s.monitor.EvaluatePerformance(),
		StrategyEffectiveness: make(map[string]map[string]float64),
	}
	for category, learned := range s.monitor.StrategyEffectiveness() {
		m.StrategyEffectiveness[string(category)] = learned
	}
	m.Rules, m.Patterns, m.ReasoningEpisodes = s.router.Counts()
	if tasks > 0 {
		m.OverallSuccessRate = float64(successes) / float64(tasks)
		m.MeanProcessingTime = totalTime / time.Duration(tasks)
	}
	for _, mode := range []reasoning.Mode{
		reasoning.ModeSymbolic, reasoning.ModeNeural,
		reasoning.ModeHybrid, reasoning.ModeAdaptive,
	} {
		rate, n := s.monitor.ModeStats(mode)
		if n > 0 {
			m.PerMode[string(mode)] = monitor.TrackRecord{SuccessRate: rate, Observations: n}
		}
	}
	for category, rec := range s.monitor.CategoryStats() {
		m.PerCategory[string(category)] = rec
	}
	return m
}

// Status reports subsystem health for the status endpoint.
type Status struct {
	TasksProcessed     int                      `json:"tasks_processed"`
	WorkingMemoryItems int                      `json:"working_memory_items"`
	WorkingMemoryLoad  float64                  `json:"working_memory_load"`
	EpisodicTraces     int                      `json:"episodic_traces"`
	Issues             []string                 `json:"issues,omitempty"`
	Recommendations    []string                 `json:"recommendations,omitempty"`
	RecentCoordination []executive.Coordination `json:"recent_coordination"`
}

// GetStatus assesses the current cognitive state.
func (s *Subsystem) GetStatus() Status {
	s.mu.Lock()
	tasks := s.tasks
	s.mu.Unlock()

	assessment := s.observeState()
	return Status{
		TasksProcessed:     tasks,
		WorkingMemoryItems: s.workmem.Len(),
		WorkingMemoryLoad:  s.workingMemoryLoad(),
		EpisodicTraces:     s.episodic.Len(),
		Issues:             assessment.Issues,
		Recommendations:    assessment.Recommendations,
		RecentCoordination: s.coordinator.History(),
	}
}

// observeState feeds the current state into the monitor's snapshot window.
func (s *Subsystem) observeState() monitor.Assessment {
	s.mu.Lock()
	errorRate := 0.0
	confidence := 0.0
	if s.tasks > 0 {
		errorRate = 1.0 - float64(s.successes)/float64(s.tasks)
		confidence = s.totalConfidence / float64(s.tasks)
	}
	s.mu.Unlock()

	return s.monitor.ObserveState(monitor.StateSnapshot{
		WorkingMemoryLoad: s.workingMemoryLoad(),
		AttentionFocus:    s.workmem.Len(),
		ErrorRate:         errorRate,
		ConfidenceLevel:   confidence,
	})
}

func (s *Subsystem) workingMemoryLoad() float64 {
	return float64(s.workmem.Len()) / float64(s.workmem.Capacity())
}

func (s *Subsystem) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.WorkingMemoryItems.Set(float64(s.workmem.Len()))
	s.metrics.EpisodicTraces.Set(float64(s.episodic.Len()))
}

// maintain is the background loop: consolidation, rehearsal, and state
// observation at a fixed cadence.
func (s *Subsystem) maintain() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			strengthened := s.episodic.Consolidate()
			rehearsed := s.workmem.Rehearse()
			s.observeState()
			s.updateGauges()
			s.logger.Debug("maintenance pass complete",
				zap.Int("traces_strengthened", strengthened),
				zap.Int("items_rehearsed", rehearsed))
		}
	}
}
