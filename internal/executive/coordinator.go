// Package executive dispatches tasks across the cognitive modules and merges
// their results into one integrated answer.
package executive

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/task"
)

const historyWindow = 50

// Module is one cognitive module the coordinator can dispatch to. Process
// must not panic; failures are reported through the result's Error field.
type Module interface {
	Name() task.Module
	Process(ctx context.Context, t *task.Task) *task.ModuleResult
}

// mergePriority fixes the order module results are considered during
// integration. Reasoning outranks memory, memory outranks the monitor.
var mergePriority = []task.Module{
	task.ModuleReasoning,
	task.ModuleEpisodicMemory,
	task.ModuleWorkingMemory,
	task.ModuleMonitor,
}

// Coordination is one history entry for status reporting.
type Coordination struct {
	ID          string        `json:"id"`
	TaskID      string        `json:"task_id"`
	TaskType    string        `json:"task_type"`
	Success     bool          `json:"success"`
	SuccessRate float64       `json:"coordination_success_rate"`
	Timestamp   time.Time     `json:"timestamp"`
	Duration    time.Duration `json:"duration"`
}

// Coordinator routes tasks to their required modules and merges module
// results deterministically. Safe for concurrent use.
type Coordinator struct {
	mu      sync.Mutex
	modules map[task.Module]Module
	history []Coordination
	logger  *zap.Logger
	nowFunc func() time.Time
}

// New builds a coordinator with no modules registered.
func New(logger *zap.Logger) *Coordinator {
	return &Coordinator{
		modules: make(map[task.Module]Module),
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Register makes a module available for dispatch.
func (c *Coordinator) Register(m Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[m.Name()] = m
}

// Coordinate resolves the task's required modules, runs them concurrently,
// and merges their results. A missing module yields a per-module error entry
// rather than failing the coordination.
func (c *Coordinator) Coordinate(ctx context.Context, t *task.Task) (*task.IntegratedResult, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	start := c.nowFunc()
	required := resolveModules(t)
	share := 1.0 / float64(len(required))

	allocations := make(map[task.Module]float64, len(required))
	for _, name := range required {
		allocations[name] = share
	}

	c.mu.Lock()
	registered := make(map[task.Module]Module, len(required))
	for _, name := range required {
		if m, ok := c.modules[name]; ok {
			registered[name] = m
		}
	}
	c.mu.Unlock()

	contributions := make(map[task.Module]*task.ModuleResult, len(required))
	var (
		wg      sync.WaitGroup
		resultM sync.Mutex
	)
	for _, name := range required {
		m, ok := registered[name]
		if !ok {
			resultM.Lock()
			contributions[name] = &task.ModuleResult{
				Module: name,
				Error:  fmt.Sprintf("%s: %v", name, task.ErrModuleUnavailable),
			}
			resultM.Unlock()
			continue
		}
		wg.Add(1)
		go func(name task.Module, m Module) {
			defer wg.Done()
			res := m.Process(ctx, t)
			resultM.Lock()
			contributions[name] = res
			resultM.Unlock()
		}(name, m)
	}
	wg.Wait()

	integrated := merge(t, required, contributions)
	integrated.ResourceAllocations = allocations
	integrated.ProcessingTime = c.nowFunc().Sub(start)

	c.record(Coordination{
		ID:          uuid.New().String(),
		TaskID:      t.ID,
		TaskType:    t.Type,
		Success:     integrated.Success,
		SuccessRate: integrated.CoordinationSuccessRate,
		Timestamp:   start,
		Duration:    integrated.ProcessingTime,
	})

	c.logger.Debug("coordinated task",
		zap.String("task_id", t.ID),
		zap.Int("modules", len(required)),
		zap.Bool("success", integrated.Success),
		zap.Float64("coordination_success_rate", integrated.CoordinationSuccessRate))
	return integrated, nil
}

// merge picks the integrated result by fixed module priority so the outcome
// does not depend on goroutine completion order. The reasoning module wins
// when it succeeded; otherwise the first succeeding module in priority order;
// otherwise a failure result carrying every per-module error.
func merge(t *task.Task, required []task.Module, contributions map[task.Module]*task.ModuleResult) *task.IntegratedResult {
	succeeded := 0
	for _, res := range contributions {
		if res.Success {
			succeeded++
		}
	}

	integrated := &task.IntegratedResult{
		TaskID:                  t.ID,
		ModuleContributions:     contributions,
		CoordinationSuccessRate: float64(succeeded) / float64(len(required)),
	}

	for _, name := range mergePriority {
		res, ok := contributions[name]
		if !ok || !res.Success {
			continue
		}
		integrated.Success = true
		integrated.Confidence = res.Confidence
		if res.Output != nil {
			if mode, ok := res.Output["mode"].(string); ok {
				integrated.Mode = mode
			}
			if trace, ok := res.Output["reasoning_trace"].([]string); ok {
				integrated.ReasoningTrace = trace
			}
			if id, ok := res.Output["episode_id"].(string); ok {
				integrated.EpisodeID = id
			}
		}
		return integrated
	}

	// Even on overall failure, surface the reasoning episode so feedback can
	// still reach the router.
	if res, ok := contributions[task.ModuleReasoning]; ok && res.Output != nil {
		if id, ok := res.Output["episode_id"].(string); ok {
			integrated.EpisodeID = id
		}
		if mode, ok := res.Output["mode"].(string); ok {
			integrated.Mode = mode
		}
		if trace, ok := res.Output["reasoning_trace"].([]string); ok {
			integrated.ReasoningTrace = trace
		}
		integrated.Confidence = res.Confidence
	}
	return integrated
}

// resolveModules honors an explicit module list, otherwise infers one from
// the task type.
func resolveModules(t *task.Task) []task.Module {
	if len(t.RequiredModules) > 0 {
		seen := make(map[task.Module]bool, len(t.RequiredModules))
		out := make([]task.Module, 0, len(t.RequiredModules))
		for _, m := range t.RequiredModules {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
		return out
	}

	taskType := strings.ToLower(t.Type)
	switch {
	case strings.Contains(taskType, "remember") || strings.Contains(taskType, "recall"):
		return []task.Module{task.ModuleEpisodicMemory, task.ModuleWorkingMemory}
	case strings.Contains(taskType, "reason") || strings.Contains(taskType, "problem"):
		return []task.Module{task.ModuleReasoning, task.ModuleMonitor, task.ModuleWorkingMemory}
	default:
		return []task.Module{task.ModuleReasoning}
	}
}

func (c *Coordinator) record(entry Coordination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, entry)
	if len(c.history) > historyWindow {
		c.history = c.history[len(c.history)-historyWindow:]
	}
}

// History returns a copy of the recent coordination log, newest last.
func (c *Coordinator) History() []Coordination {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Coordination, len(c.history))
	copy(out, c.history)
	return out
}
