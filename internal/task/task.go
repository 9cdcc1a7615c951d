package task

import (
	"errors"
	"time"
)

// Module names the cognitive modules a task can require.
type Module string

const (
	ModuleReasoning      Module = "reasoning"
	ModuleEpisodicMemory Module = "episodic_memory"
	ModuleWorkingMemory  Module = "working_memory"
	ModuleMonitor        Module = "monitor"
)

// Priority levels for task processing.
type Priority int

const (
	PriorityCritical Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBackground
)

// Sentinel errors for the recoverable failure taxonomy.
// NoApplicableStrategy is deliberately not an error: a reasoning branch with
// no matching rule or pattern returns confidence 0 and success=false instead.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTask       = errors.New("invalid task")
	ErrModuleUnavailable = errors.New("module unavailable")
)

// Task is one unit of cognitive work submitted to the coordinator.
type Task struct {
	ID              string                 `json:"id"`
	Type            string                 `json:"type"`
	Description     string                 `json:"description"`
	Goal            string                 `json:"goal,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	RequiredModules []Module               `json:"required_modules,omitempty"`
	Priority        Priority               `json:"priority,omitempty"`
	Created         time.Time              `json:"created"`
}

// Validate rejects tasks that cannot be processed at all.
func (t *Task) Validate() error {
	if t == nil || t.Description == "" {
		return ErrInvalidTask
	}
	return nil
}

// ContextFlag reads a boolean flag from the task context.
func (t *Task) ContextFlag(key string) bool {
	if t.Context == nil {
		return false
	}
	v, ok := t.Context[key].(bool)
	return ok && v
}

// ModuleResult is the output of one module processing a task.
type ModuleResult struct {
	Module     Module                 `json:"module"`
	Success    bool                   `json:"success"`
	Confidence float64                `json:"confidence"`
	Output     map[string]interface{} `json:"output,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// IntegratedResult is the coordinator's merged output across all modules a
// task required.
type IntegratedResult struct {
	TaskID                  string                   `json:"task_id"`
	Success                 bool                     `json:"success"`
	Confidence              float64                  `json:"confidence"`
	Mode                    string                   `json:"mode,omitempty"`
	ReasoningTrace          []string                 `json:"reasoning_trace,omitempty"`
	EpisodeID               string                   `json:"episode_id,omitempty"`
	ModuleContributions     map[Module]*ModuleResult `json:"module_contributions"`
	ResourceAllocations     map[Module]float64       `json:"resource_allocations,omitempty"`
	CoordinationSuccessRate float64                  `json:"coordination_success_rate"`
	ProcessingTime          time.Duration            `json:"processing_time"`
}
