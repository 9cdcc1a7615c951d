package executive

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/task"
)

type stubModule struct {
	name   task.Module
	result *task.ModuleResult
	delay  time.Duration
}

func (s *stubModule) Name() task.Module { return s.name }

func (s *stubModule) Process(ctx context.Context, t *task.Task) *task.ModuleResult {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	res := *s.result
	res.Module = s.name
	return &res
}

func newTestCoordinator(t *testing.T, modules ...Module) *Coordinator {
	t.Helper()
	c := New(zap.NewNop())
	for _, m := range modules {
		c.Register(m)
	}
	return c
}

func testTask(modules ...task.Module) *task.Task {
	return &task.Task{
		ID:              "task-1",
		Type:            "test",
		Description:     "a task",
		RequiredModules: modules,
	}
}

func TestCoordinateRejectsInvalidTask(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.Coordinate(context.Background(), &task.Task{ID: "no-description"})
	if !errors.Is(err, task.ErrInvalidTask) {
		t.Errorf("err = %v, want %v", err, task.ErrInvalidTask)
	}
}

func TestCoordinateReasoningWins(t *testing.T) {
	c := newTestCoordinator(t,
		&stubModule{name: task.ModuleReasoning, result: &task.ModuleResult{
			Success:    true,
			Confidence: 0.8,
			Output: map[string]interface{}{
				"mode":            "symbolic",
				"episode_id":      "ep-1",
				"reasoning_trace": []string{"applied rule"},
			},
		}},
		&stubModule{name: task.ModuleWorkingMemory, result: &task.ModuleResult{
			Success:    true,
			Confidence: 0.99,
		}},
	)

	res, err := c.Coordinate(context.Background(),
		testTask(task.ModuleReasoning, task.ModuleWorkingMemory))
	if err != nil {
		t.Fatalf("Coordinate: %v", err)
	}
	if !res.Success || res.Confidence != 0.8 {
		t.Errorf("result = success %v confidence %f, want reasoning's 0.8", res.Success, res.Confidence)
	}
	if res.Mode != "symbolic" || res.EpisodeID != "ep-1" {
		t.Errorf("mode %q episode %q, want symbolic/ep-1", res.Mode, res.EpisodeID)
	}
	if res.CoordinationSuccessRate != 1.0 {
		t.Errorf("coordination success rate = %f, want 1.0", res.CoordinationSuccessRate)
	}
}

func TestCoordinateFallsBackByPriority(t *testing.T) {
	c := newTestCoordinator(t,
		&stubModule{name: task.ModuleReasoning, result: &task.ModuleResult{
			Success: false, Confidence: 0.2,
			Output: map[string]interface{}{"episode_id": "ep-2", "mode": "neural"},
		}},
		&stubModule{name: task.ModuleWorkingMemory, result: &task.ModuleResult{
			Success: true, Confidence: 0.6,
		}},
		&stubModule{name: task.ModuleMonitor, result: &task.ModuleResult{
			Success: true, Confidence: 0.9,
		}},
	)

	res, err := c.Coordinate(context.Background(),
		testTask(task.ModuleReasoning, task.ModuleWorkingMemory, task.ModuleMonitor))
	if err != nil {
		t.Fatalf("Coordinate: %v", err)
	}
	// Working memory outranks the monitor in the merge order.
	if res.Confidence != 0.6 {
		t.Errorf("confidence = %f, want working memory's 0.6", res.Confidence)
	}
	want := 2.0 / 3.0
	if math.Abs(res.CoordinationSuccessRate-want) > 1e-9 {
		t.Errorf("coordination success rate = %f, want %f", res.CoordinationSuccessRate, want)
	}
}

func TestCoordinateMergeIgnoresCompletionOrder(t *testing.T) {
	// Same per-module results with opposite completion timing must produce
	// the same integrated result.
	build := func(reasoningDelay, memoryDelay time.Duration) *task.IntegratedResult {
		c := newTestCoordinator(t,
			&stubModule{name: task.ModuleReasoning, delay: reasoningDelay, result: &task.ModuleResult{
				Success: true, Confidence: 0.7,
				Output: map[string]interface{}{"episode_id": "ep-3"},
			}},
			&stubModule{name: task.ModuleWorkingMemory, delay: memoryDelay, result: &task.ModuleResult{
				Success: true, Confidence: 0.9,
			}},
		)
		res, err := c.Coordinate(context.Background(),
			testTask(task.ModuleReasoning, task.ModuleWorkingMemory))
		if err != nil {
			t.Fatalf("Coordinate: %v", err)
		}
		return res
	}

	slow := build(20*time.Millisecond, 0)
	fast := build(0, 20*time.Millisecond)

	if slow.Confidence != fast.Confidence || slow.Success != fast.Success ||
		slow.EpisodeID != fast.EpisodeID {
		t.Errorf("merge depends on completion order: %+v vs %+v", slow, fast)
	}
}

func TestCoordinateUnavailableModule(t *testing.T) {
	c := newTestCoordinator(t,
		&stubModule{name: task.ModuleReasoning, result: &task.ModuleResult{
			Success: true, Confidence: 0.7,
		}},
	)

	res, err := c.Coordinate(context.Background(),
		testTask(task.ModuleReasoning, task.ModuleEpisodicMemory))
	if err != nil {
		t.Fatalf("Coordinate: %v", err)
	}
	if !res.Success {
		t.Error("one unavailable module must not fail the coordination")
	}
	entry, ok := res.ModuleContributions[task.ModuleEpisodicMemory]
	if !ok {
		t.Fatal("missing per-module entry for unavailable module")
	}
	if !strings.Contains(entry.Error, task.ErrModuleUnavailable.Error()) {
		t.Errorf("entry error = %q, want module unavailable", entry.Error)
	}
	if res.CoordinationSuccessRate != 0.5 {
		t.Errorf("coordination success rate = %f, want 0.5", res.CoordinationSuccessRate)
	}
}

func TestCoordinateAllFailedCarriesErrors(t *testing.T) {
	c := newTestCoordinator(t,
		&stubModule{name: task.ModuleReasoning, result: &task.ModuleResult{
			Success: false, Confidence: 0.3,
			Output: map[string]interface{}{"episode_id": "ep-4", "mode": "symbolic"},
		}},
	)

	res, err := c.Coordinate(context.Background(),
		testTask(task.ModuleReasoning, task.ModuleMonitor))
	if err != nil {
		t.Fatalf("Coordinate: %v", err)
	}
	if res.Success {
		t.Error("expected failure when no module succeeded")
	}
	if res.CoordinationSuccessRate != 0 {
		t.Errorf("coordination success rate = %f, want 0", res.CoordinationSuccessRate)
	}
	if res.EpisodeID != "ep-4" {
		t.Errorf("episode id = %q, want ep-4 surfaced from failed reasoning", res.EpisodeID)
	}
	if len(res.ModuleContributions) != 2 {
		t.Errorf("contributions = %d, want 2", len(res.ModuleContributions))
	}
}

func TestResolveModulesFromTaskType(t *testing.T) {
	cases := []struct {
		taskType string
		want     []task.Module
	}{
		{"recall_event", []task.Module{task.ModuleEpisodicMemory, task.ModuleWorkingMemory}},
		{"remember", []task.Module{task.ModuleEpisodicMemory, task.ModuleWorkingMemory}},
		{"problem_solving", []task.Module{task.ModuleReasoning, task.ModuleMonitor, task.ModuleWorkingMemory}},
		{"reasoning", []task.Module{task.ModuleReasoning, task.ModuleMonitor, task.ModuleWorkingMemory}},
		{"anything_else", []task.Module{task.ModuleReasoning}},
	}
	for _, tc := range cases {
		got := resolveModules(&task.Task{Type: tc.taskType, Description: "d"})
		if len(got) != len(tc.want) {
			t.Errorf("resolveModules(%s) = %v, want %v", tc.taskType, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("resolveModules(%s) = %v, want %v", tc.taskType, got, tc.want)
				break
			}
		}
	}
}

func TestCoordinationHistoryBound(t *testing.T) {
	c := newTestCoordinator(t,
		&stubModule{name: task.ModuleReasoning, result: &task.ModuleResult{Success: true, Confidence: 0.5}},
	)
	for i := 0; i < historyWindow+10; i++ {
		if _, err := c.Coordinate(context.Background(), testTask(task.ModuleReasoning)); err != nil {
			t.Fatalf("Coordinate: %v", err)
		}
	}
	if got := len(c.History()); got != historyWindow {
		t.Errorf("history length = %d, want %d", got, historyWindow)
	}
}

func TestResourceAllocations(t *testing.T) {
	c := newTestCoordinator(t,
		&stubModule{name: task.ModuleReasoning, result: &task.ModuleResult{Success: true, Confidence: 0.5}},
		&stubModule{name: task.ModuleMonitor, result: &task.ModuleResult{Success: true, Confidence: 0.5}},
	)
	res, err := c.Coordinate(context.Background(),
		testTask(task.ModuleReasoning, task.ModuleMonitor))
	if err != nil {
		t.Fatalf("Coordinate: %v", err)
	}
	for _, m := range []task.Module{task.ModuleReasoning, task.ModuleMonitor} {
		if got := res.ResourceAllocations[m]; got != 0.5 {
			t.Errorf("allocation[%s] = %f, want 0.5", m, got)
		}
	}
}
