package cognition

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/episodic"
	"github.com/nidhogg/cogito/internal/repository"
	"github.com/nidhogg/cogito/internal/task"
	"github.com/nidhogg/cogito/internal/workmem"
)

func newTestSubsystem(t *testing.T, repo repository.Repository) *Subsystem {
	t.Helper()
	opts := Options{
		WorkingMemory:       workmem.DefaultOptions(),
		MaintenanceInterval: 0,
	}
	s := New(zap.NewNop(), repo, nil, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func causalTask() *task.Task {
	return &task.Task{
		Type:            "reasoning",
		Description:     "If heavy objects need more force, what do I expect?",
		RequiredModules: []task.Module{task.ModuleReasoning},
	}
}

func TestSubmitTaskRejectsInvalid(t *testing.T) {
	s := newTestSubsystem(t, nil)
	_, err := s.SubmitTask(context.Background(), &task.Task{Type: "reasoning"})
	if !errors.Is(err, task.ErrInvalidTask) {
		t.Errorf("err = %v, want %v", err, task.ErrInvalidTask)
	}
}

func TestSubmitTaskEndToEnd(t *testing.T) {
	s := newTestSubsystem(t, nil)

	res, err := s.SubmitTask(context.Background(), causalTask())
	if err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	if !res.Success {
		t.Error("expected success for a matching causal question")
	}
	if res.EpisodeID == "" {
		t.Error("expected an episode ID for later feedback")
	}
	if res.Mode != "symbolic" {
		t.Errorf("mode = %q, want symbolic", res.Mode)
	}
	if len(res.ReasoningTrace) == 0 {
		t.Error("expected a non-empty reasoning trace")
	}
	if res.TaskID == "" {
		t.Error("expected an assigned task ID")
	}
}

func TestSubmitTaskStoresOutcomeTrace(t *testing.T) {
	s := newTestSubsystem(t, nil)

	if _, err := s.SubmitTask(context.Background(), causalTask()); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}

	got := s.QueryEpisodicMemory(episodic.Query{
		Context: map[string]string{"task_type": "reasoning"},
	})
	if len(got) != 1 {
		t.Fatalf("outcome traces = %d, want 1", len(got))
	}
	payload := got[0].Trace.Payload
	if payload["success"] != true {
		t.Errorf("trace success = %v, want true", payload["success"])
	}
	if got[0].Trace.EncodingStrength != successOutcomeStrength {
		t.Errorf("encoding strength = %f, want %f",
			got[0].Trace.EncodingStrength, successOutcomeStrength)
	}
}

func TestSubmitTaskHoldsTaskInWorkingMemory(t *testing.T) {
	s := newTestSubsystem(t, nil)

	tk := causalTask()
	tk.RequiredModules = []task.Module{task.ModuleReasoning, task.ModuleWorkingMemory}
	if _, err := s.SubmitTask(context.Background(), tk); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}

	got := s.QueryWorkingMemory("heavy objects force")
	if len(got) == 0 {
		t.Error("expected the processed task to be retrievable from working memory")
	}
}

func TestSupplyFeedbackRoundTrip(t *testing.T) {
	s := newTestSubsystem(t, nil)

	res, err := s.SubmitTask(context.Background(), causalTask())
	if err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	if err := s.SupplyFeedback(res.EpisodeID, true); err != nil {
		t.Errorf("SupplyFeedback: %v", err)
	}
	if err := s.SupplyFeedback("missing", true); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, task.ErrNotFound)
	}
}

func TestGetMetrics(t *testing.T) {
	s := newTestSubsystem(t, nil)

	if _, err := s.SubmitTask(context.Background(), causalTask()); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}

	m := s.GetMetrics()
	if m.TasksProcessed != 1 {
		t.Errorf("tasks processed = %d, want 1", m.TasksProcessed)
	}
	if m.OverallSuccessRate != 1.0 {
		t.Errorf("success rate = %f, want 1.0", m.OverallSuccessRate)
	}
	if m.Rules == 0 || m.Patterns == 0 {
		t.Error("expected seeded rules and patterns in metrics")
	}
	if m.ReasoningEpisodes != 1 {
		t.Errorf("reasoning episodes = %d, want 1", m.ReasoningEpisodes)
	}
	if _, ok := m.PerMode["symbolic"]; !ok {
		t.Error("expected per-mode stats for symbolic")
	}
	if _, ok := m.PerCategory["logical"]; !ok {
		t.Error("expected per-category stats for logical")
	}
	if stat, ok := m.RuleStats["rule_physics_force"]; !ok || stat.Confidence == 0 {
		t.Errorf("rule stats = %+v, want entry for rule_physics_force", stat)
	}
	if stat, ok := m.PatternStats["pattern_creative_association"]; !ok || stat.SuccessRate == 0 {
		t.Errorf("pattern stats = %+v, want entry for pattern_creative_association", stat)
	}
	if learned, ok := m.StrategyEffectiveness["logical"]; !ok || len(learned) == 0 {
		t.Errorf("strategy effectiveness = %+v, want learned strategies for logical", m.StrategyEffectiveness)
	}
}

func TestGetStatus(t *testing.T) {
	s := newTestSubsystem(t, nil)

	if _, err := s.SubmitTask(context.Background(), causalTask()); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}

	status := s.GetStatus()
	if status.TasksProcessed != 1 {
		t.Errorf("tasks processed = %d, want 1", status.TasksProcessed)
	}
	if len(status.RecentCoordination) != 1 {
		t.Errorf("coordination history = %d, want 1", len(status.RecentCoordination))
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	s := newTestSubsystem(t, repo)
	res, err := s.SubmitTask(ctx, causalTask())
	if err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	if err := s.SupplyFeedback(res.EpisodeID, true); err != nil {
		t.Fatalf("SupplyFeedback: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	restarted := newTestSubsystem(t, repo)
	if got := restarted.QueryEpisodicMemory(episodic.Query{
		Context: map[string]string{"task_type": "reasoning"},
	}); len(got) != 1 {
		t.Errorf("outcome traces after restart = %d, want 1", len(got))
	}
	// The feedback-reinforced rule confidence must survive too.
	if err := restarted.SupplyFeedback(res.EpisodeID, true); err != nil {
		t.Errorf("feedback on restored episode: %v", err)
	}
	if err := restarted.Stop(ctx); err != nil {
		t.Errorf("Stop after restart: %v", err)
	}
}

func TestConsolidateAndRehearse(t *testing.T) {
	s := newTestSubsystem(t, nil)

	if _, err := s.SubmitTask(context.Background(), causalTask()); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	// One pass must not error and must touch the stored outcome trace.
	if n := s.Consolidate(); n < 0 {
		t.Errorf("consolidated = %d", n)
	}
	if n := s.Rehearse(); n < 0 {
		t.Errorf("rehearsed = %d", n)
	}
}
