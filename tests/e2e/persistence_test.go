package e2e

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nidhogg/cogito/internal/cognition"
	"github.com/nidhogg/cogito/internal/repository"
	"github.com/nidhogg/cogito/internal/task"
)

func TestPostgresRepositoryRoundTrip(t *testing.T) {
	skipIfNoPostgres(t)
	ctx := context.Background()

	records := []repository.Record{
		{ID: "r1", Data: json.RawMessage(`{"name":"alpha"}`)},
		{ID: "r2", Data: json.RawMessage(`{"name":"beta"}`)},
	}
	if err := testPostgres.SaveAll(ctx, "e2eRoundTrip", records); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	loaded, err := testPostgres.LoadAll(ctx, "e2eRoundTrip")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records, want 2", len(loaded))
	}
	byID := map[string]json.RawMessage{}
	for _, rec := range loaded {
		byID[rec.ID] = rec.Data
	}
	if string(byID["r1"]) != `{"name":"alpha"}` {
		t.Errorf("r1 data = %s", byID["r1"])
	}
}

func TestPostgresSaveReplacesKind(t *testing.T) {
	skipIfNoPostgres(t)
	ctx := context.Background()

	first := []repository.Record{{ID: "old", Data: json.RawMessage(`{}`)}}
	if err := testPostgres.SaveAll(ctx, "e2eReplace", first); err != nil {
		t.Fatalf("SaveAll first: %v", err)
	}
	second := []repository.Record{{ID: "new", Data: json.RawMessage(`{}`)}}
	if err := testPostgres.SaveAll(ctx, "e2eReplace", second); err != nil {
		t.Fatalf("SaveAll second: %v", err)
	}

	loaded, err := testPostgres.LoadAll(ctx, "e2eReplace")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "new" {
		t.Fatalf("loaded = %+v, want single record %q", loaded, "new")
	}
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	skipIfNoRedis(t)
	ctx := context.Background()

	records := []repository.Record{
		{ID: "r1", Data: json.RawMessage(`{"value":1}`)},
		{ID: "r2", Data: json.RawMessage(`{"value":2}`)},
	}
	if err := testRedis.SaveAll(ctx, "e2eRoundTrip", records); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	loaded, err := testRedis.LoadAll(ctx, "e2eRoundTrip")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records, want 2", len(loaded))
	}

	// A different kind stays isolated.
	other, err := testRedis.LoadAll(ctx, "e2eOtherKind")
	if err != nil {
		t.Fatalf("LoadAll other kind: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other kind has %d records, want 0", len(other))
	}
}

// A subsystem backed by PostgreSQL keeps its learned state across a full
// stop/start cycle, simulating a service restart.
func TestSubsystemStateSurvivesRestart(t *testing.T) {
	skipIfNoPostgres(t)
	ctx := context.Background()

	repo, err := repository.NewPostgres(ctx, testPostgresURL, testLogger)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer repo.Close()

	opts := cognition.DefaultOptions()
	opts.MaintenanceInterval = 0

	first := cognition.New(testLogger, repo, nil, opts)
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	result, err := first.SubmitTask(ctx, &task.Task{
		Type:        "reasoning",
		Description: "if I push the heavy box with more force it moves, because force moves objects",
		Goal:        "expect how the box reacts to force",
	})
	if err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	if result.EpisodeID == "" {
		t.Fatal("expected a reasoning episode ID")
	}
	before := first.GetMetrics()
	if before.ReasoningEpisodes == 0 {
		t.Fatal("expected at least one reasoning episode before restart")
	}
	if before.EpisodicTraces == 0 {
		t.Fatal("expected at least one episodic trace before restart")
	}

	if err := first.Stop(ctx); err != nil {
		t.Fatalf("first Stop: %v", err)
	}

	second := cognition.New(testLogger, repo, nil, opts)
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	defer second.Stop(ctx)

	after := second.GetMetrics()
	if after.ReasoningEpisodes != before.ReasoningEpisodes {
		t.Errorf("reasoning episodes = %d after restart, want %d",
			after.ReasoningEpisodes, before.ReasoningEpisodes)
	}
	if after.EpisodicTraces != before.EpisodicTraces {
		t.Errorf("episodic traces = %d after restart, want %d",
			after.EpisodicTraces, before.EpisodicTraces)
	}
	if after.Rules == 0 || after.Patterns == 0 {
		t.Errorf("knowledge base empty after restart: %d rules, %d patterns",
			after.Rules, after.Patterns)
	}

	// Feedback against the restored episode still works.
	if err := second.SupplyFeedback(result.EpisodeID, true); err != nil {
		t.Errorf("SupplyFeedback on restored episode: %v", err)
	}
}
