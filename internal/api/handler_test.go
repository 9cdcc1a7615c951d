package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/cognition"
	"github.com/nidhogg/cogito/internal/task"
	"github.com/nidhogg/cogito/internal/workmem"
)

// newTestServer wires a handler with an in-process subsystem (no external
// persistence).
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	subsystem := cognition.New(logger, nil, nil, cognition.Options{
		WorkingMemory: workmem.DefaultOptions(),
	})
	h := NewHandler(subsystem, nil, logger)

	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func submitCausalTask(t *testing.T, ts *httptest.Server) task.IntegratedResult {
	t.Helper()
	resp := postJSON(t, ts, "/api/tasks", map[string]interface{}{
		"type":        "reasoning",
		"description": "If heavy objects need more force, what do I expect?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/tasks status = %d, want 200", resp.StatusCode)
	}
	var result task.IntegratedResult
	decodeJSON(t, resp, &result)
	return result
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestSubmitTask(t *testing.T) {
	ts := newTestServer(t)
	result := submitCausalTask(t, ts)

	if !result.Success {
		t.Error("expected a successful result")
	}
	if result.EpisodeID == "" {
		t.Error("expected an episode id")
	}
	if result.Mode != "symbolic" {
		t.Errorf("mode = %q, want symbolic", result.Mode)
	}
}

func TestSubmitTaskMissingDescription(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/tasks", map[string]interface{}{"type": "reasoning"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSupplyFeedback(t *testing.T) {
	ts := newTestServer(t)
	result := submitCausalTask(t, ts)

	resp := postJSON(t, ts, "/api/episodes/"+result.EpisodeID+"/feedback",
		map[string]bool{"success": true})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSupplyFeedbackUnknownEpisode(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/episodes/no-such-episode/feedback",
		map[string]bool{"success": true})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestQueryWorkingMemory(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/tasks", map[string]interface{}{
		"type":             "reasoning",
		"description":      "If heavy objects need more force, what do I expect?",
		"required_modules": []string{"reasoning", "working_memory"},
	})
	resp.Body.Close()

	resp = getJSON(t, ts, "/api/memory/working?q=heavy+objects+force")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var items []map[string]interface{}
	decodeJSON(t, resp, &items)
	if len(items) == 0 {
		t.Error("expected the processed task in working memory")
	}
}

func TestQueryWorkingMemoryRequiresQuery(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts, "/api/memory/working")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestQueryEpisodicMemory(t *testing.T) {
	ts := newTestServer(t)
	submitCausalTask(t, ts)

	resp := getJSON(t, ts, "/api/memory/episodic?context=task_type:reasoning")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var traces []map[string]interface{}
	decodeJSON(t, resp, &traces)
	if len(traces) != 1 {
		t.Errorf("traces = %d, want 1", len(traces))
	}
}

func TestQueryEpisodicMemoryBadTimestamp(t *testing.T) {
	ts := newTestServer(t)
	resp := getJSON(t, ts, "/api/memory/episodic?after=yesterday")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConsolidateAndRehearse(t *testing.T) {
	ts := newTestServer(t)
	submitCausalTask(t, ts)

	for _, path := range []string{"/api/memory/consolidate", "/api/memory/rehearse"} {
		resp := postJSON(t, ts, path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("POST %s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestGetMetrics(t *testing.T) {
	ts := newTestServer(t)
	submitCausalTask(t, ts)

	resp := getJSON(t, ts, "/api/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var m cognition.Metrics
	decodeJSON(t, resp, &m)
	if m.TasksProcessed != 1 {
		t.Errorf("tasks processed = %d, want 1", m.TasksProcessed)
	}
}

func TestGetStatus(t *testing.T) {
	ts := newTestServer(t)
	submitCausalTask(t, ts)

	resp := getJSON(t, ts, "/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var status cognition.Status
	decodeJSON(t, resp, &status)
	if status.TasksProcessed != 1 {
		t.Errorf("tasks processed = %d, want 1", status.TasksProcessed)
	}
}
