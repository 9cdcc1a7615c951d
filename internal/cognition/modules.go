package cognition

import (
	"context"

	"github.com/nidhogg/cogito/internal/episodic"
	"github.com/nidhogg/cogito/internal/monitor"
	"github.com/nidhogg/cogito/internal/reasoning"
	"github.com/nidhogg/cogito/internal/task"
	"github.com/nidhogg/cogito/internal/text"
	"github.com/nidhogg/cogito/internal/workmem"
)

// Adapters that wrap each cognitive component behind the coordinator's
// Module interface.

type reasoningModule struct {
	router *reasoning.Router
	mon    *monitor.Monitor
}

func (m *reasoningModule) Name() task.Module { return task.ModuleReasoning }

func (m *reasoningModule) Process(_ context.Context, t *task.Task) *task.ModuleResult {
	res := m.router.Reason(t.Description, t.Goal, t.Context)
	m.mon.RecordMode(res.Mode, res.Success)
	m.mon.RecordCategory(res.Category, res.Success)

	return &task.ModuleResult{
		Module:     task.ModuleReasoning,
		Success:    res.Success,
		Confidence: res.Confidence,
		Output: map[string]interface{}{
			"mode":            string(res.Mode),
			"category":        string(res.Category),
			"reasoning_trace": res.Chain,
			"episode_id":      res.EpisodeID,
			"rules_applied":   res.RulesApplied,
			"patterns_used":   res.PatternsUsed,
		},
	}
}

type episodicModule struct {
	store *episodic.Store
}

func (m *episodicModule) Name() task.Module { return task.ModuleEpisodicMemory }

func (m *episodicModule) Process(_ context.Context, t *task.Task) *task.ModuleResult {
	q := episodic.Query{Keywords: text.Keywords(t.Description + " " + t.Goal)}
	retrieved := m.store.Retrieve(q)

	confidence := 0.0
	traces := make([]map[string]interface{}, 0, len(retrieved))
	for _, r := range retrieved {
		if r.Relevance > confidence {
			confidence = r.Relevance
		}
		traces = append(traces, map[string]interface{}{
			"id":        r.Trace.ID,
			"payload":   r.Trace.Payload,
			"relevance": r.Relevance,
		})
	}

	return &task.ModuleResult{
		Module:     task.ModuleEpisodicMemory,
		Success:    len(retrieved) > 0,
		Confidence: confidence,
		Output: map[string]interface{}{
			"memories":  traces,
			"retrieved": len(retrieved),
		},
	}
}

type workmemModule struct {
	store *workmem.Store
}

func (m *workmemModule) Name() task.Module { return task.ModuleWorkingMemory }

// Process retrieves related short-term items, then holds the current task in
// the buffer so follow-up tasks can find it.
func (m *workmemModule) Process(_ context.Context, t *task.Task) *task.ModuleResult {
	retrieved := m.store.Retrieve(t.Description)

	confidence := 0.5
	items := make([]map[string]interface{}, 0, len(retrieved))
	for _, r := range retrieved {
		if r.Relevance > confidence {
			confidence = r.Relevance
		}
		items = append(items, map[string]interface{}{
			"id":        r.Item.ID,
			"payload":   r.Item.Payload,
			"relevance": r.Relevance,
		})
	}

	itemID := m.store.Store(map[string]interface{}{
		"task_id":     t.ID,
		"task_type":   t.Type,
		"description": t.Description,
		"goal":        t.Goal,
	})

	return &task.ModuleResult{
		Module:     task.ModuleWorkingMemory,
		Success:    true,
		Confidence: confidence,
		Output: map[string]interface{}{
			"related":   items,
			"stored_as": itemID,
		},
	}
}

type monitorModule struct {
	mon        *monitor.Monitor
	classifier reasoning.Classifier
	workmem    *workmem.Store
	subsystem  *Subsystem
}

func (m *monitorModule) Name() task.Module { return task.ModuleMonitor }

func (m *monitorModule) Process(_ context.Context, t *task.Task) *task.ModuleResult {
	assessment := m.subsystem.observeState()
	category := m.classifier.Classify(t.Description, t.Context)
	strategies := m.mon.RecommendStrategy(category, t.Context)

	return &task.ModuleResult{
		Module:     task.ModuleMonitor,
		Success:    len(assessment.Issues) == 0,
		Confidence: 1.0 - float64(m.workmem.Len())/float64(m.workmem.Capacity()),
		Output: map[string]interface{}{
			"issues":          assessment.Issues,
			"recommendations": assessment.Recommendations,
			"strategies":      strategies,
		},
	}
}
