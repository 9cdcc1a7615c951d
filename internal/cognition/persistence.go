package cognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/episodic"
	"github.com/nidhogg/cogito/internal/reasoning"
	"github.com/nidhogg/cogito/internal/repository"
	"github.com/nidhogg/cogito/internal/workmem"
)

// loadState restores every persisted entity kind. Kinds with no records are
// left alone so a fresh installation keeps its seeded knowledge.
func (s *Subsystem) loadState(ctx context.Context) error {
	items, err := loadKind[workmem.Item](ctx, s.repo, repository.KindWorkingItem)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		s.workmem.Restore(items)
	}

	traces, err := loadKind[episodic.Trace](ctx, s.repo, repository.KindEpisodicTrace)
	if err != nil {
		return err
	}
	if len(traces) > 0 {
		s.episodic.Restore(traces)
	}

	rules, err := loadKind[reasoning.SymbolicRule](ctx, s.repo, repository.KindRule)
	if err != nil {
		return err
	}
	patterns, err := loadKind[reasoning.NeuralPattern](ctx, s.repo, repository.KindPattern)
	if err != nil {
		return err
	}
	episodes, err := loadKind[reasoning.Episode](ctx, s.repo, repository.KindEpisode)
	if err != nil {
		return err
	}
	if len(rules) > 0 || len(patterns) > 0 || len(episodes) > 0 {
		state := s.router.Snapshot()
		if len(rules) > 0 {
			state.Rules = deref(rules)
		}
		if len(patterns) > 0 {
			state.Patterns = deref(patterns)
		}
		if len(episodes) > 0 {
			state.Episodes = deref(episodes)
		}
		s.router.Restore(state)
	}

	s.logger.Info("persisted state loaded",
		zap.Int("working_items", len(items)),
		zap.Int("episodic_traces", len(traces)),
		zap.Int("rules", len(rules)),
		zap.Int("patterns", len(patterns)),
		zap.Int("episodes", len(episodes)))
	return nil
}

// saveState persists every entity kind, reporting all failures together.
func (s *Subsystem) saveState(ctx context.Context) error {
	state := s.router.Snapshot()

	var errs []error
	errs = append(errs,
		saveKind(ctx, s.repo, repository.KindWorkingItem, s.workmem.Snapshot(), func(i *workmem.Item) string { return i.ID }),
		saveKind(ctx, s.repo, repository.KindEpisodicTrace, s.episodic.Snapshot(), func(t *episodic.Trace) string { return t.ID }),
		saveKind(ctx, s.repo, repository.KindRule, ref(state.Rules), func(r *reasoning.SymbolicRule) string { return r.ID }),
		saveKind(ctx, s.repo, repository.KindPattern, ref(state.Patterns), func(p *reasoning.NeuralPattern) string { return p.ID }),
		saveKind(ctx, s.repo, repository.KindEpisode, ref(state.Episodes), func(e *reasoning.Episode) string { return e.ID }),
	)
	return errors.Join(errs...)
}

func loadKind[T any](ctx context.Context, repo repository.Repository, kind string) ([]*T, error) {
	records, err := repo.LoadAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	out := make([]*T, 0, len(records))
	for _, r := range records {
		var v T
		if err := json.Unmarshal(r.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s record %s: %w", kind, r.ID, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func saveKind[T any](ctx context.Context, repo repository.Repository, kind string, entities []*T, id func(*T) string) error {
	records := make([]repository.Record, 0, len(entities))
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", kind, err)
		}
		records = append(records, repository.Record{ID: id(e), Data: data})
	}
	if err := repo.SaveAll(ctx, kind, records); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return nil
}

func deref[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}

func ref[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}
