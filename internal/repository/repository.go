// Package repository persists the subsystem's state as opaque JSON records
// keyed by entity kind. The cognitive core never depends on a specific
// backend; anything that can load and save a record list per kind qualifies.
package repository

import (
	"context"
	"encoding/json"
)

// Entity kinds persisted across restarts.
const (
	KindWorkingItem   = "workingItem"
	KindEpisodicTrace = "episodicTrace"
	KindRule          = "rule"
	KindPattern       = "pattern"
	KindEpisode       = "episode"
)

// Kinds lists every persisted entity kind.
var Kinds = []string{KindWorkingItem, KindEpisodicTrace, KindRule, KindPattern, KindEpisode}

// Record is one persisted entity.
type Record struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Repository loads and saves record lists per entity kind. SaveAll replaces
// the kind's full record set.
type Repository interface {
	LoadAll(ctx context.Context, kind string) ([]Record, error)
	SaveAll(ctx context.Context, kind string, records []Record) error
	Close()
}
