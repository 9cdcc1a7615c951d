package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS cognitive_records (
	kind       TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (kind, id)
)`

// Postgres persists records in a single JSONB table.
type Postgres struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects a pgx pool and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return &Postgres{db: pool, logger: logger}, nil
}

func (p *Postgres) LoadAll(ctx context.Context, kind string) ([]Record, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, data FROM cognitive_records WHERE kind = $1 ORDER BY id`, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Data); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", kind, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveAll replaces the kind's record set in one transaction.
func (p *Postgres) SaveAll(ctx context.Context, kind string, records []Record) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", kind, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM cognitive_records WHERE kind = $1`, kind); err != nil {
		return fmt.Errorf("clear %s: %w", kind, err)
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO cognitive_records (kind, id, data, updated_at)
			VALUES ($1, $2, $3, NOW())`,
			kind, r.ID, r.Data)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Close() {
	p.db.Close()
}
