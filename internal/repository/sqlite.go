package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cognitive_records (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (kind, id)
)`

// SQLite persists records in a local database file. The pure-Go driver keeps
// the binary cgo-free.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens (or creates) the database file and ensures the schema.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("SQLite opened", zap.String("path", path))
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) LoadAll(ctx context.Context, kind string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM cognitive_records WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r    Record
			data string
		)
		if err := rows.Scan(&r.ID, &data); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", kind, err)
		}
		r.Data = []byte(data)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveAll replaces the kind's record set in one transaction.
func (s *SQLite) SaveAll(ctx context.Context, kind string, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", kind, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cognitive_records WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("clear %s: %w", kind, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cognitive_records (kind, id, data, updated_at)
		VALUES (?, ?, ?, datetime('now'))`)
	if err != nil {
		return fmt.Errorf("prepare save %s: %w", kind, err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, kind, r.ID, string(r.Data)); err != nil {
			return fmt.Errorf("save %s record %s: %w", kind, r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() {
	_ = s.db.Close()
}
