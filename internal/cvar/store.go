package cvar

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store persists cvar values in SQLite so tuned settings survive
// restarts. WAL mode allows concurrent reads while the engine writes.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens the cvar database at path.
// Idempotent: pragmas and schema are applied on every open.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cvar database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect cvar database: %w", err)
	}

	// SQLite supports a single writer; keep one connection to avoid
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cvar schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts every registered variable's current value.
func (s *Store) Save(ctx context.Context, m *Manager) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cvar save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cvars (name, type, value, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare cvar upsert: %w", err)
	}
	defer stmt.Close()

	for _, name := range m.Names() {
		typ, _, err := m.Info(name)
		if err != nil {
			return err
		}
		val, err := m.Get(name)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, name, typ.String(), val); err != nil {
			return fmt.Errorf("save cvar %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// PersistedVar is one row of the cvar table, as read back for
// inspection tooling.
type PersistedVar struct {
	Name      string
	Type      string
	Value     string
	UpdatedAt string
}

// Rows returns every persisted variable, ordered by name. Used by the
// cvar CLI; the engine itself goes through Load.
func (s *Store) Rows(ctx context.Context) ([]PersistedVar, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, value, updated_at FROM cvars ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cvars: %w", err)
	}
	defer rows.Close()

	var out []PersistedVar
	for rows.Next() {
		var v PersistedVar
		if err := rows.Scan(&v.Name, &v.Type, &v.Value, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cvar row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetRaw upserts one variable's raw value without consulting a manager.
// Used by the cvar CLI to edit persisted settings offline.
func (s *Store) SetRaw(ctx context.Context, name, typ, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cvars (name, type, value, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, NormalizeName(name), typ, value)
	if err != nil {
		return fmt.Errorf("set cvar %s: %w", name, err)
	}
	return nil
}

// Load applies persisted values to the manager's registered variables.
// Rows for variables that are no longer registered, or whose stored
// value fails to parse against the registered type, are skipped with a
// warning: stale persistence must not break startup.
func (s *Store) Load(ctx context.Context, m *Manager) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM cvars`)
	if err != nil {
		return fmt.Errorf("load cvars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("scan cvar row: %w", err)
		}
		if err := m.Set(name, value); err != nil {
			slog.Warn("skipping persisted cvar", "name", name, "error", err)
		}
	}
	return rows.Err()
}
