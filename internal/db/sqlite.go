package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Only outcomes are recorded. Message content never reaches this database.
const schema = `
CREATE TABLE IF NOT EXISTS relay_audit (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    outcome TEXT NOT NULL,
    model TEXT NOT NULL,
    message_count INTEGER NOT NULL,
    status INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_relay_audit_created_at ON relay_audit(created_at);`

type AuditEntry struct {
	ID           int64     `json:"id"`
	Outcome      string    `json:"outcome"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	Status       int       `json:"status"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

func (db *Database) RecordCompletion(ctx context.Context, entry *AuditEntry) error {
	query := `
        INSERT INTO relay_audit (outcome, model, message_count, status, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING id`

	createdAt := time.Now().UTC()
	err := db.db.QueryRowContext(ctx, query,
		entry.Outcome, entry.Model, entry.MessageCount, entry.Status, entry.DurationMS, createdAt,
	).Scan(&entry.ID)
	if err != nil {
		return err
	}
	entry.CreatedAt = createdAt
	return nil
}

// RecentCompletions returns up to limit entries, newest first.
func (db *Database) RecentCompletions(ctx context.Context, limit int) ([]AuditEntry, error) {
	query := `
        SELECT id, outcome, model, message_count, status, duration_ms, created_at
        FROM relay_audit
        ORDER BY id DESC
        LIMIT ?`

	rows, err := db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return []AuditEntry{}, err
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(&e.ID, &e.Outcome, &e.Model, &e.MessageCount, &e.Status, &e.DurationMS, &e.CreatedAt)
		if err != nil {
			return []AuditEntry{}, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByOutcome totals recorded completions per outcome.
func (db *Database) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM relay_audit GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
