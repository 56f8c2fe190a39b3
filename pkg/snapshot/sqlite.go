// Package snapshot persists memory records to a local SQLite database.
//
// A snapshot is a full replacement of the previous one: Save writes all
// records in a single transaction after clearing the table, and Load returns
// them in insertion order. Embeddings are stored as JSON arrays; the store
// is a durability mechanism, not a queryable index.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one persisted memory.
type Record struct {
	ID             int64
	Content        string
	Embedding      []float32
	Importance     float64
	Kind           string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Store is a SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding TEXT,
	importance REAL NOT NULL,
	kind TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	last_accessed_at TIMESTAMP NOT NULL
);
`

// Open opens (creating if necessary) the snapshot database at path. Use
// ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Save replaces the stored snapshot with the given records atomically.
func (s *Store) Save(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM memories"); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memories (id, content, embedding, importance, kind, created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		embedding, err := encodeEmbedding(r.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding for memory %d: %w", r.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Content, embedding, r.Importance, r.Kind,
			r.CreatedAt.UTC(), r.LastAccessedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert memory %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load returns all stored records in the order they were saved.
func (s *Store) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, importance, kind, created_at, last_accessed_at
		FROM memories ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r        Record
			embedded sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Content, &embedded, &r.Importance,
			&r.Kind, &r.CreatedAt, &r.LastAccessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		if embedded.Valid && embedded.String != "" {
			embedding, err := decodeEmbedding(embedded.String)
			if err != nil {
				return nil, fmt.Errorf("failed to decode embedding for memory %d: %w", r.ID, err)
			}
			r.Embedding = embedding
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeEmbedding(embedding []float32) (string, error) {
	if embedding == nil {
		return "", nil
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEmbedding(data string) ([]float32, error) {
	var embedding []float32
	if err := json.Unmarshal([]byte(data), &embedding); err != nil {
		return nil, err
	}
	return embedding, nil
}
