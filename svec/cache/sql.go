package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/go-libsql"
)

// maxKeysPerQuery bounds the IN (...) list of a single lookup.
const maxKeysPerQuery = 256

// SQLStore persists embeddings in a local libSQL database file.
type SQLStore struct {
	db   *sql.DB
	dims int
}

// NewSQLStore opens (or creates) the database at path.
func NewSQLStore(path string, dims int) (*SQLStore, error) {
	if dims <= 0 || dims > 65536 {
		return nil, fmt.Errorf("embedding dims must be between 1 and 65536 inclusive: %d", dims)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache %s: %w", path, err)
	}
	s := &SQLStore{db: db, dims: dims}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// init sets up the embeddings table.
func (s *SQLStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS embeddings (
		key TEXT PRIMARY KEY,
		dims INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create embeddings table: %w", err)
	}
	return nil
}

// Get looks keys up in batches; rows stored with other dims are ignored.
func (s *SQLStore) Get(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	for start := 0; start < len(keys); start += maxKeysPerQuery {
		batch := keys[start:min(start+maxKeysPerQuery, len(keys))]
		args := make([]any, 0, len(batch)+1)
		args = append(args, s.dims)
		for _, k := range batch {
			args = append(args, k)
		}
		query := "SELECT key, vector FROM embeddings WHERE dims = ? AND key IN (" +
			strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",") + ")"

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query embeddings: %w", err)
		}
		for rows.Next() {
			var (
				key  string
				blob []byte
			)
			if err := rows.Scan(&key, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan embedding: %w", err)
			}
			vec, err := DecodeVector(blob, s.dims)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[key] = vec
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read embeddings: %w", err)
		}
	}
	return out, nil
}

// Put upserts entries in one transaction.
func (s *SQLStore) Put(ctx context.Context, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be a no-op if transaction is committed

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO embeddings (key, dims, vector) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for k, v := range entries {
		if len(v) != s.dims {
			return fmt.Errorf("vector must have exactly %d dimensions, got %d", s.dims, len(v))
		}
		if _, err := stmt.ExecContext(ctx, k, s.dims, EncodeVector(v)); err != nil {
			return fmt.Errorf("failed to insert embedding: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
