// Package sqlite provides the on-disk VectorStore. Chunk embeddings
// are stored as little-endian float32 blobs; similarity search is a
// brute-force scan ordered by cosine distance, which is fine at the
// scale of a personal feed archive.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/riverfold/feedlens/internal/adapters/driven/vectorstore"
	"github.com/riverfold/feedlens/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if necessary) the index database at the
// given path. If path is empty, defaults to ~/.feedlens/data/index.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".feedlens", "data", "index.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode so a query can read while the sync daemon writes.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// AddChunks inserts chunk rows inside one transaction.
func (s *Store) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, entry_id, chunk_index, content, embedding,
			published_at, feed_id, category_id, category_name, title, link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var categoryID any
		if c.CategoryID != nil {
			categoryID = *c.CategoryID
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.EntryID, c.ChunkIndex, c.Content,
			float32SliceToBytes(c.Vector), c.PublishedAt, c.FeedID,
			categoryID, nullString(c.CategoryName), c.Title, c.Link); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteByEntryIDs removes every chunk row for the given entries.
func (s *Store) DeleteByEntryIDs(ctx context.Context, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM chunks WHERE entry_id IN (%s)", placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting chunks by entry ids: %w", err)
	}
	return nil
}

// DeleteOlderThan removes chunk rows published before the threshold.
func (s *Store) DeleteOlderThan(ctx context.Context, threshold int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE published_at < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("deleting expired chunks: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired chunks: %w", err)
	}
	return removed, nil
}

// Search scans all rows and returns the k nearest by cosine distance,
// ascending.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, chunk_index, content, embedding,
			published_at, feed_id, category_id, category_name, title, link
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, domain.Candidate{
			Chunk:    *chunk,
			Distance: vectorstore.CosineDistance(vector, chunk.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if k >= 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// SyncState returns the checkpoint row, or the zero state if the store
// has never been written.
func (s *Store) SyncState(ctx context.Context) (domain.SyncState, error) {
	state := domain.SyncState{ID: domain.DefaultSyncStateID}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, last_entry_id, last_sync_at
		FROM sync_states WHERE id = ?
	`, domain.DefaultSyncStateID)

	err := row.Scan(&state.ID, &state.LastEntryID, &state.LastSyncAt)
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("scanning sync state: %w", err)
	}
	return state, nil
}

// SaveSyncState upserts the checkpoint row. SQLite's native upsert
// keeps this a single atomic statement.
func (s *Store) SaveSyncState(ctx context.Context, state domain.SyncState) error {
	if state.ID == "" {
		state.ID = domain.DefaultSyncStateID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_states (id, last_entry_id, last_sync_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_entry_id = excluded.last_entry_id,
			last_sync_at = excluded.last_sync_at
	`, state.ID, state.LastEntryID, state.LastSyncAt)

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// scanChunk scans one chunk row from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embedding []byte
	var categoryID sql.NullInt64
	var categoryName sql.NullString

	if err := rows.Scan(&chunk.ID, &chunk.EntryID, &chunk.ChunkIndex, &chunk.Content,
		&embedding, &chunk.PublishedAt, &chunk.FeedID,
		&categoryID, &categoryName, &chunk.Title, &chunk.Link); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Vector = bytesToFloat32Slice(embedding)
	if categoryID.Valid {
		chunk.CategoryID = &categoryID.Int64
	}
	chunk.CategoryName = categoryName.String
	return &chunk, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// nullString returns nil for empty strings so they store as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
