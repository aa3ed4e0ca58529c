// Package freshrss reads articles from a FreshRSS SQLite database.
// The database is always opened in read-only URI mode; feedlens never
// writes to the upstream store.
package freshrss

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ContentSource = (*Source)(nil)

// Source is a read-only view over a FreshRSS SQLite database.
type Source struct {
	db   *sql.DB
	path string
}

// Open opens the FreshRSS database at path in read-only mode.
// Returns domain.ErrSourceUnavailable when the file does not exist.
func Open(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s (check source.freshrss_path)", domain.ErrSourceUnavailable, path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrSourceUnavailable, path, err)
	}

	return &Source{db: db, path: path}, nil
}

// Factory opens a fresh Source per operation, so no connection is held
// across sync sleeps.
type Factory struct {
	Path string
}

// Ensure Factory implements the interface.
var _ driven.ContentSourceFactory = (*Factory)(nil)

// Open implements driven.ContentSourceFactory.
func (f *Factory) Open(_ context.Context) (driven.ContentSource, error) {
	return Open(f.Path)
}

// Close releases the underlying connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Source) Path() string {
	return s.path
}

// EntriesAfter returns entries with id > afterID ordered ascending,
// optionally restricted to the given category ids.
func (s *Source) EntriesAfter(ctx context.Context, afterID int64, categoryIDs []int64) ([]domain.Entry, error) {
	query := `
		SELECT
			e.id, e.guid, e.title, e.author, e.content, e.link, e.date,
			e.id_feed, f.category, c.name
		FROM entry e
		JOIN feed f ON e.id_feed = f.id
		LEFT JOIN category c ON f.category = c.id
		WHERE e.id > ?
	`
	args := []any{afterID}

	if len(categoryIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categoryIDs)), ",")
		query += fmt.Sprintf(" AND f.category IN (%s)", placeholders)
		for _, id := range categoryIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY e.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.Entry
		var author, categoryName sql.NullString
		var categoryID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.GUID, &e.Title, &author, &e.Content, &e.Link,
			&e.PublishedAt, &e.FeedID, &categoryID, &categoryName); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Author = author.String
		if categoryID.Valid {
			e.CategoryID = &categoryID.Int64
		}
		e.CategoryName = categoryName.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

// CategoryIDs resolves category names to ids. Unknown names resolve to
// nothing rather than an error.
func (s *Source) CategoryIDs(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM category")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		byName[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	var ids []int64 //nolint:prealloc // unknown names are dropped
	for _, name := range names {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ExistingEntryIDs reports which of the given entry ids still exist,
// using a single IN query.
func (s *Source) ExistingEntryIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM entry WHERE id IN (%s)", placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying entry ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning entry id: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry ids: %w", err)
	}

	return existing, nil
}

// FeedByName looks a feed up by exact name.
func (s *Source) FeedByName(ctx context.Context, name string) (*domain.Feed, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, category FROM feed WHERE name = ?", name)

	var feed domain.Feed
	var categoryID sql.NullInt64
	if err := row.Scan(&feed.ID, &feed.Name, &categoryID); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning feed: %w", err)
	}
	if categoryID.Valid {
		feed.CategoryID = &categoryID.Int64
	}
	return &feed, nil
}

// FeedName resolves a feed id to its display name.
func (s *Source) FeedName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM feed WHERE id = ?", id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scanning feed name: %w", err)
	}
	return name, nil
}
