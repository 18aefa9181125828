// Package sqlite implements the row store on an embedded SQLite database for
// local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	featured INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created ON products(created_at);

CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS details (
	id TEXT PRIMARY KEY,
	phone_number TEXT NOT NULL,
	catalog_url TEXT NOT NULL,
	hero_images TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS text_content (
	id TEXT PRIMARY KEY,
	section TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_text_content_section ON text_content(section);

CREATE TABLE IF NOT EXISTS admin_keys (
	id TEXT PRIMARY KEY,
	access_key TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);
`

// Store is a repositories.Registry backed by one SQLite database.
type Store struct {
	db *sql.DB
}

var _ repositories.Registry = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}

	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Products() repositories.ProductRepository { return productRepository{db: s.db} }

func (s *Store) Categories() repositories.CategoryRepository { return categoryRepository{db: s.db} }

func (s *Store) Details() repositories.DetailsRepository { return detailsRepository{db: s.db} }

func (s *Store) TextContent() repositories.TextContentRepository {
	return textContentRepository{db: s.db}
}

func (s *Store) AdminKeys() repositories.AdminKeyRepository { return adminKeyRepository{db: s.db} }

func (s *Store) Ping(ctx context.Context) error {
	return wrapError("ping", s.db.PingContext(ctx))
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// expectOne turns a zero-row mutation into a not-found error.
func expectOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(op, err)
	}
	if n == 0 {
		return wrapError(op, sql.ErrNoRows)
	}
	return nil
}
