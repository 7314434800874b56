package media

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imagepick/internal/domain"
	"imagepick/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	path                TEXT NOT NULL UNIQUE,
	display_name        TEXT NOT NULL,
	mime_type           TEXT NOT NULL,
	size                INTEGER NOT NULL,
	date_modified       INTEGER NOT NULL,
	bucket_id           INTEGER NOT NULL,
	bucket_display_name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_bucket ON images(bucket_id);
CREATE INDEX IF NOT EXISTS idx_images_modified ON images(date_modified);
`

// SQLiteIndex is an in-memory media index queried with SQL selection clauses.
// From ScopedIndexVersion on it keeps the configuration's constraints itself
// and applies them to queries that come without a predicate.
type SQLiteIndex struct {
	db      *sql.DB
	version int

	mu    sync.RWMutex
	scope *domain.Predicate
}

// OpenSQLiteIndex creates an empty index reporting the given version
func OpenSQLiteIndex(version int) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}

	return &SQLiteIndex{db: db, version: version}, nil
}

// Version returns the index version
func (x *SQLiteIndex) Version() int {
	return x.version
}

// IsAtLeast reports whether the index version is at least version
func (x *SQLiteIndex) IsAtLeast(version int) bool {
	return x.version >= version
}

// Scope replaces the constraints applied to unfiltered queries. Indexes older
// than ScopedIndexVersion ignore it.
func (x *SQLiteIndex) Scope(cfg domain.Configuration) {
	if !x.IsAtLeast(ScopedIndexVersion) {
		return
	}
	scope := ConfigTranslator{}.Translate(cfg)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.scope = scope
}

// Insert upserts entries, keyed by path
func (x *SQLiteIndex) Insert(ctx context.Context, entries []FileEntry) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO images (path, display_name, mime_type, size, date_modified, bucket_id, bucket_display_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			display_name = excluded.display_name,
			mime_type = excluded.mime_type,
			size = excluded.size,
			date_modified = excluded.date_modified,
			bucket_id = excluded.bucket_id,
			bucket_display_name = excluded.bucket_display_name`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, e.Name, e.MimeType, e.Size, e.ModTime.UnixNano(), e.BucketID, e.BucketName); err != nil {
			return fmt.Errorf("failed to insert %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Count returns the number of indexed images
func (x *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return n, nil
}

// ListImages returns the indexed images, newest first, narrowed by predicate
// when one is given and by the index scope otherwise
func (x *SQLiteIndex) ListImages(ctx context.Context, predicate *domain.Predicate) ([]domain.Image, error) {
	start := time.Now()

	if predicate == nil {
		x.mu.RLock()
		predicate = x.scope
		x.mu.RUnlock()
	}

	query := "SELECT id, path, display_name, bucket_id, bucket_display_name FROM images"
	var args []any
	if predicate != nil && predicate.Clause != "" {
		query += " WHERE " + predicate.Clause
		args = predicate.Args
	}
	query += " ORDER BY date_modified DESC, id DESC"

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var images []domain.Image
	for rows.Next() {
		var (
			img  domain.Image
			path string
		)
		if err := rows.Scan(&img.ID, &path, &img.Name, &img.BucketID, &img.BucketName); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		img.URI = FileURI(path)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}

	logging.Debug("Index query returned %d images in %v (predicate: %v)", len(images), time.Since(start), predicate)
	return images, nil
}

// Close releases the database
func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}

// BuildOptions configures BuildIndex
type BuildOptions struct {
	Version    int
	MaxDepth   int
	SkipHidden bool
	// Config is the initial scope when Version is at least ScopedIndexVersion
	Config domain.Configuration
}

// BuildIndex scans root into a fresh index
func BuildIndex(ctx context.Context, root string, opts BuildOptions) (*SQLiteIndex, error) {
	idx, err := OpenSQLiteIndex(opts.Version)
	if err != nil {
		return nil, err
	}

	// Every image file is indexed; constraints apply at query time so a
	// later configuration still sees the whole set
	entries, err := NewScanner(ScanOptions{
		MaxDepth:   opts.MaxDepth,
		SkipHidden: opts.SkipHidden,
	}).Scan(ctx, root)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}
	if err := idx.Insert(ctx, entries); err != nil {
		_ = idx.Close()
		return nil, err
	}
	idx.Scope(opts.Config)

	logging.Info("Indexed %d images under %s (index v%d)", len(entries), root, opts.Version)
	return idx, nil
}
