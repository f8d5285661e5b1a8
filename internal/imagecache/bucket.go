package imagecache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

var (
	// ErrNotFound is returned when a bucket has no entry for a URL or key.
	ErrNotFound = errors.New("imagecache: not found")
	// ErrUnavailable is returned when the bucket storage cannot be used.
	ErrUnavailable = errors.New("imagecache: storage unavailable")
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    bucket       TEXT NOT NULL,
    url          TEXT NOT NULL,
    key          TEXT NOT NULL,
    content_type TEXT NOT NULL,
    body         BLOB NOT NULL,
    stored_at    INTEGER NOT NULL,
    PRIMARY KEY (bucket, url)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_key ON cache_entries(bucket, key);
`

// Entry is one stored response.
type Entry struct {
	URL         string
	Key         string
	ContentType string
	Body        []byte
	StoredAt    time.Time
}

// Stats summarizes a bucket.
type Stats struct {
	Bucket  string
	Entries int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Bucket is a named URL -> response store. There is at most one entry per
// URL; an entry is only ever replaced wholesale by a newer fetch. Nothing is
// evicted.
type Bucket struct {
	db          *sql.DB
	name        string
	retryConfig retry.Config
}

// Key derives the stable media key for a URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	// First 16 bytes are plenty to keep keys unique per bucket.
	return hex.EncodeToString(sum[:16])
}

// OpenBucket opens (or creates) the named bucket in the SQLite database at
// dbPath. Parent directories are created as needed.
func OpenBucket(dbPath, name string) (*Bucket, error) {
	if name == "" {
		return nil, errors.New("bucket name is empty")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One connection keeps PRAGMAs in effect and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Bucket{
		db:   db,
		name: name,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// Close closes the underlying database.
func (b *Bucket) Close() error {
	return b.db.Close()
}

// Match looks up the entry stored for url.
func (b *Bucket) Match(ctx context.Context, url string) (*Entry, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT url, key, content_type, body, stored_at FROM cache_entries WHERE bucket = ? AND url = ?`,
		b.name, url)
	return scanEntry(row)
}

// MatchKey looks up an entry by its media key.
func (b *Bucket) MatchKey(ctx context.Context, key string) (*Entry, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT url, key, content_type, body, stored_at FROM cache_entries WHERE bucket = ? AND key = ?`,
		b.name, key)
	return scanEntry(row)
}

// Has reports whether url has an entry, without loading the body.
func (b *Bucket) Has(ctx context.Context, url string) (bool, error) {
	var n int
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cache_entries WHERE bucket = ? AND url = ?`, b.name, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query cache: %w", err)
	}
	return n > 0, nil
}

// Put stores e, replacing any existing entry for the same URL.
func (b *Bucket) Put(ctx context.Context, e Entry) error {
	if e.URL == "" {
		return errors.New("entry URL is empty")
	}
	if e.Key == "" {
		e.Key = Key(e.URL)
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now()
	}

	retryer := retry.New[struct{}](b.retryConfig)
	_, err := retryer.Do(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := b.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO cache_entries (bucket, url, key, content_type, body, stored_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.name, e.URL, e.Key, e.ContentType, e.Body, e.StoredAt.UnixMilli())
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", redactURL(e.URL), err)
	}
	return nil
}

// Stats reports entry count and total body size.
func (b *Bucket) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Bucket: b.name}
	var oldest, newest sql.NullInt64
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(LENGTH(body)), 0), MIN(stored_at), MAX(stored_at)
		 FROM cache_entries WHERE bucket = ?`, b.name).
		Scan(&st.Entries, &st.Bytes, &oldest, &newest)
	if err != nil {
		return st, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if oldest.Valid {
		st.Oldest = time.UnixMilli(oldest.Int64)
	}
	if newest.Valid {
		st.Newest = time.UnixMilli(newest.Int64)
	}
	return st, nil
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var (
		e        Entry
		storedAt int64
	)
	err := row.Scan(&e.URL, &e.Key, &e.ContentType, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	e.StoredAt = time.UnixMilli(storedAt)
	return &e, nil
}
