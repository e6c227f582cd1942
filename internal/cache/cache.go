package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTTL is how long a cached record stays valid.
const DefaultTTL = 7 * 24 * time.Hour

type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
	path    string
	ttl     time.Duration

	lookups atomic.Int64
	hits    atomic.Int64
}

func Open(dbPath string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB, path: dbPath, ttl: ttl}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS content_cache (
			url        TEXT PRIMARY KEY,
			fetched_at DATETIME NOT NULL,
			payload    BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_content_fetched_at ON content_cache(fetched_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Lookup returns the record for url if a still-valid entry exists. Expired
// entries behave as absent; they are not deleted here. Only valid entries
// count as hits for the hit ratio.
func (c *Cache) Lookup(url string) (Record, bool, error) {
	c.lookups.Add(1)

	var (
		fetchedAt time.Time
		payload   []byte
	)
	err := c.readDB.QueryRow(
		"SELECT fetched_at, payload FROM content_cache WHERE url = ?", url,
	).Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("looking up %s: %w", url, err)
	}

	if !fetchedAt.After(time.Now().Add(-c.ttl)) {
		return Record{}, false, nil
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decoding payload for %s: %w", url, err)
	}

	c.hits.Add(1)
	return rec, true, nil
}

// Store writes through a freshly fetched record, replacing any prior entry
// for the same URL and resetting its fetch time to now.
func (c *Cache) Store(url string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", url, err)
	}

	_, err = c.writeDB.Exec(`
		INSERT INTO content_cache (url, fetched_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload = excluded.payload
	`, url, time.Now(), payload)
	if err != nil {
		return fmt.Errorf("storing %s: %w", url, err)
	}
	return nil
}

// UpdateScore rewrites the stored payload's relevance score. The entry's
// fetch time is left alone, so rescoring never extends an entry's life.
// Updating a missing URL is a no-op.
func (c *Cache) UpdateScore(url string, score float64) error {
	var payload []byte
	err := c.readDB.QueryRow(
		"SELECT payload FROM content_cache WHERE url = ?", url,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading payload for %s: %w", url, err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("decoding payload for %s: %w", url, err)
	}
	rec.RelevanceScore = score

	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", url, err)
	}
	if _, err := c.writeDB.Exec(
		"UPDATE content_cache SET payload = ? WHERE url = ?", buf, url,
	); err != nil {
		return fmt.Errorf("updating score for %s: %w", url, err)
	}
	return nil
}

// SweepExpired deletes every entry whose age has reached the TTL and reports
// how many were removed. Valid entries are untouched.
func (c *Cache) SweepExpired() (int64, error) {
	return c.Sweep(c.ttl)
}

func (c *Cache) Sweep(maxAge time.Duration) (int64, error) {
	res, err := c.writeDB.Exec(
		"DELETE FROM content_cache WHERE fetched_at <= ?", time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("sweeping cache: %w", err)
	}
	return res.RowsAffected()
}

func (c *Cache) Stats() (Stats, error) {
	var s Stats
	err := c.readDB.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN fetched_at > ? THEN 1 ELSE 0 END), 0)
		FROM content_cache
	`, time.Now().Add(-c.ttl)).Scan(&s.Total, &s.Valid)
	if err != nil {
		return Stats{}, fmt.Errorf("reading stats: %w", err)
	}
	s.Expired = s.Total - s.Valid

	if n := c.lookups.Load(); n > 0 {
		s.HitRatio = float64(c.hits.Load()) / float64(n)
	}
	return s, nil
}

// Size reports the cache file's size on disk.
func (c *Cache) Size() (int64, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Records loads valid entries for the browse surface, filtered and ordered by
// relevance score descending. Filtering happens in Go: the payload column is
// an opaque blob as far as SQL is concerned.
func (c *Cache) Records(opts QueryOpts) ([]Record, error) {
	rows, err := c.readDB.Query(
		"SELECT payload FROM content_cache WHERE fetched_at > ? ORDER BY fetched_at DESC",
		time.Now().Add(-c.ttl),
	)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			continue // skip undecodable rows rather than failing the listing
		}
		if rec.RelevanceScore < opts.MinScore {
			continue
		}
		if opts.Search != "" && !matchesSearch(rec, opts.Search) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RelevanceScore > records[j].RelevanceScore
	})

	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	return records, nil
}

func matchesSearch(rec Record, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(rec.Title), term) ||
		strings.Contains(strings.ToLower(rec.SourceLabel), term) ||
		strings.Contains(strings.ToLower(rec.Body), term)
}
