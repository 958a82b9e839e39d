package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mbrandt/chorus/internal/util"
)

// Cached lookups are reused for this long before a provider is asked again.
const searchCacheTTL = 30 * 24 * time.Hour

// Cache memoizes provider lookups in the catalog database so repeated
// enrichment passes do not hit the network for names already resolved.
// It wraps any Provider and satisfies Provider itself; only successful
// lookups are stored.
type Cache struct {
	db    *sql.DB
	inner Provider
	ttl   time.Duration
}

// NewCache creates a cache in front of a provider, creating its table
// on first use
func NewCache(db *sql.DB, inner Provider) (*Cache, error) {
	c := &Cache{db: db, inner: inner, ttl: searchCacheTTL}
	if err := c.ensureSchema(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) ensureSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS search_cache (
			provider TEXT NOT NULL,
			query TEXT NOT NULL,
			external_id TEXT NOT NULL,
			name TEXT NOT NULL,
			sort_name TEXT NOT NULL DEFAULT '',
			total INTEGER NOT NULL DEFAULT 0,
			hit_count INTEGER NOT NULL DEFAULT 0,
			cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (provider, query)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create search_cache table: %w", err)
	}
	return nil
}

// Name reports the wrapped provider's name
func (c *Cache) Name() string {
	return c.inner.Name()
}

// SearchArtist returns a cached match when one is fresh enough,
// otherwise asks the wrapped provider and stores what it found
func (c *Cache) SearchArtist(ctx context.Context, name string, limit int) (*Match, int, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	if match, total, ok := c.lookup(key); ok {
		util.DebugLog("Search cache hit for %s: %q", c.inner.Name(), name)
		return match, total, nil
	}

	match, total, err := c.inner.SearchArtist(ctx, name, limit)
	if err != nil {
		return nil, 0, err
	}
	if match != nil {
		if err := c.put(key, match, total); err != nil {
			util.WarnLog("Failed to cache %s lookup for %q: %v", c.inner.Name(), name, err)
		}
	}
	return match, total, nil
}

func (c *Cache) lookup(key string) (*Match, int, bool) {
	var match Match
	var total int
	var cachedAt time.Time
	err := c.db.QueryRow(`
		SELECT external_id, name, sort_name, total, cached_at
		FROM search_cache WHERE provider = ? AND query = ?
	`, c.inner.Name(), key).Scan(&match.ExternalID, &match.Name, &match.SortName, &total, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, 0, false
	}
	if err != nil {
		util.DebugLog("Search cache read failed: %v", err)
		return nil, 0, false
	}
	if time.Since(cachedAt) > c.ttl {
		return nil, 0, false
	}

	if _, err := c.db.Exec(`
		UPDATE search_cache SET hit_count = hit_count + 1
		WHERE provider = ? AND query = ?
	`, c.inner.Name(), key); err != nil {
		util.DebugLog("Failed to bump cache hit count: %v", err)
	}
	return &match, total, true
}

func (c *Cache) put(key string, match *Match, total int) error {
	_, err := c.db.Exec(`
		INSERT INTO search_cache (provider, query, external_id, name, sort_name, total, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, query) DO UPDATE SET
			external_id = excluded.external_id,
			name = excluded.name,
			sort_name = excluded.sort_name,
			total = excluded.total,
			cached_at = excluded.cached_at
	`, c.inner.Name(), key, match.ExternalID, match.Name, match.SortName, total, time.Now().UTC())
	return err
}

// PruneSearchCache drops cache rows older than the cutoff. Missing
// table means nothing was ever cached, which is fine.
func PruneSearchCache(db *sql.DB, olderThan time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM search_cache WHERE cached_at < ?`, olderThan.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to prune search cache: %w", err)
	}
	return result.RowsAffected()
}
