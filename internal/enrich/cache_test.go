package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbrandt/chorus/internal/store"
)

func newTestCache(t *testing.T, inner Provider) (*Cache, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	c, err := NewCache(s.DB(), inner)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	return c, s
}

func TestCacheServesRepeatedLookups(t *testing.T) {
	fake := &fakeProvider{name: "musicbrainz", match: &Match{ExternalID: "mbid-1", Name: "Pink Floyd", SortName: "Pink Floyd"}, total: 3}
	c, _ := newTestCache(t, fake)

	first, total, err := c.SearchArtist(context.Background(), "Pink Floyd", 10)
	if err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}
	if first == nil || first.ExternalID != "mbid-1" || total != 3 {
		t.Fatalf("SearchArtist() = %+v/%d, want mbid-1/3", first, total)
	}

	second, total, err := c.SearchArtist(context.Background(), "  pink floyd ", 10)
	if err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}
	if second == nil || second.ExternalID != "mbid-1" || second.SortName != "Pink Floyd" || total != 3 {
		t.Errorf("cached result = %+v/%d, want same match", second, total)
	}
	if fake.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second lookup cached)", fake.calls)
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	fake := &fakeProvider{name: "musicbrainz", err: errors.New("rate limited")}
	c, _ := newTestCache(t, fake)

	if _, _, err := c.SearchArtist(context.Background(), "Pink Floyd", 10); err == nil {
		t.Fatal("SearchArtist() succeeded, want provider error")
	}
	if _, _, err := c.SearchArtist(context.Background(), "Pink Floyd", 10); err == nil {
		t.Fatal("SearchArtist() succeeded, want provider error")
	}
	if fake.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (failures never cached)", fake.calls)
	}
}

func TestPruneSearchCache(t *testing.T) {
	fake := &fakeProvider{name: "musicbrainz", match: &Match{ExternalID: "mbid-1", Name: "Pink Floyd"}, total: 1}
	c, s := newTestCache(t, fake)

	if _, _, err := c.SearchArtist(context.Background(), "Pink Floyd", 10); err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}

	n, err := PruneSearchCache(s.DB(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneSearchCache() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PruneSearchCache() = %d, want 1", n)
	}

	if _, _, err := c.SearchArtist(context.Background(), "Pink Floyd", 10); err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("provider calls = %d, want 2 after prune", fake.calls)
	}
}

func TestPruneSearchCacheWithoutTable(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	n, err := PruneSearchCache(s.DB(), time.Now())
	if err != nil {
		t.Fatalf("PruneSearchCache() error = %v", err)
	}
	if n != 0 {
		t.Errorf("PruneSearchCache() = %d, want 0", n)
	}
}
