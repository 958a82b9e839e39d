package contrib

import (
	"path/filepath"
	"testing"

	"github.com/mbrandt/chorus/internal/meta"
	"github.com/mbrandt/chorus/internal/resolve"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
)

func testUnit(songs ...*meta.SongMeta) *resolve.ResolvedUnit {
	unit := &resolve.ResolvedUnit{Unit: &meta.AlbumUnit{Songs: songs}}
	for _, song := range songs {
		unit.Songs = append(unit.Songs, &resolve.ResolvedSong{Meta: song})
	}
	return unit
}

func TestAssignCollectsRoles(t *testing.T) {
	a := New(&settings.Config{})

	unit := testUnit(&meta.SongMeta{
		Title:      "Mother",
		Featuring:  []string{"Roger Waters"},
		Producers:  []string{"Bob Ezrin"},
		Publishers: []string{"Harvest"},
	})

	candidates := a.Assign(unit)
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}

	byIdentifier := map[string]*Candidate{}
	for _, c := range candidates {
		byIdentifier[c.MetaTagIdentifier] = c
	}
	if c := byIdentifier[TagFeaturing]; c == nil || c.Name != "Roger Waters" {
		t.Errorf("featuring candidate = %+v", c)
	}
	if c := byIdentifier[TagProducer]; c == nil || c.Name != "Bob Ezrin" {
		t.Errorf("producer candidate = %+v", c)
	}
	if c := byIdentifier[TagPublisher]; c == nil || c.Name != "Harvest" {
		t.Errorf("publisher candidate = %+v", c)
	}
}

func TestAssignIgnoreListsAreCaseInsensitive(t *testing.T) {
	a := New(&settings.Config{
		IgnoredPerformers: []string{"Various Artists"},
		IgnoredProduction: []string{"unknown"},
	})

	unit := testUnit(&meta.SongMeta{
		Title:      "Song",
		Featuring:  []string{"VARIOUS ARTISTS", "Roger Waters"},
		Producers:  []string{"Unknown"},
		Publishers: []string{"Harvest"},
	})

	candidates := a.Assign(unit)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (ignored names dropped)", len(candidates))
	}
	for _, c := range candidates {
		if c.Name == "VARIOUS ARTISTS" || c.Name == "Unknown" {
			t.Errorf("ignored name %q survived", c.Name)
		}
	}
}

func TestAssignDedupesSamePersonSameRole(t *testing.T) {
	a := New(&settings.Config{})

	// Same guest on two songs, plus the same person in a second role.
	unit := testUnit(
		&meta.SongMeta{Title: "One", Featuring: []string{"Roger Waters"}},
		&meta.SongMeta{Title: "Two", Featuring: []string{"roger waters"}, Producers: []string{"Roger Waters"}},
	)

	candidates := a.Assign(unit)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (one per identifier)", len(candidates))
	}
}

func TestCandidateRowInsertedOnceAcrossRescans(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	lib := &store.Library{Name: "storage", Path: "/m", Type: store.LibraryTypeStorage}
	if err := s.InsertLibrary(s.DB(), lib); err != nil {
		t.Fatalf("InsertLibrary() error = %v", err)
	}
	artist := &store.Artist{LibraryID: lib.ID, Name: "Pink Floyd", NameNormalized: "PINK FLOYD"}
	if err := s.InsertArtist(s.DB(), artist); err != nil {
		t.Fatalf("InsertArtist() error = %v", err)
	}
	album := &store.Album{ArtistID: artist.ID, Name: "The Wall", NameNormalized: "THE WALL"}
	if err := s.InsertAlbum(s.DB(), album); err != nil {
		t.Fatalf("InsertAlbum() error = %v", err)
	}

	c := &Candidate{Name: "Bob Ezrin", Role: "producer", MetaTagIdentifier: TagProducer}

	created, err := s.InsertContributor(s.DB(), c.Row(album.ID, nil))
	if err != nil || !created {
		t.Fatalf("first insert = %v, %v; want created", created, err)
	}
	created, err = s.InsertContributor(s.DB(), c.Row(album.ID, nil))
	if err != nil || created {
		t.Fatalf("rescan insert = %v, %v; want no-op", created, err)
	}

	// Linking a catalog artist dedupes on the artist id instead.
	guest := &Candidate{Name: "Roger Waters", Role: "artist", MetaTagIdentifier: TagFeaturing}
	waters := &store.Artist{LibraryID: lib.ID, Name: "Roger Waters", NameNormalized: "ROGER WATERS"}
	if err := s.InsertArtist(s.DB(), waters); err != nil {
		t.Fatalf("InsertArtist() error = %v", err)
	}
	created, err = s.InsertContributor(s.DB(), guest.Row(album.ID, waters))
	if err != nil || !created {
		t.Fatalf("artist-linked insert = %v, %v; want created", created, err)
	}
	created, err = s.InsertContributor(s.DB(), guest.Row(album.ID, waters))
	if err != nil || created {
		t.Fatalf("artist-linked rescan = %v, %v; want no-op", created, err)
	}

	n, err := s.CountContributors()
	if err != nil {
		t.Fatalf("CountContributors() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountContributors() = %d, want 2", n)
	}
}
