package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestLibrary(t *testing.T, s *Store, typ LibraryType) *Library {
	t.Helper()
	l := &Library{Name: typ.String(), Path: "/music/" + typ.String(), Type: typ}
	if err := s.InsertLibrary(s.DB(), l); err != nil {
		t.Fatalf("InsertLibrary() error = %v", err)
	}
	return l
}

func insertTestArtist(t *testing.T, s *Store, libraryID int64, name, normalized string) *Artist {
	t.Helper()
	a := &Artist{LibraryID: libraryID, Name: name, NameNormalized: normalized, SortName: name}
	if err := s.InsertArtist(s.DB(), a); err != nil {
		t.Fatalf("InsertArtist() error = %v", err)
	}
	return a
}

func insertTestAlbum(t *testing.T, s *Store, artistID int64, name, normalized string) *Album {
	t.Helper()
	a := &Album{ArtistID: artistID, Name: name, NameNormalized: normalized, SortName: name}
	if err := s.InsertAlbum(s.DB(), a); err != nil {
		t.Fatalf("InsertAlbum() error = %v", err)
	}
	return a
}

func TestOpenMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Errorf("CheckIntegrity() error = %v", err)
	}
	s.Close()

	// Reopening an already migrated database is a no-op.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	s.Close()
}

func TestLibraryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)

	if l.ID == 0 {
		t.Fatal("InsertLibrary() did not assign an ID")
	}
	if l.ApiKey == "" {
		t.Fatal("InsertLibrary() did not assign an ApiKey")
	}

	got, err := s.GetLibraryByType(LibraryTypeStorage)
	if err != nil {
		t.Fatalf("GetLibraryByType() error = %v", err)
	}
	if got == nil || got.ID != l.ID || got.Path != l.Path {
		t.Fatalf("GetLibraryByType() = %+v, want id %d", got, l.ID)
	}

	missing, err := s.GetLibraryByType(LibraryTypeInbound)
	if err != nil {
		t.Fatalf("GetLibraryByType() error = %v", err)
	}
	if missing != nil {
		t.Fatalf("GetLibraryByType(inbound) = %+v, want nil", missing)
	}
}

func TestLibraryTypeUnique(t *testing.T) {
	s := openTestStore(t)
	insertTestLibrary(t, s, LibraryTypeStorage)

	dup := &Library{Name: "second storage", Path: "/other", Type: LibraryTypeStorage}
	if err := s.InsertLibrary(s.DB(), dup); err == nil {
		t.Fatal("second library with the same role should fail")
	}
}

func TestLibraryCountsAndScanStamp(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)

	if err := s.UpdateLibraryCounts(s.DB(), l.ID, 2, 5, 50); err != nil {
		t.Fatalf("UpdateLibraryCounts() error = %v", err)
	}
	if err := s.UpdateLibraryCounts(s.DB(), l.ID, 0, -1, -10); err != nil {
		t.Fatalf("UpdateLibraryCounts() error = %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.TouchLibraryScanned(s.DB(), l.ID, at); err != nil {
		t.Fatalf("TouchLibraryScanned() error = %v", err)
	}

	got, err := s.GetLibraryByID(l.ID)
	if err != nil {
		t.Fatalf("GetLibraryByID() error = %v", err)
	}
	if got.ArtistCount != 2 || got.AlbumCount != 4 || got.SongCount != 40 {
		t.Errorf("counts = %d/%d/%d, want 2/4/40",
			got.ArtistCount, got.AlbumCount, got.SongCount)
	}
	if got.LastScanAt == nil || !got.LastScanAt.Equal(at) {
		t.Errorf("LastScanAt = %v, want %v", got.LastScanAt, at)
	}
}

func TestArtistNormalizedNameUniquePerLibrary(t *testing.T) {
	s := openTestStore(t)
	storage := insertTestLibrary(t, s, LibraryTypeStorage)
	staging := insertTestLibrary(t, s, LibraryTypeStaging)

	insertTestArtist(t, s, storage.ID, "Pink Floyd", "PINK FLOYD")

	dup := &Artist{LibraryID: storage.ID, Name: "Pink  Floyd", NameNormalized: "PINK FLOYD"}
	if err := s.InsertArtist(s.DB(), dup); err == nil {
		t.Fatal("duplicate normalized name in the same library should fail")
	}

	// The same normalized name in a different library is a distinct artist.
	other := &Artist{LibraryID: staging.ID, Name: "Pink Floyd", NameNormalized: "PINK FLOYD"}
	if err := s.InsertArtist(s.DB(), other); err != nil {
		t.Fatalf("same name in another library should insert, got %v", err)
	}
}

func TestArtistMusicBrainzIDLookup(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)

	a := &Artist{
		LibraryID:      l.ID,
		Name:           "Pink Floyd",
		NameNormalized: "PINK FLOYD",
		MusicBrainzID:  "83d91898-7763-47d7-b03b-b92132375c47",
	}
	if err := s.InsertArtist(s.DB(), a); err != nil {
		t.Fatalf("InsertArtist() error = %v", err)
	}

	// Empty external ids must not collide with each other.
	for _, name := range []string{"GENESIS", "YES"} {
		if err := s.InsertArtist(s.DB(), &Artist{
			LibraryID: l.ID, Name: name, NameNormalized: name,
		}); err != nil {
			t.Fatalf("InsertArtist(%s) error = %v", name, err)
		}
	}

	got, err := s.GetArtistByMusicBrainzID(a.MusicBrainzID)
	if err != nil {
		t.Fatalf("GetArtistByMusicBrainzID() error = %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatalf("GetArtistByMusicBrainzID() = %+v, want id %d", got, a.ID)
	}

	got, err = s.GetArtistByMusicBrainzID("")
	if err != nil || got != nil {
		t.Fatalf("GetArtistByMusicBrainzID(\"\") = %+v, %v; want nil, nil", got, err)
	}
}

func TestArtistEnrichmentUpdateAndListing(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)
	a := insertTestArtist(t, s, l.ID, "Pink Floyd", "PINK FLOYD")
	b := insertTestArtist(t, s, l.ID, "Genesis", "GENESIS")

	pending, err := s.ListArtistsForEnrichment(time.Time{}, 10)
	if err != nil {
		t.Fatalf("ListArtistsForEnrichment() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d artists, want 2", len(pending))
	}

	enrichedAt := time.Now().UTC().Add(-30 * 24 * time.Hour)
	a.MusicBrainzID = "83d91898-7763-47d7-b03b-b92132375c47"
	a.MetaDataStatus = MetaDataStatusEnriched
	a.LastEnrichedAt = &enrichedAt
	if err := s.UpdateArtistEnrichment(s.DB(), a); err != nil {
		t.Fatalf("UpdateArtistEnrichment() error = %v", err)
	}

	// With no refresh cutoff only unprocessed artists are returned.
	pending, err = s.ListArtistsForEnrichment(time.Time{}, 10)
	if err != nil {
		t.Fatalf("ListArtistsForEnrichment() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("pending = %+v, want just artist %d", pending, b.ID)
	}

	// A cutoff after the enrichment time pulls the stale artist back in.
	pending, err = s.ListArtistsForEnrichment(time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("ListArtistsForEnrichment() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("stale listing = %d artists, want 2", len(pending))
	}
}

func TestSongPositionUnique(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)
	artist := insertTestArtist(t, s, l.ID, "Pink Floyd", "PINK FLOYD")
	album := insertTestAlbum(t, s, artist.ID, "The Wall", "THE WALL")

	song := &Song{
		AlbumID: album.ID, Title: "In the Flesh?", TitleNormalized: "IN THE FLESH?",
		SongNumber: 1, FileHash: "abc", FileName: "01 In the Flesh.mp3",
	}
	if err := s.InsertSong(s.DB(), song); err != nil {
		t.Fatalf("InsertSong() error = %v", err)
	}
	if song.DiscNumber != 1 {
		t.Errorf("DiscNumber defaulted to %d, want 1", song.DiscNumber)
	}

	dup := &Song{AlbumID: album.ID, Title: "Other", SongNumber: 1, DiscNumber: 1}
	if err := s.InsertSong(s.DB(), dup); err == nil {
		t.Fatal("duplicate (album, disc, song number) should fail")
	}

	// Same number on another disc is a distinct song.
	disc2 := &Song{AlbumID: album.ID, Title: "Hey You", SongNumber: 1, DiscNumber: 2}
	if err := s.InsertSong(s.DB(), disc2); err != nil {
		t.Fatalf("same number on disc 2 should insert, got %v", err)
	}

	got, err := s.GetSongByPosition(album.ID, 1, 1)
	if err != nil {
		t.Fatalf("GetSongByPosition() error = %v", err)
	}
	if got == nil || got.ID != song.ID {
		t.Fatalf("GetSongByPosition() = %+v, want id %d", got, song.ID)
	}
}

func TestSongContentUpdate(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)
	artist := insertTestArtist(t, s, l.ID, "Pink Floyd", "PINK FLOYD")
	album := insertTestAlbum(t, s, artist.ID, "The Wall", "THE WALL")

	song := &Song{AlbumID: album.ID, Title: "Mother", SongNumber: 5, FileHash: "old"}
	if err := s.InsertSong(s.DB(), song); err != nil {
		t.Fatalf("InsertSong() error = %v", err)
	}

	song.FileHash = "new"
	song.BitRate = 320
	if err := s.UpdateSong(s.DB(), song); err != nil {
		t.Fatalf("UpdateSong() error = %v", err)
	}

	got, err := s.GetSongByID(song.ID)
	if err != nil {
		t.Fatalf("GetSongByID() error = %v", err)
	}
	if got.FileHash != "new" || got.BitRate != 320 {
		t.Errorf("updated song = hash %q bitrate %d, want new/320", got.FileHash, got.BitRate)
	}
}

func TestContributorDuplicateIsNoOp(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)
	artist := insertTestArtist(t, s, l.ID, "Pink Floyd", "PINK FLOYD")
	album := insertTestAlbum(t, s, artist.ID, "The Wall", "THE WALL")

	c := &Contributor{
		AlbumID: album.ID, ArtistID: &artist.ID,
		Role: "performer", MetaTagIdentifier: "albumartist",
	}
	created, err := s.InsertContributor(s.DB(), c)
	if err != nil {
		t.Fatalf("InsertContributor() error = %v", err)
	}
	if !created {
		t.Fatal("first insert reported not created")
	}

	again := &Contributor{
		AlbumID: album.ID, ArtistID: &artist.ID,
		Role: "performer", MetaTagIdentifier: "albumartist",
	}
	created, err = s.InsertContributor(s.DB(), again)
	if err != nil {
		t.Fatalf("InsertContributor() second error = %v", err)
	}
	if created {
		t.Fatal("duplicate contributor reported created")
	}

	// Free-text contributors dedupe on the name instead.
	name := &Contributor{
		AlbumID: album.ID, ContributorName: "Bob Ezrin",
		Role: "producer", MetaTagIdentifier: "producer",
	}
	if created, err = s.InsertContributor(s.DB(), name); err != nil || !created {
		t.Fatalf("named contributor insert = %v, %v; want created", created, err)
	}
	nameDup := &Contributor{
		AlbumID: album.ID, ContributorName: "Bob Ezrin",
		Role: "producer", MetaTagIdentifier: "producer",
	}
	if created, err = s.InsertContributor(s.DB(), nameDup); err != nil || created {
		t.Fatalf("named contributor dup = %v, %v; want no-op", created, err)
	}

	n, err := s.CountContributors()
	if err != nil {
		t.Fatalf("CountContributors() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountContributors() = %d, want 2", n)
	}
}

func TestArtistRelationDuplicatePair(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)
	a := insertTestArtist(t, s, l.ID, "Pink Floyd", "PINK FLOYD")
	b := insertTestArtist(t, s, l.ID, "Roger Waters", "ROGER WATERS")

	created, err := s.InsertArtistRelation(s.DB(), &ArtistRelation{
		ArtistID: a.ID, RelatedArtistID: b.ID, RelationType: "associated",
	})
	if err != nil || !created {
		t.Fatalf("InsertArtistRelation() = %v, %v; want created", created, err)
	}

	created, err = s.InsertArtistRelation(s.DB(), &ArtistRelation{
		ArtistID: a.ID, RelatedArtistID: b.ID, RelationType: "associated",
	})
	if err != nil || created {
		t.Fatalf("duplicate relation = %v, %v; want no-op", created, err)
	}

	relations, err := s.ListRelationsForArtist(a.ID)
	if err != nil {
		t.Fatalf("ListRelationsForArtist() error = %v", err)
	}
	if len(relations) != 1 {
		t.Errorf("relations = %d, want 1", len(relations))
	}
}

func TestScanHistoryAppendOnly(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)

	for i := 0; i < 3; i++ {
		if err := s.AppendScanHistory(s.DB(), &ScanHistory{
			LibraryID:         l.ID,
			FoundArtistsCount: i,
			DurationMs:        int64(100 * i),
		}); err != nil {
			t.Fatalf("AppendScanHistory() error = %v", err)
		}
	}

	history, err := s.ListScanHistory(l.ID, 2)
	if err != nil {
		t.Fatalf("ListScanHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("ListScanHistory() = %d rows, want 2", len(history))
	}
	// Most recent first.
	if history[0].FoundArtistsCount != 2 {
		t.Errorf("newest record FoundArtistsCount = %d, want 2", history[0].FoundArtistsCount)
	}

	n, err := s.CountScanHistory(l.ID)
	if err != nil {
		t.Fatalf("CountScanHistory() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountScanHistory() = %d, want 3", n)
	}
}

func TestSearchHistoryPrune(t *testing.T) {
	s := openTestStore(t)

	if err := s.AppendSearchHistory(s.DB(), &SearchHistory{
		Query: "Pink Floyd", Provider: "musicbrainz", FoundArtistsCount: 1,
	}); err != nil {
		t.Fatalf("AppendSearchHistory() error = %v", err)
	}

	// Rows newer than the cutoff survive.
	removed, err := s.PruneSearchHistory(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneSearchHistory() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("PruneSearchHistory() removed %d rows, want 0", removed)
	}

	removed, err = s.PruneSearchHistory(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneSearchHistory() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneSearchHistory() removed %d rows, want 1", removed)
	}
}

func TestTransactionRollback(t *testing.T) {
	s := openTestStore(t)
	l := insertTestLibrary(t, s, LibraryTypeStorage)

	wantErr := "boom"
	err := s.Transaction(func(tx *sql.Tx) error {
		if err := s.InsertArtist(tx, &Artist{
			LibraryID: l.ID, Name: "Pink Floyd", NameNormalized: "PINK FLOYD",
		}); err != nil {
			return err
		}
		return errTest(wantErr)
	})
	if err == nil || err.Error() != wantErr {
		t.Fatalf("Transaction() error = %v, want %q", err, wantErr)
	}

	n, err := s.CountArtists(l.ID)
	if err != nil {
		t.Fatalf("CountArtists() error = %v", err)
	}
	if n != 0 {
		t.Errorf("rolled back transaction left %d artists", n)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
