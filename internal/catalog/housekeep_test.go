package catalog

import (
	"errors"
	"testing"

	"github.com/mbrandt/chorus/internal/util"
)

func TestHousekeepRemovesOrphans(t *testing.T) {
	w, r, s, lib := newTestWriter(t)

	resolved, _ := commitWall(t, w, r, lib.ID, wallUnit())

	// Strip the album's songs so housekeeping sees an empty album,
	// then an empty artist.
	if _, err := s.DB().Exec("DELETE FROM songs WHERE album_id = ?", resolved.Album.ID); err != nil {
		t.Fatalf("delete songs: %v", err)
	}

	result, err := w.Housekeep(lib.ID)
	if err != nil {
		t.Fatalf("Housekeep() error = %v", err)
	}
	if result.AlbumsRemoved != 1 || result.ArtistsRemoved != 1 {
		t.Fatalf("result = %+v, want 1 album and 1 artist removed", result)
	}

	artist, _ := s.GetArtistByID(resolved.Artist.ID)
	if artist != nil {
		t.Error("empty artist survived housekeeping")
	}
	got, _ := s.GetLibraryByID(lib.ID)
	if got.ArtistCount != 0 || got.AlbumCount != 0 || got.SongCount != 0 {
		t.Errorf("library counts = %d/%d/%d, want zeros",
			got.ArtistCount, got.AlbumCount, got.SongCount)
	}
}

func TestHousekeepRepairsCountDrift(t *testing.T) {
	w, r, s, lib := newTestWriter(t)

	resolved, _ := commitWall(t, w, r, lib.ID, wallUnit())

	if _, err := s.DB().Exec("UPDATE artists SET song_count = 99 WHERE id = ?", resolved.Artist.ID); err != nil {
		t.Fatalf("corrupt counts: %v", err)
	}
	if _, err := s.DB().Exec("UPDATE libraries SET song_count = 42 WHERE id = ?", lib.ID); err != nil {
		t.Fatalf("corrupt counts: %v", err)
	}

	result, err := w.Housekeep(lib.ID)
	if err != nil {
		t.Fatalf("Housekeep() error = %v", err)
	}
	if result.AlbumsRemoved != 0 || result.ArtistsRemoved != 0 {
		t.Fatalf("result = %+v, want nothing removed", result)
	}

	artist, _ := s.GetArtistByID(resolved.Artist.ID)
	if artist.SongCount != 2 {
		t.Errorf("artist song count = %d, want 2", artist.SongCount)
	}
	got, _ := s.GetLibraryByID(lib.ID)
	if got.SongCount != 2 {
		t.Errorf("library song count = %d, want 2", got.SongCount)
	}
}

func TestHousekeepUnknownLibrary(t *testing.T) {
	w, _, _, _ := newTestWriter(t)

	if _, err := w.Housekeep(999); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Housekeep() error = %v, want ErrNotFound", err)
	}
}
