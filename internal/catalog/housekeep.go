package catalog

import (
	"database/sql"
	"fmt"

	"github.com/mbrandt/chorus/internal/util"
)

// HousekeepResult reports what a housekeeping pass removed
type HousekeepResult struct {
	AlbumsRemoved  int
	ArtistsRemoved int
}

// Housekeep prunes orphaned rows from a library and recomputes its
// cached counts. Albums that lost all their songs are removed first,
// then artists that lost all their albums; a final recount repairs any
// drift left behind by delta bookkeeping.
func (w *Writer) Housekeep(libraryID int64) (*HousekeepResult, error) {
	lib, err := w.store.GetLibraryByID(libraryID)
	if err != nil {
		return nil, err
	}
	if lib == nil {
		return nil, fmt.Errorf("library %d: %w", libraryID, util.ErrNotFound)
	}

	result := &HousekeepResult{}

	albumIDs, err := w.store.ListEmptyAlbumIDs(libraryID)
	if err != nil {
		return nil, err
	}
	for _, id := range albumIDs {
		if err := w.RemoveAlbum(id); err != nil {
			return result, fmt.Errorf("failed to remove empty album %d: %w", id, err)
		}
		result.AlbumsRemoved++
	}

	artistIDs, err := w.store.ListEmptyArtistIDs(libraryID)
	if err != nil {
		return nil, err
	}
	for _, id := range artistIDs {
		if err := w.RemoveArtist(id); err != nil {
			return result, fmt.Errorf("failed to remove empty artist %d: %w", id, err)
		}
		result.ArtistsRemoved++
	}

	err = w.store.Transaction(func(tx *sql.Tx) error {
		return w.store.RecountLibrary(tx, libraryID)
	})
	if err != nil {
		return result, err
	}

	if result.AlbumsRemoved > 0 || result.ArtistsRemoved > 0 {
		util.InfoLog("Housekeeping on %s removed %d albums, %d artists",
			lib.Name, result.AlbumsRemoved, result.ArtistsRemoved)
	}
	return result, nil
}
