package catalog

import (
	"database/sql"
	"fmt"

	"github.com/mbrandt/chorus/internal/util"
)

// RemoveAlbum deletes an album and its songs, contributors and user
// links, and walks the cached counts back down. The delete is one
// transaction.
func (w *Writer) RemoveAlbum(albumID int64) error {
	album, err := w.store.GetAlbumByID(albumID)
	if err != nil {
		return err
	}
	if album == nil {
		return fmt.Errorf("album %d: %w", albumID, util.ErrNotFound)
	}
	artist, err := w.store.GetArtistByID(album.ArtistID)
	if err != nil {
		return err
	}
	if artist == nil {
		return fmt.Errorf("artist %d: %w", album.ArtistID, util.ErrNotFound)
	}

	return w.store.Transaction(func(tx *sql.Tx) error {
		if err := w.store.DeleteAlbumRows(tx, albumID); err != nil {
			return err
		}
		if err := w.store.UpdateArtistCounts(tx, artist.ID, -1, -album.SongCount); err != nil {
			return err
		}
		return w.store.UpdateLibraryCounts(tx, artist.LibraryID, 0, -1, -album.SongCount)
	})
}

// RemoveArtist deletes an artist, all of its albums and everything under
// them in a single transaction
func (w *Writer) RemoveArtist(artistID int64) error {
	artist, err := w.store.GetArtistByID(artistID)
	if err != nil {
		return err
	}
	if artist == nil {
		return fmt.Errorf("artist %d: %w", artistID, util.ErrNotFound)
	}
	albums, err := w.store.ListAlbumsByArtist(artistID)
	if err != nil {
		return err
	}

	var songs int
	return w.store.Transaction(func(tx *sql.Tx) error {
		for _, album := range albums {
			if err := w.store.DeleteAlbumRows(tx, album.ID); err != nil {
				return err
			}
			songs += album.SongCount
		}
		if err := w.store.DeleteArtistRows(tx, artistID); err != nil {
			return err
		}
		return w.store.UpdateLibraryCounts(tx, artist.LibraryID, -1, -len(albums), -songs)
	})
}
