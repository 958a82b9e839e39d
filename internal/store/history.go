package store

import (
	"fmt"
	"time"
)

// AppendScanHistory appends one immutable scan record. Rows are never
// updated or deleted; their absence signals a scan that never started.
func (s *Store) AppendScanHistory(q Querier, h *ScanHistory) error {
	result, err := q.Exec(`
		INSERT INTO library_scan_history (
			library_id, for_artist_id, for_album_id,
			found_artists_count, found_albums_count, found_songs_count,
			duration_ms, error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, h.LibraryID, h.ForArtistID, h.ForAlbumID,
		h.FoundArtistsCount, h.FoundAlbumsCount, h.FoundSongsCount,
		h.DurationMs, h.Error)
	if err != nil {
		return fmt.Errorf("failed to append scan history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scan history ID: %w", err)
	}
	h.ID = id

	return nil
}

// ListScanHistory returns the most recent scan records for a library
func (s *Store) ListScanHistory(libraryID int64, limit int) ([]*ScanHistory, error) {
	rows, err := s.db.Query(`
		SELECT id, library_id, for_artist_id, for_album_id,
		       found_artists_count, found_albums_count, found_songs_count,
		       duration_ms, error, created_at
		FROM library_scan_history
		WHERE library_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, libraryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}
	defer rows.Close()

	var history []*ScanHistory
	for rows.Next() {
		h := &ScanHistory{}
		if err := rows.Scan(
			&h.ID, &h.LibraryID, &h.ForArtistID, &h.ForAlbumID,
			&h.FoundArtistsCount, &h.FoundAlbumsCount, &h.FoundSongsCount,
			&h.DurationMs, &h.Error, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, h)
	}

	return history, rows.Err()
}

// CountScanHistory returns the number of scan records for a library
func (s *Store) CountScanHistory(libraryID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM library_scan_history WHERE library_id = ?", libraryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count scan history: %w", err)
	}
	return n, nil
}

// AppendSearchHistory appends one immutable search/enrichment audit record
func (s *Store) AppendSearchHistory(q Querier, h *SearchHistory) error {
	result, err := q.Exec(`
		INSERT INTO search_history (
			query, provider,
			found_artists_count, found_albums_count, found_songs_count, found_other_count,
			duration_ms, requested_by
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, h.Query, h.Provider,
		h.FoundArtistsCount, h.FoundAlbumsCount, h.FoundSongsCount, h.FoundOtherCount,
		h.DurationMs, h.RequestedBy)
	if err != nil {
		return fmt.Errorf("failed to append search history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get search history ID: %w", err)
	}
	h.ID = id

	return nil
}

// ListSearchHistory returns the most recent search records
func (s *Store) ListSearchHistory(limit int) ([]*SearchHistory, error) {
	rows, err := s.db.Query(`
		SELECT id, query, provider,
		       found_artists_count, found_albums_count, found_songs_count, found_other_count,
		       duration_ms, requested_by, created_at
		FROM search_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	var history []*SearchHistory
	for rows.Next() {
		h := &SearchHistory{}
		if err := rows.Scan(
			&h.ID, &h.Query, &h.Provider,
			&h.FoundArtistsCount, &h.FoundAlbumsCount, &h.FoundSongsCount, &h.FoundOtherCount,
			&h.DurationMs, &h.RequestedBy, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search history row: %w", err)
		}
		history = append(history, h)
	}

	return history, rows.Err()
}

// PruneSearchHistory deletes search records older than the cutoff.
// Used by the search engine housekeeping job; returns rows removed.
func (s *Store) PruneSearchHistory(olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(
		"DELETE FROM search_history WHERE created_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune search history: %w", err)
	}
	return result.RowsAffected()
}

// CountSearchHistory returns the total number of search records
func (s *Store) CountSearchHistory() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM search_history").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count search history: %w", err)
	}
	return n, nil
}
