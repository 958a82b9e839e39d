package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertLibrary inserts a library row, assigning an ApiKey if unset
func (s *Store) InsertLibrary(q Querier, l *Library) error {
	if l.ApiKey == "" {
		l.ApiKey = uuid.NewString()
	}

	result, err := q.Exec(`
		INSERT INTO libraries (api_key, name, path, type, is_locked, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ApiKey, l.Name, l.Path, int(l.Type), boolToInt(l.IsLocked), l.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert library: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get library ID: %w", err)
	}
	l.ID = id

	return nil
}

// GetLibraryByType retrieves the single library with the given role
// Returns nil if no library has that role yet
func (s *Store) GetLibraryByType(t LibraryType) (*Library, error) {
	return s.getLibrary("type = ?", int(t))
}

// GetLibraryByID retrieves a library by its primary key
func (s *Store) GetLibraryByID(id int64) (*Library, error) {
	return s.getLibrary("id = ?", id)
}

func (s *Store) getLibrary(where string, arg any) (*Library, error) {
	l := &Library{}
	var lastScan sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, api_key, name, path, type,
		       artist_count, album_count, song_count,
		       is_locked, sort_order, last_scan_at, created_at, last_updated_at
		FROM libraries WHERE `+where,
		arg).Scan(
		&l.ID, &l.ApiKey, &l.Name, &l.Path, &l.Type,
		&l.ArtistCount, &l.AlbumCount, &l.SongCount,
		&l.IsLocked, &l.SortOrder, &lastScan, &l.CreatedAt, &l.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get library: %w", err)
	}

	if lastScan.Valid {
		t := lastScan.Time
		l.LastScanAt = &t
	}

	return l, nil
}

// ListLibraries returns all libraries ordered by sort order
func (s *Store) ListLibraries() ([]*Library, error) {
	rows, err := s.db.Query(`
		SELECT id, api_key, name, path, type,
		       artist_count, album_count, song_count,
		       is_locked, sort_order, last_scan_at, created_at, last_updated_at
		FROM libraries ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	defer rows.Close()

	var libraries []*Library
	for rows.Next() {
		l := &Library{}
		var lastScan sql.NullTime
		if err := rows.Scan(
			&l.ID, &l.ApiKey, &l.Name, &l.Path, &l.Type,
			&l.ArtistCount, &l.AlbumCount, &l.SongCount,
			&l.IsLocked, &l.SortOrder, &lastScan, &l.CreatedAt, &l.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		if lastScan.Valid {
			t := lastScan.Time
			l.LastScanAt = &t
		}
		libraries = append(libraries, l)
	}

	return libraries, rows.Err()
}

// UpdateLibraryCounts adjusts the cached entity counts by the given deltas
func (s *Store) UpdateLibraryCounts(q Querier, libraryID int64, dArtists, dAlbums, dSongs int) error {
	_, err := q.Exec(`
		UPDATE libraries SET
			artist_count = artist_count + ?,
			album_count = album_count + ?,
			song_count = song_count + ?,
			last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, dArtists, dAlbums, dSongs, libraryID)
	if err != nil {
		return fmt.Errorf("failed to update library counts: %w", err)
	}
	return nil
}

// TouchLibraryScanned records the completion time of a scan
func (s *Store) TouchLibraryScanned(q Querier, libraryID int64, at time.Time) error {
	_, err := q.Exec(`
		UPDATE libraries SET last_scan_at = ?, last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, at.UTC(), libraryID)
	if err != nil {
		return fmt.Errorf("failed to touch library: %w", err)
	}
	return nil
}

// SetLibraryLocked toggles the user-facing lock flag (a locked library is
// skipped by scheduled scans)
func (s *Store) SetLibraryLocked(libraryID int64, locked bool) error {
	_, err := s.db.Exec(`
		UPDATE libraries SET is_locked = ?, last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, boolToInt(locked), libraryID)
	if err != nil {
		return fmt.Errorf("failed to set library lock: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
