package store

import "fmt"

// DeleteAlbumRows removes an album and every row hanging off it. Counts
// cached on the artist and library rows are the caller's problem.
func (s *Store) DeleteAlbumRows(q Querier, albumID int64) error {
	stmts := []string{
		`DELETE FROM user_songs WHERE song_id IN (SELECT id FROM songs WHERE album_id = ?)`,
		`DELETE FROM contributors WHERE album_id = ?`,
		`DELETE FROM songs WHERE album_id = ?`,
		`DELETE FROM user_albums WHERE album_id = ?`,
		`DELETE FROM albums WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(stmt, albumID); err != nil {
			return fmt.Errorf("failed to delete album rows: %w", err)
		}
	}
	return nil
}

// DeleteArtistRows removes an artist row and its direct references.
// Albums must already be gone.
func (s *Store) DeleteArtistRows(q Querier, artistID int64) error {
	stmts := []string{
		`DELETE FROM artist_relations WHERE artist_id = ? OR related_artist_id = ?`,
		`DELETE FROM contributors WHERE artist_id = ?`,
		`DELETE FROM user_artists WHERE artist_id = ?`,
		`DELETE FROM artists WHERE id = ?`,
	}
	args := [][]any{
		{artistID, artistID},
		{artistID},
		{artistID},
		{artistID},
	}
	for i, stmt := range stmts {
		if _, err := q.Exec(stmt, args[i]...); err != nil {
			return fmt.Errorf("failed to delete artist rows: %w", err)
		}
	}
	return nil
}

// ListEmptyAlbumIDs returns albums in a library that have no songs left
func (s *Store) ListEmptyAlbumIDs(libraryID int64) ([]int64, error) {
	return s.listIDs(`
		SELECT a.id FROM albums a
		JOIN artists ar ON ar.id = a.artist_id
		WHERE ar.library_id = ?
		  AND NOT EXISTS (SELECT 1 FROM songs s WHERE s.album_id = a.id)
		ORDER BY a.id
	`, libraryID)
}

// ListEmptyArtistIDs returns artists in a library that have no albums left
func (s *Store) ListEmptyArtistIDs(libraryID int64) ([]int64, error) {
	return s.listIDs(`
		SELECT id FROM artists
		WHERE library_id = ?
		  AND NOT EXISTS (SELECT 1 FROM albums a WHERE a.artist_id = artists.id)
		ORDER BY id
	`, libraryID)
}

func (s *Store) listIDs(query string, args ...any) ([]int64, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecountLibrary recomputes every cached count in a library from the
// actual rows, repairing any drift the delta bookkeeping accumulated
func (s *Store) RecountLibrary(q Querier, libraryID int64) error {
	stmts := []string{
		`UPDATE albums SET
			song_count = (SELECT COUNT(*) FROM songs WHERE album_id = albums.id),
			duration_ms = (SELECT COALESCE(SUM(duration_ms), 0) FROM songs WHERE album_id = albums.id)
		WHERE artist_id IN (SELECT id FROM artists WHERE library_id = ?)`,
		`UPDATE artists SET
			album_count = (SELECT COUNT(*) FROM albums WHERE artist_id = artists.id),
			song_count = (SELECT COUNT(*) FROM songs s
				JOIN albums a ON a.id = s.album_id WHERE a.artist_id = artists.id)
		WHERE library_id = ?`,
		`UPDATE libraries SET
			artist_count = (SELECT COUNT(*) FROM artists WHERE library_id = libraries.id),
			album_count = (SELECT COUNT(*) FROM albums a
				JOIN artists ar ON ar.id = a.artist_id WHERE ar.library_id = libraries.id),
			song_count = (SELECT COUNT(*) FROM songs s
				JOIN albums a ON a.id = s.album_id
				JOIN artists ar ON ar.id = a.artist_id WHERE ar.library_id = libraries.id)
		WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(stmt, libraryID); err != nil {
			return fmt.Errorf("failed to recount library: %w", err)
		}
	}
	return nil
}
