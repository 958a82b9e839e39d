package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const albumColumns = `
	id, api_key, artist_id, name, name_normalized, sort_name, directory,
	album_status, album_type, release_date, original_release_date,
	song_count, duration_ms, genres, moods,
	musicbrainz_id, spotify_id, metadata_status, created_at, last_updated_at`

// InsertAlbum inserts an album row, assigning an ApiKey if unset
func (s *Store) InsertAlbum(q Querier, a *Album) error {
	if a.ApiKey == "" {
		a.ApiKey = uuid.NewString()
	}

	genres, err := marshalStringList(a.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	moods, err := marshalStringList(a.Moods)
	if err != nil {
		return fmt.Errorf("failed to encode moods: %w", err)
	}

	result, err := q.Exec(`
		INSERT INTO albums (
			api_key, artist_id, name, name_normalized, sort_name, directory,
			album_status, album_type, release_date, original_release_date,
			genres, moods, musicbrainz_id, spotify_id, metadata_status
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ApiKey, a.ArtistID, a.Name, a.NameNormalized, a.SortName, a.Directory,
		a.AlbumStatus, a.AlbumType, a.ReleaseDate, a.OriginalReleaseDate,
		genres, moods, a.MusicBrainzID, a.SpotifyID, int(a.MetaDataStatus))
	if err != nil {
		return fmt.Errorf("failed to insert album: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get album ID: %w", err)
	}
	a.ID = id

	return nil
}

// GetAlbumByNameNormalized retrieves an album by its resolution key
func (s *Store) GetAlbumByNameNormalized(artistID int64, nameNormalized string) (*Album, error) {
	return s.getAlbum("artist_id = ? AND name_normalized = ?", artistID, nameNormalized)
}

// GetAlbumByID retrieves an album by its primary key
func (s *Store) GetAlbumByID(id int64) (*Album, error) {
	return s.getAlbum("id = ?", id)
}

func (s *Store) getAlbum(where string, args ...any) (*Album, error) {
	a := &Album{}
	var genres, moods string
	err := s.db.QueryRow(
		`SELECT `+albumColumns+` FROM albums WHERE `+where, args...,
	).Scan(
		&a.ID, &a.ApiKey, &a.ArtistID, &a.Name, &a.NameNormalized, &a.SortName, &a.Directory,
		&a.AlbumStatus, &a.AlbumType, &a.ReleaseDate, &a.OriginalReleaseDate,
		&a.SongCount, &a.DurationMs, &genres, &moods,
		&a.MusicBrainzID, &a.SpotifyID, &a.MetaDataStatus, &a.CreatedAt, &a.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}

	if a.Genres, err = unmarshalStringList(genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}
	if a.Moods, err = unmarshalStringList(moods); err != nil {
		return nil, fmt.Errorf("failed to decode moods: %w", err)
	}

	return a, nil
}

// ListAlbumsByArtist returns all albums of an artist ordered by name
func (s *Store) ListAlbumsByArtist(artistID int64) ([]*Album, error) {
	rows, err := s.db.Query(
		`SELECT `+albumColumns+` FROM albums WHERE artist_id = ? ORDER BY sort_name, name`,
		artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		a := &Album{}
		var genres, moods string
		if err := rows.Scan(
			&a.ID, &a.ApiKey, &a.ArtistID, &a.Name, &a.NameNormalized, &a.SortName, &a.Directory,
			&a.AlbumStatus, &a.AlbumType, &a.ReleaseDate, &a.OriginalReleaseDate,
			&a.SongCount, &a.DurationMs, &genres, &moods,
			&a.MusicBrainzID, &a.SpotifyID, &a.MetaDataStatus, &a.CreatedAt, &a.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		if a.Genres, err = unmarshalStringList(genres); err != nil {
			return nil, fmt.Errorf("failed to decode genres: %w", err)
		}
		if a.Moods, err = unmarshalStringList(moods); err != nil {
			return nil, fmt.Errorf("failed to decode moods: %w", err)
		}
		albums = append(albums, a)
	}

	return albums, rows.Err()
}

// UpdateAlbumCounts adjusts the cached song count and duration by deltas
func (s *Store) UpdateAlbumCounts(q Querier, albumID int64, dSongs int, dDurationMs int64) error {
	_, err := q.Exec(`
		UPDATE albums SET
			song_count = song_count + ?,
			duration_ms = duration_ms + ?,
			last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, dSongs, dDurationMs, albumID)
	if err != nil {
		return fmt.Errorf("failed to update album counts: %w", err)
	}
	return nil
}

func marshalStringList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStringList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}
