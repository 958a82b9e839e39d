package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const songColumns = `
	id, api_key, album_id, title, title_normalized, song_number, disc_number,
	file_name, file_hash, file_size, duration_ms,
	bit_rate, sample_rate, bit_depth, channel_count, is_vbr,
	lyrics, part_titles, created_at, last_updated_at`

// InsertSong inserts a song row, assigning an ApiKey if unset
func (s *Store) InsertSong(q Querier, song *Song) error {
	if song.ApiKey == "" {
		song.ApiKey = uuid.NewString()
	}
	if song.DiscNumber <= 0 {
		song.DiscNumber = 1
	}

	result, err := q.Exec(`
		INSERT INTO songs (
			api_key, album_id, title, title_normalized, song_number, disc_number,
			file_name, file_hash, file_size, duration_ms,
			bit_rate, sample_rate, bit_depth, channel_count, is_vbr,
			lyrics, part_titles
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, song.ApiKey, song.AlbumID, song.Title, song.TitleNormalized, song.SongNumber, song.DiscNumber,
		song.FileName, song.FileHash, song.FileSize, song.DurationMs,
		song.BitRate, song.SampleRate, song.BitDepth, song.ChannelCount, boolToInt(song.IsVbr),
		song.Lyrics, song.PartTitles)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get song ID: %w", err)
	}
	song.ID = id

	return nil
}

// UpdateSong overwrites the mutable fields of a song row after a content
// update (same position, different file hash)
func (s *Store) UpdateSong(q Querier, song *Song) error {
	_, err := q.Exec(`
		UPDATE songs SET
			title = ?, title_normalized = ?,
			file_name = ?, file_hash = ?, file_size = ?, duration_ms = ?,
			bit_rate = ?, sample_rate = ?, bit_depth = ?, channel_count = ?, is_vbr = ?,
			lyrics = ?, part_titles = ?,
			last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, song.Title, song.TitleNormalized,
		song.FileName, song.FileHash, song.FileSize, song.DurationMs,
		song.BitRate, song.SampleRate, song.BitDepth, song.ChannelCount, boolToInt(song.IsVbr),
		song.Lyrics, song.PartTitles, song.ID)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	return nil
}

// GetSongByPosition retrieves a song by its resolution key
func (s *Store) GetSongByPosition(albumID int64, discNumber, songNumber int) (*Song, error) {
	if discNumber <= 0 {
		discNumber = 1
	}
	return s.getSong("album_id = ? AND disc_number = ? AND song_number = ?",
		albumID, discNumber, songNumber)
}

// GetSongByID retrieves a song by its primary key
func (s *Store) GetSongByID(id int64) (*Song, error) {
	return s.getSong("id = ?", id)
}

func (s *Store) getSong(where string, args ...any) (*Song, error) {
	song := &Song{}
	err := s.db.QueryRow(
		`SELECT `+songColumns+` FROM songs WHERE `+where, args...,
	).Scan(
		&song.ID, &song.ApiKey, &song.AlbumID, &song.Title, &song.TitleNormalized,
		&song.SongNumber, &song.DiscNumber,
		&song.FileName, &song.FileHash, &song.FileSize, &song.DurationMs,
		&song.BitRate, &song.SampleRate, &song.BitDepth, &song.ChannelCount, &song.IsVbr,
		&song.Lyrics, &song.PartTitles, &song.CreatedAt, &song.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	return song, nil
}

// ListSongsByAlbum returns all songs of an album in disc/track order
func (s *Store) ListSongsByAlbum(albumID int64) ([]*Song, error) {
	rows, err := s.db.Query(
		`SELECT `+songColumns+` FROM songs WHERE album_id = ? ORDER BY disc_number, song_number`,
		albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		song := &Song{}
		if err := rows.Scan(
			&song.ID, &song.ApiKey, &song.AlbumID, &song.Title, &song.TitleNormalized,
			&song.SongNumber, &song.DiscNumber,
			&song.FileName, &song.FileHash, &song.FileSize, &song.DurationMs,
			&song.BitRate, &song.SampleRate, &song.BitDepth, &song.ChannelCount, &song.IsVbr,
			&song.Lyrics, &song.PartTitles, &song.CreatedAt, &song.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}

	return songs, rows.Err()
}

// CountSongs returns the total number of song rows
func (s *Store) CountSongs() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM songs").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}
