package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const artistColumns = `
	id, api_key, library_id, name, name_normalized, sort_name, directory,
	album_count, song_count,
	musicbrainz_id, spotify_id, discogs_id, itunes_id, amg_id, wikidata_id, lastfm_id,
	metadata_status, calculated_rating, last_enriched_at, created_at, last_updated_at`

// InsertArtist inserts an artist row, assigning an ApiKey if unset
func (s *Store) InsertArtist(q Querier, a *Artist) error {
	if a.ApiKey == "" {
		a.ApiKey = uuid.NewString()
	}

	result, err := q.Exec(`
		INSERT INTO artists (
			api_key, library_id, name, name_normalized, sort_name, directory,
			musicbrainz_id, spotify_id, discogs_id, itunes_id, amg_id, wikidata_id, lastfm_id,
			metadata_status
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ApiKey, a.LibraryID, a.Name, a.NameNormalized, a.SortName, a.Directory,
		a.MusicBrainzID, a.SpotifyID, a.DiscogsID, a.ITunesID, a.AmgID, a.WikiDataID, a.LastFmID,
		int(a.MetaDataStatus))
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get artist ID: %w", err)
	}
	a.ID = id

	return nil
}

// GetArtistByMusicBrainzID retrieves an artist by its MusicBrainz id
// MusicBrainz ids are globally unique when present
func (s *Store) GetArtistByMusicBrainzID(mbid string) (*Artist, error) {
	if mbid == "" {
		return nil, nil
	}
	return s.getArtist("musicbrainz_id = ?", mbid)
}

// GetArtistByNameNormalized retrieves an artist by its resolution key
// within a library
func (s *Store) GetArtistByNameNormalized(libraryID int64, nameNormalized string) (*Artist, error) {
	return s.getArtist("library_id = ? AND name_normalized = ?", libraryID, nameNormalized)
}

// GetArtistByID retrieves an artist by its primary key
func (s *Store) GetArtistByID(id int64) (*Artist, error) {
	return s.getArtist("id = ?", id)
}

func (s *Store) getArtist(where string, args ...any) (*Artist, error) {
	a := &Artist{}
	var enrichedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT `+artistColumns+` FROM artists WHERE `+where, args...,
	).Scan(
		&a.ID, &a.ApiKey, &a.LibraryID, &a.Name, &a.NameNormalized, &a.SortName, &a.Directory,
		&a.AlbumCount, &a.SongCount,
		&a.MusicBrainzID, &a.SpotifyID, &a.DiscogsID, &a.ITunesID, &a.AmgID, &a.WikiDataID, &a.LastFmID,
		&a.MetaDataStatus, &a.CalculatedRating, &enrichedAt, &a.CreatedAt, &a.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}

	if enrichedAt.Valid {
		t := enrichedAt.Time
		a.LastEnrichedAt = &t
	}

	return a, nil
}

// UpdateArtistEnrichment persists external ids and the enrichment lifecycle
// state after a provider lookup
func (s *Store) UpdateArtistEnrichment(q Querier, a *Artist) error {
	var enrichedAt any
	if a.LastEnrichedAt != nil {
		enrichedAt = a.LastEnrichedAt.UTC()
	}

	_, err := q.Exec(`
		UPDATE artists SET
			musicbrainz_id = ?, spotify_id = ?, discogs_id = ?, itunes_id = ?,
			amg_id = ?, wikidata_id = ?, lastfm_id = ?,
			sort_name = ?, metadata_status = ?, last_enriched_at = ?,
			last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, a.MusicBrainzID, a.SpotifyID, a.DiscogsID, a.ITunesID,
		a.AmgID, a.WikiDataID, a.LastFmID,
		a.SortName, int(a.MetaDataStatus), enrichedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update artist enrichment: %w", err)
	}
	return nil
}

// UpdateArtistCounts adjusts the cached album/song counts by the given deltas
func (s *Store) UpdateArtistCounts(q Querier, artistID int64, dAlbums, dSongs int) error {
	_, err := q.Exec(`
		UPDATE artists SET
			album_count = album_count + ?,
			song_count = song_count + ?,
			last_updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, dAlbums, dSongs, artistID)
	if err != nil {
		return fmt.Errorf("failed to update artist counts: %w", err)
	}
	return nil
}

// ListArtistsForEnrichment returns artists whose metadata is unprocessed, or
// whose last enrichment predates the given cutoff, up to limit rows.
// A zero cutoff disables the refresh path and returns unprocessed artists only.
func (s *Store) ListArtistsForEnrichment(staleBefore time.Time, limit int) ([]*Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE metadata_status = ?`
	args := []any{int(MetaDataStatusUnprocessed)}

	if !staleBefore.IsZero() {
		query = `SELECT ` + artistColumns + ` FROM artists
			WHERE metadata_status = ?
			   OR (metadata_status = ? AND last_enriched_at IS NOT NULL AND last_enriched_at < ?)`
		args = []any{int(MetaDataStatusUnprocessed), int(MetaDataStatusEnriched), staleBefore.UTC()}
	}

	query += ` ORDER BY id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists for enrichment: %w", err)
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		a := &Artist{}
		var enrichedAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.ApiKey, &a.LibraryID, &a.Name, &a.NameNormalized, &a.SortName, &a.Directory,
			&a.AlbumCount, &a.SongCount,
			&a.MusicBrainzID, &a.SpotifyID, &a.DiscogsID, &a.ITunesID, &a.AmgID, &a.WikiDataID, &a.LastFmID,
			&a.MetaDataStatus, &a.CalculatedRating, &enrichedAt, &a.CreatedAt, &a.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		if enrichedAt.Valid {
			t := enrichedAt.Time
			a.LastEnrichedAt = &t
		}
		artists = append(artists, a)
	}

	return artists, rows.Err()
}

// CountArtists returns the number of artist rows in a library
func (s *Store) CountArtists(libraryID int64) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM artists WHERE library_id = ?", libraryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", err)
	}
	return n, nil
}
