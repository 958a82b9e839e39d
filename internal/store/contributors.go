package store

import (
	"fmt"

	"github.com/google/uuid"
)

// InsertContributor inserts a contributor row keyed by
// (artist|name, meta tag identifier, album). A conflicting insert is a
// no-op: the existing row is reused and false is returned.
func (s *Store) InsertContributor(q Querier, c *Contributor) (created bool, err error) {
	if c.ApiKey == "" {
		c.ApiKey = uuid.NewString()
	}

	result, err := q.Exec(`
		INSERT INTO contributors (
			api_key, album_id, song_id, artist_id, contributor_name,
			role, sub_role, meta_tag_identifier
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, c.ApiKey, c.AlbumID, c.SongID, c.ArtistID, c.ContributorName,
		c.Role, c.SubRole, c.MetaTagIdentifier)
	if err != nil {
		return false, fmt.Errorf("failed to insert contributor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return true, fmt.Errorf("failed to get contributor ID: %w", err)
	}
	c.ID = id

	return true, nil
}

// ListContributorsForAlbum returns all contributor rows of an album
func (s *Store) ListContributorsForAlbum(albumID int64) ([]*Contributor, error) {
	rows, err := s.db.Query(`
		SELECT id, api_key, album_id, song_id, artist_id, contributor_name,
		       role, sub_role, meta_tag_identifier, created_at
		FROM contributors WHERE album_id = ? ORDER BY id
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	defer rows.Close()

	var contributors []*Contributor
	for rows.Next() {
		c := &Contributor{}
		if err := rows.Scan(
			&c.ID, &c.ApiKey, &c.AlbumID, &c.SongID, &c.ArtistID, &c.ContributorName,
			&c.Role, &c.SubRole, &c.MetaTagIdentifier, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		contributors = append(contributors, c)
	}

	return contributors, rows.Err()
}

// CountContributors returns the total number of contributor rows
func (s *Store) CountContributors() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM contributors").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count contributors: %w", err)
	}
	return n, nil
}
