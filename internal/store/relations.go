package store

import "fmt"

// InsertArtistRelation inserts a directed relation edge between two artists.
// Duplicate pairs are a no-op and return false.
func (s *Store) InsertArtistRelation(q Querier, r *ArtistRelation) (created bool, err error) {
	result, err := q.Exec(`
		INSERT INTO artist_relations (
			artist_id, related_artist_id, relation_type, relation_start, relation_end
		)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(artist_id, related_artist_id) DO NOTHING
	`, r.ArtistID, r.RelatedArtistID, r.RelationType, r.RelationStart, r.RelationEnd)
	if err != nil {
		return false, fmt.Errorf("failed to insert artist relation: %w", err)
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
		return true, fmt.Errorf("failed to get relation ID: %w", err)
	}
	r.ID = id

	return true, nil
}

// ListRelationsForArtist returns the outgoing relation edges of an artist
func (s *Store) ListRelationsForArtist(artistID int64) ([]*ArtistRelation, error) {
	rows, err := s.db.Query(`
		SELECT id, artist_id, related_artist_id, relation_type,
		       relation_start, relation_end, created_at
		FROM artist_relations WHERE artist_id = ? ORDER BY id
	`, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artist relations: %w", err)
	}
	defer rows.Close()

	var relations []*ArtistRelation
	for rows.Next() {
		r := &ArtistRelation{}
		if err := rows.Scan(
			&r.ID, &r.ArtistID, &r.RelatedArtistID, &r.RelationType,
			&r.RelationStart, &r.RelationEnd, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan artist relation: %w", err)
		}
		relations = append(relations, r)
	}

	return relations, rows.Err()
}
