package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// GetSetting retrieves a setting row by key, or nil if absent
func (s *Store) GetSetting(key string) (*Setting, error) {
	row := &Setting{}
	err := s.db.QueryRow(`
		SELECT id, api_key, key, value, category, description, is_locked,
		       created_at, last_updated_at
		FROM settings WHERE key = ?
	`, key).Scan(
		&row.ID, &row.ApiKey, &row.Key, &row.Value, &row.Category, &row.Description,
		&row.IsLocked, &row.CreatedAt, &row.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}

	return row, nil
}

// ListSettings returns all setting rows ordered by key
func (s *Store) ListSettings() ([]*Setting, error) {
	rows, err := s.db.Query(`
		SELECT id, api_key, key, value, category, description, is_locked,
		       created_at, last_updated_at
		FROM settings ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*Setting
	for rows.Next() {
		row := &Setting{}
		if err := rows.Scan(
			&row.ID, &row.ApiKey, &row.Key, &row.Value, &row.Category, &row.Description,
			&row.IsLocked, &row.CreatedAt, &row.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, row)
	}

	return settings, rows.Err()
}

// SetSetting updates the value of an existing key or inserts a new row
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (api_key, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			last_updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// SeedSetting inserts a setting row only if the key is absent.
// Existing values are never overwritten by seeding.
func (s *Store) SeedSetting(key, value, category, description string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (api_key, key, value, category, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, uuid.NewString(), key, value, category, description)
	if err != nil {
		return fmt.Errorf("failed to seed setting %s: %w", key, err)
	}
	return nil
}
