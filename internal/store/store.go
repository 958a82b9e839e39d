package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Store represents the catalog's persistent state
type Store struct {
	db *sql.DB
}

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Write helpers take a Querier so the catalog writer can run them inside
// a per-unit transaction while tests and housekeeping use the bare DB.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Future migrations would go here:
	// if version < 3 { ... }

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LibraryType identifies the role of a library root
type LibraryType int

const (
	LibraryTypeInbound    LibraryType = 1
	LibraryTypeStaging    LibraryType = 2
	LibraryTypeStorage    LibraryType = 3
	LibraryTypeUserImages LibraryType = 4
)

// String returns the lowercase role name
func (t LibraryType) String() string {
	switch t {
	case LibraryTypeInbound:
		return "inbound"
	case LibraryTypeStaging:
		return "staging"
	case LibraryTypeStorage:
		return "storage"
	case LibraryTypeUserImages:
		return "user-images"
	}
	return "unknown"
}

// MetaDataStatus is the enrichment lifecycle stage of an artist or album
type MetaDataStatus int

const (
	MetaDataStatusUnprocessed MetaDataStatus = 0
	MetaDataStatusEnriched    MetaDataStatus = 1
	MetaDataStatusFailed      MetaDataStatus = 2
)

// Library represents one library root
type Library struct {
	ID            int64
	ApiKey        string
	Name          string
	Path          string
	Type          LibraryType
	ArtistCount   int
	AlbumCount    int
	SongCount     int
	IsLocked      bool
	SortOrder     int
	LastScanAt    *time.Time
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// Artist represents a catalog artist
type Artist struct {
	ID               int64
	ApiKey           string
	LibraryID        int64
	Name             string
	NameNormalized   string
	SortName         string
	Directory        string
	AlbumCount       int
	SongCount        int
	MusicBrainzID    string
	SpotifyID        string
	DiscogsID        string
	ITunesID         string
	AmgID            string
	WikiDataID       string
	LastFmID         string
	MetaDataStatus   MetaDataStatus
	CalculatedRating float64
	LastEnrichedAt   *time.Time
	CreatedAt        time.Time
	LastUpdatedAt    time.Time
}

// Album represents a catalog album
type Album struct {
	ID                  int64
	ApiKey              string
	ArtistID            int64
	Name                string
	NameNormalized      string
	SortName            string
	Directory           string
	AlbumStatus         int
	AlbumType           int
	ReleaseDate         string
	OriginalReleaseDate string
	SongCount           int
	DurationMs          int64
	Genres              []string
	Moods               []string
	MusicBrainzID       string
	SpotifyID           string
	MetaDataStatus      MetaDataStatus
	CreatedAt           time.Time
	LastUpdatedAt       time.Time
}

// Song represents a catalog song
type Song struct {
	ID              int64
	ApiKey          string
	AlbumID         int64
	Title           string
	TitleNormalized string
	SongNumber      int
	DiscNumber      int
	FileName        string
	FileHash        string
	FileSize        int64
	DurationMs      int64
	BitRate         int
	SampleRate      int
	BitDepth        int
	ChannelCount    int
	IsVbr           bool
	Lyrics          string
	PartTitles      string
	CreatedAt       time.Time
	LastUpdatedAt   time.Time
}

// Contributor links an artist or free-text name to an album/song in a role
type Contributor struct {
	ID                int64
	ApiKey            string
	AlbumID           int64
	SongID            *int64
	ArtistID          *int64
	ContributorName   string
	Role              string
	SubRole           string
	MetaTagIdentifier string
	CreatedAt         time.Time
}

// ArtistRelation is a directed edge between two artists
type ArtistRelation struct {
	ID              int64
	ArtistID        int64
	RelatedArtistID int64
	RelationType    string
	RelationStart   string
	RelationEnd     string
	CreatedAt       time.Time
}

// ScanHistory is one append-only record of a completed scan
type ScanHistory struct {
	ID                int64
	LibraryID         int64
	ForArtistID       *int64
	ForAlbumID        *int64
	FoundArtistsCount int
	FoundAlbumsCount  int
	FoundSongsCount   int
	DurationMs        int64
	Error             string
	CreatedAt         time.Time
}

// SearchHistory is one append-only record of an enrichment/search query
type SearchHistory struct {
	ID                int64
	Query             string
	Provider          string
	FoundArtistsCount int
	FoundAlbumsCount  int
	FoundSongsCount   int
	FoundOtherCount   int
	DurationMs        int64
	RequestedBy       string
	CreatedAt         time.Time
}

// Setting is a typed key/value configuration row
type Setting struct {
	ID            int64
	ApiKey        string
	Key           string
	Value         string
	Category      string
	Description   string
	IsLocked      bool
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}
