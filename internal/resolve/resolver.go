package resolve

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mbrandt/chorus/internal/meta"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

// Conflict sentinels. Both mark the unit for the duplicate/skip path;
// neither is ever resolved by merging.
var (
	ErrAmbiguousArtist = errors.New("ambiguous artist identity")
	ErrDuplicateAlbum  = errors.New("duplicate album")
)

// SongAction describes what the catalog writer should do with one song
type SongAction int

const (
	SongCreate SongAction = iota
	SongUpdate
	SongUnchanged
)

func (a SongAction) String() string {
	switch a {
	case SongCreate:
		return "create"
	case SongUpdate:
		return "update"
	case SongUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// ResolvedSong pairs a normalized candidate with its catalog decision
type ResolvedSong struct {
	Meta     *meta.SongMeta
	Existing *store.Song
	Action   SongAction
}

// ResolvedUnit is the catalog-ready form of one album directory:
// which rows exist, which must be created, and what each song needs
type ResolvedUnit struct {
	Unit *meta.AlbumUnit

	Artist        *store.Artist
	ArtistCreated bool

	Album        *store.Album
	AlbumCreated bool

	Songs []*ResolvedSong
}

// Changed reports whether committing the unit would write anything
func (r *ResolvedUnit) Changed() bool {
	if r.ArtistCreated || r.AlbumCreated {
		return true
	}
	for _, song := range r.Songs {
		if song.Action != SongUnchanged {
			return true
		}
	}
	return false
}

// Resolver maps normalized candidate units onto the existing catalog.
// Reads may race across workers; all writes happen later in the
// catalog writer under per-artist serialization.
type Resolver struct {
	store *store.Store
	cfg   *settings.Config
}

// Config holds resolver configuration
type Config struct {
	Store    *store.Store
	Settings *settings.Config
}

// New creates a Resolver
func New(cfg *Config) *Resolver {
	return &Resolver{store: cfg.Store, cfg: cfg.Settings}
}

// Resolve maps a unit onto the catalog of the given library. Conflicts
// return ErrAmbiguousArtist or ErrDuplicateAlbum; the caller marks the
// directory and moves on.
func (r *Resolver) Resolve(libraryID int64, unit *meta.AlbumUnit) (*ResolvedUnit, error) {
	resolved := &ResolvedUnit{Unit: unit}

	artist, created, err := r.resolveArtist(libraryID, unit)
	if err != nil {
		return nil, err
	}
	resolved.Artist = artist
	resolved.ArtistCreated = created

	album, created, err := r.resolveAlbum(artist, unit)
	if err != nil {
		return nil, err
	}
	resolved.Album = album
	resolved.AlbumCreated = created

	if err := r.resolveSongs(resolved); err != nil {
		return nil, err
	}

	return resolved, nil
}

// resolveArtist looks up the artist by MusicBrainz id first, then by
// (library, normalized name). Same normalized name under a different
// MusicBrainz id is a conflict, never a merge.
func (r *Resolver) resolveArtist(libraryID int64, unit *meta.AlbumUnit) (*store.Artist, bool, error) {
	if unit.ArtistMusicBrainzID != "" {
		existing, err := r.store.GetArtistByMusicBrainzID(unit.ArtistMusicBrainzID)
		if err != nil {
			return nil, false, fmt.Errorf("artist mbid lookup failed: %w", err)
		}
		if existing != nil {
			util.DebugLog("Resolved artist %q by MusicBrainz id", unit.ArtistName)
			return existing, false, nil
		}
	}

	existing, err := r.store.GetArtistByNameNormalized(libraryID, unit.ArtistNameNormalized)
	if err != nil {
		return nil, false, fmt.Errorf("artist name lookup failed: %w", err)
	}
	if existing != nil {
		if unit.ArtistMusicBrainzID != "" && existing.MusicBrainzID != "" &&
			existing.MusicBrainzID != unit.ArtistMusicBrainzID {
			return nil, false, fmt.Errorf("artist %q matches id %d with a different MusicBrainz id: %w",
				unit.ArtistName, existing.ID, ErrAmbiguousArtist)
		}
		return existing, false, nil
	}

	return &store.Artist{
		LibraryID:      libraryID,
		Name:           unit.ArtistName,
		NameNormalized: unit.ArtistNameNormalized,
		SortName:       unit.ArtistSortName,
		Directory:      meta.CleanString(unit.ArtistName),
		MusicBrainzID:  unit.ArtistMusicBrainzID,
	}, true, nil
}

// resolveAlbum looks up the album by (artist, normalized name). A match
// rooted in a different directory with a different file-hash set is a
// duplicate rip of the same release and is refused.
func (r *Resolver) resolveAlbum(artist *store.Artist, unit *meta.AlbumUnit) (*store.Album, bool, error) {
	newAlbum := func() *store.Album {
		return &store.Album{
			ArtistID:            artist.ID,
			Name:                unit.AlbumName,
			NameNormalized:      unit.AlbumNameNormalized,
			SortName:            unit.AlbumSortName,
			Directory:           filepath.Base(unit.Directory),
			ReleaseDate:         yearString(unit.Year),
			OriginalReleaseDate: yearString(unit.OrigYear),
			Genres:              unit.Genres,
		}
	}

	if artist.ID == 0 {
		// New artist cannot own an existing album.
		return newAlbum(), true, nil
	}

	existing, err := r.store.GetAlbumByNameNormalized(artist.ID, unit.AlbumNameNormalized)
	if err != nil {
		return nil, false, fmt.Errorf("album lookup failed: %w", err)
	}
	if existing == nil {
		return newAlbum(), true, nil
	}

	sameDirectory := existing.Directory == filepath.Base(unit.Directory)
	if !sameDirectory {
		same, err := r.sameContent(existing, unit)
		if err != nil {
			return nil, false, err
		}
		if !same {
			return nil, false, fmt.Errorf("album %q collides with id %d from %q: %w",
				unit.AlbumName, existing.ID, existing.Directory, ErrDuplicateAlbum)
		}
	}

	return existing, false, nil
}

// sameContent compares the file-hash sets of an existing album and an
// incoming unit
func (r *Resolver) sameContent(album *store.Album, unit *meta.AlbumUnit) (bool, error) {
	songs, err := r.store.ListSongsByAlbum(album.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list album songs: %w", err)
	}
	if len(songs) != len(unit.Songs) {
		return false, nil
	}

	existing := make(map[string]bool, len(songs))
	for _, song := range songs {
		existing[song.FileHash] = true
	}
	for _, song := range unit.Songs {
		if !existing[song.FileHash] {
			return false, nil
		}
	}
	return true, nil
}

// resolveSongs decides create/update/unchanged per song by position and
// file hash
func (r *Resolver) resolveSongs(resolved *ResolvedUnit) error {
	for _, song := range resolved.Unit.Songs {
		rs := &ResolvedSong{Meta: song, Action: SongCreate}

		if !resolved.AlbumCreated {
			existing, err := r.store.GetSongByPosition(resolved.Album.ID, song.DiscNumber, song.SongNumber)
			if err != nil {
				return fmt.Errorf("song lookup failed: %w", err)
			}
			if existing != nil {
				rs.Existing = existing
				if existing.FileHash == song.FileHash {
					rs.Action = SongUnchanged
				} else {
					rs.Action = SongUpdate
				}
			}
		}

		resolved.Songs = append(resolved.Songs, rs)
	}
	return nil
}

// MarkDuplicate renames the unit directory with the duplicate prefix so
// later scans skip it. Returns the new path.
func MarkDuplicate(fs fileRenamer, dir, prefix string) (string, error) {
	return markDirectory(fs, dir, prefix)
}

// MarkSkipped renames the unit directory with the skip prefix
func MarkSkipped(fs fileRenamer, dir, prefix string) (string, error) {
	return markDirectory(fs, dir, prefix)
}

type fileRenamer interface {
	Rename(oldname, newname string) error
}

func markDirectory(fs fileRenamer, dir, prefix string) (string, error) {
	if prefix == "" {
		return dir, nil
	}
	marked := filepath.Join(filepath.Dir(dir), prefix+filepath.Base(dir))
	if err := fs.Rename(dir, marked); err != nil {
		return "", fmt.Errorf("failed to mark directory %s: %w", dir, err)
	}
	return marked, nil
}

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", year)
}
