package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mbrandt/chorus/internal/contrib"
	"github.com/mbrandt/chorus/internal/meta"
	"github.com/mbrandt/chorus/internal/resolve"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

// Writer commits resolved album units to the catalog. Each unit is one
// transaction: either the whole artist/album/song/contributor graph
// lands, or none of it does.
type Writer struct {
	store *store.Store
	cfg   *settings.Config
}

// Config holds writer dependencies
type Config struct {
	Store    *store.Store
	Settings *settings.Config
}

// New creates a Writer
func New(cfg *Config) *Writer {
	return &Writer{store: cfg.Store, cfg: cfg.Settings}
}

// CommitResult summarizes one committed unit
type CommitResult struct {
	ArtistCreated       bool
	AlbumCreated        bool
	SongsCreated        int
	SongsUpdated        int
	SongsUnchanged      int
	ContributorsCreated int
	RelationsCreated    int
}

// CommitUnit persists a resolved unit and its contributor candidates in
// a single transaction, keeping the cached counts on the album, artist
// and library rows in step.
func (w *Writer) CommitUnit(libraryID int64, unit *resolve.ResolvedUnit, candidates []*contrib.Candidate) (*CommitResult, error) {
	result := &CommitResult{
		ArtistCreated: unit.ArtistCreated,
		AlbumCreated:  unit.AlbumCreated,
	}

	// Contributor names that match catalog artists link by id. The
	// lookups happen before the transaction opens; they only read.
	linked := w.linkCandidates(libraryID, candidates)

	err := w.store.Transaction(func(tx *sql.Tx) error {
		if unit.ArtistCreated {
			if err := w.store.InsertArtist(tx, unit.Artist); err != nil {
				return err
			}
		}
		if unit.AlbumCreated {
			unit.Album.ArtistID = unit.Artist.ID
			if err := w.store.InsertAlbum(tx, unit.Album); err != nil {
				return err
			}
		}

		var dSongs int
		var dDuration int64
		for _, rs := range unit.Songs {
			switch rs.Action {
			case resolve.SongCreate:
				if err := w.store.InsertSong(tx, songRow(unit.Album.ID, rs.Meta)); err != nil {
					return err
				}
				dSongs++
				dDuration += rs.Meta.DurationMs
				result.SongsCreated++
			case resolve.SongUpdate:
				song := rs.Existing
				dDuration += rs.Meta.DurationMs - song.DurationMs
				applySongMeta(song, rs.Meta)
				if err := w.store.UpdateSong(tx, song); err != nil {
					return err
				}
				result.SongsUpdated++
			default:
				result.SongsUnchanged++
			}
		}

		for i, c := range candidates {
			row := c.Row(unit.Album.ID, linked[i])
			created, err := w.store.InsertContributor(tx, row)
			if err != nil {
				return err
			}
			if created {
				result.ContributorsCreated++
			}

			// A featured guest who is also a catalog artist becomes a
			// relation between the two artists.
			if linked[i] != nil && c.MetaTagIdentifier == contrib.TagFeaturing && linked[i].ID != unit.Artist.ID {
				created, err := w.store.InsertArtistRelation(tx, &store.ArtistRelation{
					ArtistID:        unit.Artist.ID,
					RelatedArtistID: linked[i].ID,
					RelationType:    "featured",
				})
				if err != nil {
					return err
				}
				if created {
					result.RelationsCreated++
				}
			}
		}

		if dSongs != 0 || dDuration != 0 {
			if err := w.store.UpdateAlbumCounts(tx, unit.Album.ID, dSongs, dDuration); err != nil {
				return err
			}
		}

		dAlbums := 0
		if unit.AlbumCreated {
			dAlbums = 1
		}
		if dAlbums != 0 || dSongs != 0 {
			if err := w.store.UpdateArtistCounts(tx, unit.Artist.ID, dAlbums, dSongs); err != nil {
				return err
			}
		}

		dArtists := 0
		if unit.ArtistCreated {
			dArtists = 1
		}
		if dArtists != 0 || dAlbums != 0 || dSongs != 0 {
			if err := w.store.UpdateLibraryCounts(tx, libraryID, dArtists, dAlbums, dSongs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", unit.Unit.Directory, err)
	}

	util.DebugLog("Committed %s: %d created, %d updated, %d unchanged",
		unit.Unit.Directory, result.SongsCreated, result.SongsUpdated, result.SongsUnchanged)
	return result, nil
}

// FinishScan stamps the library and appends the scan history record.
// The history row is written even when the scan ended in an error; the
// error text rides along on the record.
func (w *Writer) FinishScan(libraryID int64, h *store.ScanHistory) error {
	h.LibraryID = libraryID
	return w.store.Transaction(func(tx *sql.Tx) error {
		if h.Error == "" {
			if err := w.store.TouchLibraryScanned(tx, libraryID, time.Now()); err != nil {
				return err
			}
		}
		return w.store.AppendScanHistory(tx, h)
	})
}

func (w *Writer) linkCandidates(libraryID int64, candidates []*contrib.Candidate) []*store.Artist {
	linked := make([]*store.Artist, len(candidates))
	for i, c := range candidates {
		artist, err := w.store.GetArtistByNameNormalized(libraryID, meta.NormalizeName(c.Name))
		if err != nil {
			util.WarnLog("Contributor artist lookup failed for %q: %v", c.Name, err)
			continue
		}
		linked[i] = artist
	}
	return linked
}

func songRow(albumID int64, m *meta.SongMeta) *store.Song {
	song := &store.Song{AlbumID: albumID}
	applySongMeta(song, m)
	return song
}

func applySongMeta(song *store.Song, m *meta.SongMeta) {
	song.Title = m.Title
	song.TitleNormalized = meta.NormalizeName(m.Title)
	song.SongNumber = m.SongNumber
	song.DiscNumber = m.DiscNumber
	song.FileName = m.FileName
	song.FileHash = m.FileHash
	song.FileSize = m.FileSize
	song.DurationMs = m.DurationMs
	song.BitRate = m.BitRate
	song.SampleRate = m.SampleRate
	song.ChannelCount = m.Channels
	song.Lyrics = m.Lyrics
}
