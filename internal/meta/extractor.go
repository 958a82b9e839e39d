package meta

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"github.com/spf13/afero"

	"github.com/mbrandt/chorus/internal/util"
)

// SongMeta is the extracted and normalized metadata of one audio file
type SongMeta struct {
	Path     string
	FileName string
	FileSize int64
	FileHash string

	Artist      string
	AlbumArtist string
	Album       string
	Title       string

	Year       int
	OrigYear   int
	SongNumber int
	SongTotal  int
	DiscNumber int
	DiscTotal  int

	Genre   string
	Comment string
	Lyrics  string

	DurationMs int64
	BitRate    int
	SampleRate int
	Channels   int

	// Contributor candidates carried through normalization.
	Featuring  []string
	Performers []string
	Producers  []string
	Publishers []string

	MusicBrainzArtistID string
}

// AlbumUnit is the in-memory candidate graph assembled from one
// directory: a primary artist, one album, and its songs. It is built
// by the extractor, rewritten by the magic engine, and only then
// handed to identity resolution. Nothing here touches persistence.
type AlbumUnit struct {
	Directory string

	ArtistName           string
	ArtistNameNormalized string
	ArtistSortName       string
	ArtistMusicBrainzID  string

	AlbumName           string
	AlbumNameNormalized string
	AlbumSortName       string

	Year     int
	OrigYear int
	Genres   []string
	Songs    []*SongMeta
}

// Extractor reads tag metadata from the audio files of a candidate
// directory and assembles an AlbumUnit
type Extractor struct {
	fs afero.Fs
}

// ExtractorConfig holds extractor configuration
type ExtractorConfig struct {
	Fs afero.Fs
}

// NewExtractor creates a metadata extractor
func NewExtractor(cfg *ExtractorConfig) *Extractor {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Extractor{fs: fs}
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".m4b":  true,
	".aac":  true,
	".wav":  true,
	".wma":  true,
	".ape":  true,
	".wv":   true,
}

// IsAudioFile reports whether the path has a recognized audio extension
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// ExtractDir extracts metadata for every audio file in the given list and
// assembles the directory's AlbumUnit. A directory without a single
// readable audio file is an error; individual files that fail tag parsing
// fall back to filename and directory inference.
func (e *Extractor) ExtractDir(ctx context.Context, dir string, files []string) (*AlbumUnit, error) {
	unit := &AlbumUnit{Directory: dir}

	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if !IsAudioFile(file) {
			continue
		}

		song, err := e.extractFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", file, err)
		}
		unit.Songs = append(unit.Songs, song)
	}

	if len(unit.Songs) == 0 {
		return nil, fmt.Errorf("no audio files in %s: %w", dir, util.ErrNotFound)
	}

	sort.Slice(unit.Songs, func(i, j int) bool {
		a, b := unit.Songs[i], unit.Songs[j]
		if a.DiscNumber != b.DiscNumber {
			return a.DiscNumber < b.DiscNumber
		}
		if a.SongNumber != b.SongNumber {
			return a.SongNumber < b.SongNumber
		}
		return a.FileName < b.FileName
	})

	e.assembleUnit(unit)
	return unit, nil
}

// extractFile reads one audio file. Tags come from the tag library when
// the container is parsable; otherwise the filename and directory
// structure fill in what they can.
func (e *Extractor) extractFile(path string) (*SongMeta, error) {
	util.DebugLog("Extracting metadata: %s", path)

	info, err := e.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hash, err := util.ContentHash(e.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	song := &SongMeta{
		Path:     path,
		FileName: filepath.Base(path),
		FileSize: info.Size(),
		FileHash: hash,
	}

	if err := e.readTags(path, song); err != nil {
		util.DebugLog("Tag read failed for %s, using filename: %v", path, err)
	}
	applyFilenameFallback(song, path)

	if song.DiscNumber <= 0 {
		song.DiscNumber = 1
	}

	return song, nil
}

// readTags fills song fields from the embedded tags
func (e *Extractor) readTags(path string, song *SongMeta) (err error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// The tag library can panic on truncated or malformed containers;
	// treat that like any other tag-parse failure so the caller's
	// filename fallback applies.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read tags: panic: %v", r)
		}
	}()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	song.Artist = strings.TrimSpace(m.Artist())
	song.AlbumArtist = strings.TrimSpace(m.AlbumArtist())
	song.Album = strings.TrimSpace(m.Album())
	song.Title = strings.TrimSpace(m.Title())
	song.Genre = strings.TrimSpace(m.Genre())
	song.Comment = strings.TrimSpace(m.Comment())
	song.Lyrics = strings.TrimSpace(m.Lyrics())
	song.Year = m.Year()

	song.SongNumber, song.SongTotal = m.Track()
	song.DiscNumber, song.DiscTotal = m.Disc()

	if composer := strings.TrimSpace(m.Composer()); composer != "" {
		song.Performers = appendUnique(song.Performers, composer)
	}

	readRawTags(m.Raw(), song)

	return nil
}

// readRawTags pulls role and identifier tags out of the raw frame map.
// The tag library lowercases vorbis comment keys, keeps id3v2 text
// frames under their four-letter ids, and stores user-defined TXXX
// frames as comment structs whose description carries the real name,
// so entries are matched on their uppercased resolved name.
func readRawTags(raw map[string]interface{}, song *SongMeta) {
	var artistID, albumArtistID string

	for key, value := range raw {
		name, text := rawField(key, value)
		if text == "" {
			continue
		}
		switch name {
		case "TPE3", "PERFORMER", "CONDUCTOR":
			song.Performers = appendUnique(song.Performers, text)
		case "TPUB", "PUBLISHER", "LABEL", "ORGANIZATION":
			song.Publishers = appendUnique(song.Publishers, text)
		case "TIPL", "IPLS", "PRODUCER":
			song.Producers = appendUnique(song.Producers, text)
		case "MUSICBRAINZ_ALBUMARTISTID", "MUSICBRAINZ ALBUM ARTIST ID":
			albumArtistID = text
		case "MUSICBRAINZ_ARTISTID", "MUSICBRAINZ ARTIST ID":
			artistID = text
		}
	}

	// The album artist id is the stronger identity when both are tagged.
	if albumArtistID != "" {
		song.MusicBrainzArtistID = albumArtistID
	} else if artistID != "" {
		song.MusicBrainzArtistID = artistID
	}
}

// rawField normalizes one raw map entry to an uppercased tag name and
// its text value
func rawField(key string, value interface{}) (name, text string) {
	name = key
	switch v := value.(type) {
	case string:
		text = v
	case *tag.Comm:
		if v.Description != "" {
			name = v.Description
		}
		text = v.Text
	case tag.Comm:
		if v.Description != "" {
			name = v.Description
		}
		text = v.Text
	default:
		return "", ""
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(text)
}

// assembleUnit derives the unit-level artist, album, year, and genres
// from the extracted songs, falling back to the directory structure
func (e *Extractor) assembleUnit(unit *AlbumUnit) {
	dirArtist, dirAlbum, dirYear := parseAlbumDirectory(unit.Directory)

	seenGenres := map[string]bool{}
	for _, song := range unit.Songs {
		if unit.ArtistName == "" {
			if song.AlbumArtist != "" {
				unit.ArtistName = song.AlbumArtist
			} else if song.Artist != "" {
				unit.ArtistName = song.Artist
			}
		}
		if unit.AlbumName == "" && song.Album != "" {
			unit.AlbumName = song.Album
		}
		if unit.Year == 0 && song.Year > 0 {
			unit.Year = song.Year
		}
		if unit.ArtistMusicBrainzID == "" && song.MusicBrainzArtistID != "" {
			unit.ArtistMusicBrainzID = song.MusicBrainzArtistID
		}
		if song.Genre != "" && !seenGenres[song.Genre] {
			seenGenres[song.Genre] = true
			unit.Genres = append(unit.Genres, song.Genre)
		}
	}

	if unit.ArtistName == "" {
		unit.ArtistName = dirArtist
	}
	if unit.AlbumName == "" {
		unit.AlbumName = dirAlbum
	}
	if unit.Year == 0 {
		unit.Year = dirYear
	}

	// Songs missing their own artist inherit the unit artist.
	for _, song := range unit.Songs {
		if song.Artist == "" {
			song.Artist = unit.ArtistName
		}
		if song.Album == "" {
			song.Album = unit.AlbumName
		}
	}
}

// applyFilenameFallback fills empty song fields from the filename and
// the directory path. Tag values always win.
func applyFilenameFallback(song *SongMeta, path string) {
	parsed := parseFileName(filepath.Base(path))

	if song.SongNumber == 0 && parsed.track > 0 {
		song.SongNumber = parsed.track
	}
	if song.Title == "" && parsed.title != "" {
		song.Title = parsed.title
	}
	if song.Artist == "" && parsed.artist != "" {
		song.Artist = parsed.artist
	}

	if song.DiscNumber == 0 {
		if disc := parseDiscDirectory(filepath.Dir(path)); disc > 0 {
			song.DiscNumber = disc
		}
	}
}
