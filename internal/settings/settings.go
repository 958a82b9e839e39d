package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

// Batch size bounds enforced on defaults.batchSize.
const (
	MinBatchSize = 250
	MaxBatchSize = 1000
)

// Config is the parsed, typed view of the settings table. It is loaded
// once per scan run; concurrent workers share the same snapshot.
type Config struct {
	BatchSize int
	PageSize  int

	ArtistHousekeepingCron             string
	ArtistSearchEngineHousekeepingCron string
	LibraryInsertCron                  string
	LibraryProcessCron                 string
	MusicBrainzUpdateCron              string

	MagicEnabled                     bool
	RemoveFeaturingFromSongArtist    bool
	RemoveFeaturingFromSongTitle     bool
	RemoveUnwantedTextFromAlbumTitle bool
	RenumberSongs                    bool
	ReplaceSongArtistSeparators      bool
	SetYearToCurrentIfInvalid        bool

	AlbumTitleRemovals        []string
	SongTitleRemovals         []string
	ArtistNameReplacements    map[string][]string
	ContinueOnDirectoryErrors bool
	DeleteComments            bool
	UseCurrentYearAsOrigYear  bool
	DuplicateAlbumPrefix      string
	IgnoredArticles           []string
	IgnoredPerformers         []string
	IgnoredProduction         []string
	IgnoredPublishers         []string
	MaximumProcessingCount    int
	SkippedDirectoryPrefix    string
	StagingDirectoryScanLimit int

	ArtistRefreshInDays    int
	DefaultPageSize        int
	MaximumAllowedPageSize int
	ITunesEnabled          bool
	LastFmEnabled          bool
	LastFmApiKey           string
	MusicBrainzEnabled     bool
	SpotifyEnabled         bool
	SpotifyApiKey          string
	SpotifySharedSecret    string

	MinimumAlbumYear   int
	MaximumAlbumYear   int
	MaximumMediaNumber int
	MaximumSongNumber  int
}

// Seed inserts every default setting row that does not already exist
func Seed(s *store.Store) error {
	for _, d := range Defaults {
		if err := s.SeedSetting(d.Key, d.Value, d.Category, d.Description); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the settings table into a Config. Keys missing from the
// table fall back to the seeded default, so Load works on an unseeded
// database too. A value that fails to parse is an error, not a silent
// fallback.
func Load(s *store.Store) (*Config, error) {
	values := make(map[string]string, len(Defaults))
	for _, d := range Defaults {
		values[d.Key] = d.Value
	}
	rows, err := s.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	for _, row := range rows {
		values[row.Key] = row.Value
	}

	p := &parser{values: values}
	cfg := &Config{
		BatchSize: p.intValue(DefaultsBatchSize),
		PageSize:  p.intValue(DefaultsPageSize),

		ArtistHousekeepingCron:             values[JobsArtistHousekeepingCron],
		ArtistSearchEngineHousekeepingCron: values[JobsArtistSearchEngineHousekeepingCron],
		LibraryInsertCron:                  values[JobsLibraryInsertCron],
		LibraryProcessCron:                 values[JobsLibraryProcessCron],
		MusicBrainzUpdateCron:              values[JobsMusicBrainzUpdateDatabaseCron],

		MagicEnabled:                     p.boolValue(MagicEnabled),
		RemoveFeaturingFromSongArtist:    p.boolValue(MagicDoRemoveFeaturingArtistFromSongArtist),
		RemoveFeaturingFromSongTitle:     p.boolValue(MagicDoRemoveFeaturingArtistFromSongTitle),
		RemoveUnwantedTextFromAlbumTitle: p.boolValue(MagicDoRemoveUnwantedTextFromAlbumTitle),
		RenumberSongs:                    p.boolValue(MagicDoRenumberSongs),
		ReplaceSongArtistSeparators:      p.boolValue(MagicDoReplaceSongsArtistSeparators),
		SetYearToCurrentIfInvalid:        p.boolValue(MagicDoSetYearToCurrentIfInvalid),

		AlbumTitleRemovals:        p.jsonList(ProcessingAlbumTitleRemovals),
		SongTitleRemovals:         p.jsonList(ProcessingSongTitleRemovals),
		ArtistNameReplacements:    p.jsonDict(ProcessingArtistNameReplacements),
		ContinueOnDirectoryErrors: p.boolValue(ProcessingDoContinueOnDirectoryErrors),
		DeleteComments:            p.boolValue(ProcessingDoDeleteComments),
		UseCurrentYearAsOrigYear:  p.boolValue(ProcessingDoUseCurrentYearAsDefaultOrigYear),
		DuplicateAlbumPrefix:      values[ProcessingDuplicateAlbumPrefix],
		IgnoredArticles:           p.pipeList(ProcessingIgnoredArticles),
		IgnoredPerformers:         p.pipeList(ProcessingIgnoredPerformers),
		IgnoredProduction:         p.pipeList(ProcessingIgnoredProduction),
		IgnoredPublishers:         p.pipeList(ProcessingIgnoredPublishers),
		MaximumProcessingCount:    p.intValue(ProcessingMaximumProcessingCount),
		SkippedDirectoryPrefix:    values[ProcessingSkippedDirectoryPrefix],
		StagingDirectoryScanLimit: p.intValue(ProcessingStagingDirectoryScanLimit),

		ArtistRefreshInDays:    p.intValue(SearchEngineArtistRefreshInDays),
		DefaultPageSize:        p.intValue(SearchEngineDefaultPageSize),
		MaximumAllowedPageSize: p.intValue(SearchEngineMaximumAllowedPageSize),
		ITunesEnabled:          p.boolValue(SearchEngineITunesEnabled),
		LastFmEnabled:          p.boolValue(SearchEngineLastFmEnabled),
		LastFmApiKey:           values[SearchEngineLastFmApiKey],
		MusicBrainzEnabled:     p.boolValue(SearchEngineMusicBrainzEnabled),
		SpotifyEnabled:         p.boolValue(SearchEngineSpotifyEnabled),
		SpotifyApiKey:          values[SearchEngineSpotifyApiKey],
		SpotifySharedSecret:    values[SearchEngineSpotifySharedSecret],

		MinimumAlbumYear:   p.intValue(ValidationMinimumAlbumYear),
		MaximumAlbumYear:   p.intValue(ValidationMaximumAlbumYear),
		MaximumMediaNumber: p.intValue(ValidationMaximumMediaNumber),
		MaximumSongNumber:  p.intValue(ValidationMaximumSongNumber),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.BatchSize < MinBatchSize {
		cfg.BatchSize = MinBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.DefaultPageSize > cfg.MaximumAllowedPageSize {
		cfg.DefaultPageSize = cfg.MaximumAllowedPageSize
	}
	if cfg.MinimumAlbumYear >= cfg.MaximumAlbumYear {
		return nil, fmt.Errorf("%s (%d) must be below %s (%d): %w",
			ValidationMinimumAlbumYear, cfg.MinimumAlbumYear,
			ValidationMaximumAlbumYear, cfg.MaximumAlbumYear, util.ErrInvalidConfig)
	}

	return cfg, nil
}

// parser accumulates the first parse failure instead of returning an
// error from every accessor
type parser struct {
	values map[string]string
	err    error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid setting %s: %v: %w", key, err, util.ErrInvalidConfig)
	}
}

func (p *parser) boolValue(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(p.values[key]))
	if err != nil {
		p.fail(key, err)
		return false
	}
	return v
}

func (p *parser) intValue(key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(p.values[key]))
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return v
}

// pipeList splits a pipe-delimited value, trimming blanks. An empty
// value yields an empty list.
func (p *parser) pipeList(key string) []string {
	raw := strings.TrimSpace(p.values[key])
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) jsonList(key string) []string {
	raw := strings.TrimSpace(p.values[key])
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		p.fail(key, err)
		return nil
	}
	return out
}

func (p *parser) jsonDict(key string) map[string][]string {
	raw := strings.TrimSpace(p.values[key])
	if raw == "" {
		return nil
	}
	out := map[string][]string{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		p.fail(key, err)
		return nil
	}
	return out
}
