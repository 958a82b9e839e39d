package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

// Enricher looks up catalog artists against the enabled external
// providers and persists the ids they return. Provider failures are
// recorded and logged but never abort the run: the catalog stays
// serviceable without external metadata.
type Enricher struct {
	store     *store.Store
	cfg       *settings.Config
	providers []Provider
	now       func() time.Time
}

// Config holds enricher dependencies. Providers may be set explicitly;
// when nil the enabled providers are built from the settings.
type Config struct {
	Store     *store.Store
	Settings  *settings.Config
	Providers []Provider
}

// Result summarizes one enrichment pass
type Result struct {
	ArtistsExamined int
	ArtistsEnriched int
	ArtistsFailed   int
	Errors          []error
}

// New creates an Enricher
func New(cfg *Config) *Enricher {
	providers := cfg.Providers
	if providers == nil {
		providers = defaultProviders(cfg.Store, cfg.Settings)
	}
	return &Enricher{
		store:     cfg.Store,
		cfg:       cfg.Settings,
		providers: providers,
		now:       time.Now,
	}
}

func defaultProviders(s *store.Store, cfg *settings.Config) []Provider {
	var providers []Provider
	if cfg.MusicBrainzEnabled {
		// MusicBrainz is rate limited to one request a second, so its
		// lookups get the database-backed cache.
		var mb Provider = NewMusicBrainzClient()
		if s != nil {
			if cached, err := NewCache(s.DB(), mb); err != nil {
				util.WarnLog("Search cache unavailable, querying MusicBrainz directly: %v", err)
			} else {
				mb = cached
			}
		}
		providers = append(providers, mb)
	}
	if cfg.SpotifyEnabled {
		providers = append(providers, NewSpotifyClient(cfg.SpotifyApiKey, cfg.SpotifySharedSecret))
	}
	if cfg.ITunesEnabled {
		providers = append(providers, NewITunesClient())
	}
	if cfg.LastFmEnabled {
		providers = append(providers, NewLastFmClient(cfg.LastFmApiKey))
	}
	return providers
}

// EnrichArtists processes one page of artists needing enrichment:
// unprocessed artists, plus enriched ones whose last lookup is older
// than the configured refresh window.
func (e *Enricher) EnrichArtists(ctx context.Context) (*Result, error) {
	result := &Result{}
	if len(e.providers) == 0 {
		util.DebugLog("Enrichment: no providers enabled, nothing to do")
		return result, nil
	}

	var staleBefore time.Time
	if e.cfg.ArtistRefreshInDays > 0 {
		staleBefore = e.now().AddDate(0, 0, -e.cfg.ArtistRefreshInDays)
	}

	artists, err := e.store.ListArtistsForEnrichment(staleBefore, e.pageSize())
	if err != nil {
		return nil, fmt.Errorf("failed to list artists for enrichment: %w", err)
	}

	for _, artist := range artists {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.ArtistsExamined++

		if err := e.enrichArtist(ctx, artist); err != nil {
			result.ArtistsFailed++
			result.Errors = append(result.Errors, fmt.Errorf("artist %q: %w", artist.Name, err))
			util.WarnLog("Enrichment failed for %s: %v", artist.Name, err)
			continue
		}
		result.ArtistsEnriched++
	}

	if result.ArtistsExamined > 0 {
		util.InfoLog("Enriched %d/%d artists (%d failed)",
			result.ArtistsEnriched, result.ArtistsExamined, result.ArtistsFailed)
	}
	return result, nil
}

// enrichArtist queries every provider for one artist. Each query writes
// a search history row whether it succeeds or not. The artist fails only
// when no provider query completed.
func (e *Enricher) enrichArtist(ctx context.Context, artist *store.Artist) error {
	var succeeded int
	var lastErr error

	for _, provider := range e.providers {
		start := e.now()
		match, total, err := provider.SearchArtist(ctx, artist.Name, e.pageSize())
		elapsed := e.now().Sub(start)

		history := &store.SearchHistory{
			Query:             artist.Name,
			Provider:          provider.Name(),
			FoundArtistsCount: total,
			DurationMs:        elapsed.Milliseconds(),
			RequestedBy:       "enricher",
		}
		if histErr := e.store.AppendSearchHistory(e.store.DB(), history); histErr != nil {
			util.WarnLog("Failed to record search history: %v", histErr)
		}

		if err != nil {
			lastErr = err
			util.DebugLog("Provider %s failed for %q: %v", provider.Name(), artist.Name, err)
			continue
		}
		succeeded++
		if match != nil {
			e.applyMatch(artist, provider.Name(), match)
		}
	}

	now := e.now()
	artist.LastEnrichedAt = &now
	if succeeded == 0 {
		artist.MetaDataStatus = store.MetaDataStatusFailed
		if err := e.store.UpdateArtistEnrichment(e.store.DB(), artist); err != nil {
			return err
		}
		return fmt.Errorf("all providers failed: %w", lastErr)
	}

	artist.MetaDataStatus = store.MetaDataStatusEnriched
	return e.store.UpdateArtistEnrichment(e.store.DB(), artist)
}

func (e *Enricher) applyMatch(artist *store.Artist, provider string, match *Match) {
	switch provider {
	case "musicbrainz":
		if artist.MusicBrainzID == "" {
			artist.MusicBrainzID = match.ExternalID
		}
		if artist.SortName == "" && match.SortName != "" {
			artist.SortName = match.SortName
		}
	case "spotify":
		artist.SpotifyID = match.ExternalID
	case "itunes":
		artist.ITunesID = match.ExternalID
	case "lastfm":
		artist.LastFmID = match.ExternalID
	}
}

func (e *Enricher) pageSize() int {
	size := e.cfg.DefaultPageSize
	if size <= 0 {
		size = 10
	}
	if max := e.cfg.MaximumAllowedPageSize; max > 0 && size > max {
		size = max
	}
	return size
}
