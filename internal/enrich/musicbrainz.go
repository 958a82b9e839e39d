package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mbrandt/chorus/internal/util"
)

const (
	musicBrainzBaseURL = "https://musicbrainz.org/ws/2"

	// MusicBrainz requires a descriptive user agent and at most one
	// request per second.
	musicBrainzUserAgent = "chorus/1.0 (https://github.com/mbrandt/chorus)"
	musicBrainzRateLimit = 1 * time.Second

	// Matches below this score are treated as misses.
	musicBrainzMinScore = 90
)

// MusicBrainzClient queries the MusicBrainz artist search API
type MusicBrainzClient struct {
	BaseURL     string
	httpClient  *http.Client
	userAgent   string
	rateLimiter *time.Ticker
}

// NewMusicBrainzClient creates a rate-limited MusicBrainz client
func NewMusicBrainzClient() *MusicBrainzClient {
	return &MusicBrainzClient{
		BaseURL:     musicBrainzBaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		userAgent:   musicBrainzUserAgent,
		rateLimiter: time.NewTicker(musicBrainzRateLimit),
	}
}

// Close releases the rate limiter
func (c *MusicBrainzClient) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}

// Name implements Provider
func (c *MusicBrainzClient) Name() string { return "musicbrainz" }

type mbArtistSearchResult struct {
	Artists []mbArtist `json:"artists"`
	Count   int        `json:"count"`
}

type mbArtist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
	Score    int    `json:"score"`
}

// SearchArtist searches for an artist by name and returns the best
// match at or above the score threshold
func (c *MusicBrainzClient) SearchArtist(ctx context.Context, name string, limit int) (*Match, int, error) {
	if name == "" {
		return nil, 0, fmt.Errorf("artist name cannot be empty")
	}

	select {
	case <-c.rateLimiter.C:
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}

	urlStr := fmt.Sprintf("%s/artist/?query=%s&fmt=json&limit=%d",
		c.BaseURL, url.QueryEscape(name), limit)

	util.DebugLog("MusicBrainz: searching for artist %q", name)

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, 0, fmt.Errorf("musicbrainz unavailable (503), rate limit exceeded or maintenance")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result mbArtistSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Artists) == 0 {
		util.DebugLog("MusicBrainz: no results for %q", name)
		return nil, 0, nil
	}

	best := result.Artists[0]
	if best.Score < musicBrainzMinScore {
		util.DebugLog("MusicBrainz: low confidence match (%d) for %q, discarding", best.Score, name)
		return nil, result.Count, nil
	}

	util.DebugLog("MusicBrainz: found %q (score %d, mbid %s)", best.Name, best.Score, best.ID)
	return &Match{ExternalID: best.ID, Name: best.Name, SortName: best.SortName}, result.Count, nil
}
