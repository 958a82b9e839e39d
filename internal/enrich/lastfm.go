package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mbrandt/chorus/internal/util"
)

const lastFmBaseURL = "https://ws.audioscrobbler.com/2.0"

// LastFmClient queries the Last.fm artist search API
type LastFmClient struct {
	BaseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLastFmClient creates a Last.fm client with the given API key
func NewLastFmClient(apiKey string) *LastFmClient {
	return &LastFmClient{
		BaseURL:    lastFmBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Provider
func (c *LastFmClient) Name() string { return "lastfm" }

type lastFmSearchResult struct {
	Results struct {
		TotalResults  string `json:"opensearch:totalResults"`
		ArtistMatches struct {
			Artist []lastFmArtist `json:"artist"`
		} `json:"artistmatches"`
	} `json:"results"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type lastFmArtist struct {
	Name string `json:"name"`
	MBID string `json:"mbid"`
	URL  string `json:"url"`
}

// SearchArtist searches for an artist by name and returns an exact-name hit.
// Last.fm has no stable numeric artist id, so the artist page URL is used
// as the external id.
func (c *LastFmClient) SearchArtist(ctx context.Context, name string, limit int) (*Match, int, error) {
	if name == "" {
		return nil, 0, fmt.Errorf("artist name cannot be empty")
	}
	if c.apiKey == "" {
		return nil, 0, fmt.Errorf("lastfm api key not configured")
	}

	urlStr := fmt.Sprintf("%s/?method=artist.search&artist=%s&api_key=%s&format=json&limit=%d",
		c.BaseURL, url.QueryEscape(name), url.QueryEscape(c.apiKey), limit)

	util.DebugLog("Last.fm: searching for artist %q", name)

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(payload))
	}

	var result lastFmSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != 0 {
		return nil, 0, fmt.Errorf("lastfm error %d: %s", result.Error, result.Message)
	}

	total := len(result.Results.ArtistMatches.Artist)
	for _, hit := range result.Results.ArtistMatches.Artist {
		if strings.EqualFold(hit.Name, name) {
			return &Match{ExternalID: hit.URL, Name: hit.Name}, total, nil
		}
	}

	util.DebugLog("Last.fm: no exact match for %q", name)
	return nil, total, nil
}
