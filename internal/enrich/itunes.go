package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mbrandt/chorus/internal/util"
)

const itunesBaseURL = "https://itunes.apple.com"

// ITunesClient queries the iTunes search API. No credentials required.
type ITunesClient struct {
	BaseURL    string
	httpClient *http.Client
}

// NewITunesClient creates an iTunes client
func NewITunesClient() *ITunesClient {
	return &ITunesClient{
		BaseURL:    itunesBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Provider
func (c *ITunesClient) Name() string { return "itunes" }

type itunesSearchResult struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesArtist `json:"results"`
}

type itunesArtist struct {
	ArtistID   int64  `json:"artistId"`
	ArtistName string `json:"artistName"`
}

// SearchArtist searches for an artist by name and returns an exact-name hit
func (c *ITunesClient) SearchArtist(ctx context.Context, name string, limit int) (*Match, int, error) {
	if name == "" {
		return nil, 0, fmt.Errorf("artist name cannot be empty")
	}

	urlStr := fmt.Sprintf("%s/search?term=%s&entity=musicArtist&limit=%d",
		c.BaseURL, url.QueryEscape(name), limit)

	util.DebugLog("iTunes: searching for artist %q", name)

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

	var result itunesSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, hit := range result.Results {
		if strings.EqualFold(hit.ArtistName, name) {
			return &Match{
				ExternalID: strconv.FormatInt(hit.ArtistID, 10),
				Name:       hit.ArtistName,
			}, result.ResultCount, nil
		}
	}

	util.DebugLog("iTunes: no exact match for %q in %d results", name, result.ResultCount)
	return nil, result.ResultCount, nil
}
