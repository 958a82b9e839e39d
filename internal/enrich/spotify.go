package enrich

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mbrandt/chorus/internal/util"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// SpotifyClient queries the Spotify search API using the
// client-credentials flow. Tokens are cached until shortly before
// expiry.
type SpotifyClient struct {
	BaseURL  string
	TokenURL string

	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyClient creates a Spotify client with the given credentials
func NewSpotifyClient(clientID, clientSecret string) *SpotifyClient {
	return &SpotifyClient{
		BaseURL:      spotifyBaseURL,
		TokenURL:     spotifyTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Provider
func (c *SpotifyClient) Name() string { return "spotify" }

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type spotifySearchResult struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
		Total int             `json:"total"`
	} `json:"artists"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *SpotifyClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}
	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("spotify credentials not configured")
	}

	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, "POST", c.TokenURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(payload))
	}

	var token spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.accessToken = token.AccessToken
	// Renew a minute early so in-flight searches never carry a stale token.
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// SearchArtist searches for an artist by name and returns the top hit
func (c *SpotifyClient) SearchArtist(ctx context.Context, name string, limit int) (*Match, int, error) {
	if name == "" {
		return nil, 0, fmt.Errorf("artist name cannot be empty")
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, 0, err
	}

	urlStr := fmt.Sprintf("%s/search?q=%s&type=artist&limit=%d",
		c.BaseURL, url.QueryEscape(name), limit)

	util.DebugLog("Spotify: searching for artist %q", name)

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, 0, fmt.Errorf("spotify rate limit exceeded (429)")
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(payload))
	}

	var result spotifySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Artists.Items) == 0 {
		util.DebugLog("Spotify: no results for %q", name)
		return nil, result.Artists.Total, nil
	}

	top := result.Artists.Items[0]
	if !strings.EqualFold(top.Name, name) {
		util.DebugLog("Spotify: top hit %q does not match %q, discarding", top.Name, name)
		return nil, result.Artists.Total, nil
	}

	return &Match{ExternalID: top.ID, Name: top.Name}, result.Artists.Total, nil
}
