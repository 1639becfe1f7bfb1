// Package catalog implements the music metadata providers: the credentialed
// Spotify Web API and the public iTunes lookup API.
package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oskarh/groovebox/internal/music"
)

var ErrCatalogRequestFailed = errors.New("catalog request failed")

// SpotifyClient talks to the Spotify Web API with client-credentials auth.
// The access token is cached until shortly before expiry.
type SpotifyClient struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client

	baseURL  string
	tokenURL string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewSpotifyClient(clientID, clientSecret string) *SpotifyClient {
	return &SpotifyClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      "https://api.spotify.com/v1",
		tokenURL:     "https://accounts.spotify.com/api/token",
	}
}

// Track looks up a single track by id.
func (c *SpotifyClient) Track(ctx context.Context, id string) (music.CatalogTrack, error) {
	var payload spotifyTrack
	if err := c.getJSON(ctx, c.baseURL+"/tracks/"+id, &payload); err != nil {
		return music.CatalogTrack{}, err
	}
	if payload.Name == "" {
		return music.CatalogTrack{}, fmt.Errorf("spotify track %s: %w", id, music.ErrNotFound)
	}
	return payload.catalogTrack(), nil
}

// PlaylistTail returns up to max items from the end of a playlist, in
// playlist order. The playlist total is read first so only one item page is
// fetched.
func (c *SpotifyClient) PlaylistTail(ctx context.Context, id string, max int) ([]music.CatalogTrack, error) {
	var meta struct {
		Tracks struct {
			Total int `json:"total"`
		} `json:"tracks"`
	}
	endpoint := c.baseURL + "/playlists/" + id + "?fields=tracks(total)"
	if err := c.getJSON(ctx, endpoint, &meta); err != nil {
		return nil, err
	}
	if meta.Tracks.Total == 0 {
		return nil, fmt.Errorf("spotify playlist %s is empty: %w", id, music.ErrNotFound)
	}

	offset := meta.Tracks.Total - max
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("limit", fmt.Sprintf("%d", max))
	params.Set("fields", "items(track(id,name,artists(name)))")

	var page struct {
		Items []struct {
			Track spotifyTrack `json:"track"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/playlists/"+id+"/tracks?"+params.Encode(), &page); err != nil {
		return nil, err
	}

	items := make([]music.CatalogTrack, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track.Name == "" {
			continue
		}
		items = append(items, item.Track.catalogTrack())
	}
	return items, nil
}

func (c *SpotifyClient) getJSON(ctx context.Context, endpoint string, out any) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("spotify status 404: %w", music.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", ErrCatalogRequestFailed, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *SpotifyClient) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	if c.ClientID == "" || c.ClientSecret == "" {
		return "", fmt.Errorf("%w: missing spotify client credentials", ErrCatalogRequestFailed)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.ClientID, c.ClientSecret))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCatalogRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrCatalogRequestFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrCatalogRequestFailed)
	}

	c.accessToken = payload.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn-30) * time.Second)

	return c.accessToken, nil
}

func basicAuth(clientID, clientSecret string) string {
	raw := clientID + ":" + clientSecret
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

func (t spotifyTrack) catalogTrack() music.CatalogTrack {
	ct := music.CatalogTrack{ID: t.ID, Title: strings.TrimSpace(t.Name)}
	if len(t.Artists) > 0 {
		ct.Artist = strings.TrimSpace(t.Artists[0].Name)
	}
	return ct
}
