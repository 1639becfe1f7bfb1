package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oskarh/groovebox/internal/music"
)

// AppleClient resolves Apple Music track ids via the public iTunes lookup
// API. The endpoint is unauthenticated and rate limited upstream (roughly 20
// requests per minute), so calls go through a local limiter.
type AppleClient struct {
	Country    string
	HTTPClient *http.Client

	baseURL string
	limiter *rate.Limiter
}

func NewAppleClient(country string) *AppleClient {
	if country == "" {
		country = "NO"
	}
	return &AppleClient{
		Country:    country,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://itunes.apple.com/lookup",
		limiter:    rate.NewLimiter(rate.Every(3*time.Second), 5),
	}
}

func (c *AppleClient) Song(ctx context.Context, id string) (music.CatalogTrack, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return music.CatalogTrack{}, err
	}

	params := url.Values{}
	params.Set("id", id)
	params.Set("country", strings.ToLower(c.Country))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return music.CatalogTrack{}, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return music.CatalogTrack{}, fmt.Errorf("%w: %v", ErrCatalogRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return music.CatalogTrack{}, fmt.Errorf("%w: itunes status %d", ErrCatalogRequestFailed, resp.StatusCode)
	}

	var payload struct {
		ResultCount int `json:"resultCount"`
		Results     []struct {
			TrackName  string `json:"trackName"`
			ArtistName string `json:"artistName"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return music.CatalogTrack{}, err
	}

	if payload.ResultCount == 0 || len(payload.Results) == 0 || payload.Results[0].TrackName == "" {
		return music.CatalogTrack{}, fmt.Errorf("itunes id %s: %w", id, music.ErrNotFound)
	}

	return music.CatalogTrack{
		ID:     id,
		Title:  strings.TrimSpace(payload.Results[0].TrackName),
		Artist: strings.TrimSpace(payload.Results[0].ArtistName),
	}, nil
}
