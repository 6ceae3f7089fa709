package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetcher retrieves the raw observation text for an airfield.
type Fetcher interface {
	FetchRaw(ctx context.Context, icao string) (string, error)
}

// AviationWeather fetches METARs from the aviationweather.gov data API.
type AviationWeather struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewAviationWeather creates a client with a bounded request timeout.
func NewAviationWeather(cfg Config) *AviationWeather {
	return &AviationWeather{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type metarEntry struct {
	RawOb string `json:"rawOb"`
	Metar string `json:"metar"`
}

// FetchRaw returns the most recent observation for icao.
func (a *AviationWeather) FetchRaw(ctx context.Context, icao string) (string, error) {
	q := url.Values{}
	q.Set("ids", icao)
	q.Set("format", "json")
	q.Set("taf", "false")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("metar %s: unexpected status %d", icao, resp.StatusCode)
	}
	var entries []metarEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", fmt.Errorf("decode metar %s: %w", icao, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no METAR data returned for %s", icao)
	}
	if entries[0].RawOb != "" {
		return entries[0].RawOb, nil
	}
	return entries[0].Metar, nil
}
