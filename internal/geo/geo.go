// Package geo resolves a client IP to an approximate location.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "http://ip-api.com/json"

// Location is an approximate position for an IP address.
type Location struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Fallback  bool    `json:"fallback,omitempty"`
}

// Client looks up IP geolocation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a geolocation client.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint. Tests only.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Lookup resolves ip to a location, returning a static fallback on any
// upstream failure so callers always have coordinates to work with.
func (c *Client) Lookup(ctx context.Context, ip string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+ip, nil)
	if err != nil {
		return FallbackLocation(), fmt.Errorf("failed to build geolocation request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FallbackLocation(), fmt.Errorf("failed to fetch geolocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FallbackLocation(), fmt.Errorf("geolocation api returned status %d", resp.StatusCode)
	}

	var payload struct {
		Status     string  `json:"status"`
		City       string  `json:"city"`
		RegionName string  `json:"regionName"`
		Country    string  `json:"country"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FallbackLocation(), fmt.Errorf("failed to decode geolocation response: %w", err)
	}
	if payload.Status != "success" {
		return FallbackLocation(), fmt.Errorf("geolocation lookup failed for %s", ip)
	}

	return Location{
		City:      payload.City,
		Region:    payload.RegionName,
		Country:   payload.Country,
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
	}, nil
}

// FallbackLocation is used when lookup fails.
func FallbackLocation() Location {
	return Location{
		City:      "Tel Aviv",
		Region:    "Tel Aviv District",
		Country:   "Israel",
		Latitude:  32.0853,
		Longitude: 34.7818,
		Fallback:  true,
	}
}
