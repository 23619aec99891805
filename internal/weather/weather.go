// Package weather proxies the weather API and caches reports briefly.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/novolabs/novo/internal/cache"
)

const defaultBaseURL = "https://api.weatherapi.com/v1"

// Report is a simplified weather snapshot plus up to three forecast days.
type Report struct {
	Location  string        `json:"location"`
	Country   string        `json:"country,omitempty"`
	TempC     float64       `json:"tempC"`
	FeelsC    float64       `json:"feelsC"`
	Condition string        `json:"condition"`
	Humidity  int           `json:"humidity"`
	WindKph   float64       `json:"windKph"`
	Forecast  []ForecastDay `json:"forecast,omitempty"`
	Fallback  bool          `json:"fallback,omitempty"`
}

// ForecastDay is one day of forecast data.
type ForecastDay struct {
	Date      string  `json:"date"`
	MaxC      float64 `json:"maxC"`
	MinC      float64 `json:"minC"`
	Condition string  `json:"condition"`
}

// Client fetches weather reports.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	reports    *cache.Cache[Report]
}

// NewClient returns a weather client with a report cache.
func NewClient(apiKey string, cacheTTL time.Duration) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		reports:    cache.New[Report](cacheTTL),
	}
}

// SetBaseURL overrides the API endpoint. Tests only.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Get returns the report for the coordinates, serving from cache when a
// nearby lookup happened within the TTL. Coordinates are rounded to two
// decimals (about a kilometer) for the cache key.
func (c *Client) Get(ctx context.Context, lat, lon float64) (Report, error) {
	key := cacheKey(lat, lon)
	if report, ok := c.reports.Get(key); ok {
		return report, nil
	}

	report, err := c.fetch(ctx, lat, lon)
	if err != nil {
		return FallbackReport(), err
	}
	c.reports.Set(key, report)
	return report, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (Report, error) {
	if c.apiKey == "" {
		return Report{}, fmt.Errorf("weather api key is not configured")
	}

	endpoint := fmt.Sprintf("%s/forecast.json?%s", c.baseURL, url.Values{
		"key":  {c.apiKey},
		"q":    {fmt.Sprintf("%.4f,%.4f", lat, lon)},
		"days": {"3"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Report{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	report := Report{
		Location:  payload.Location.Name,
		Country:   payload.Location.Country,
		TempC:     payload.Current.TempC,
		FeelsC:    payload.Current.FeelslikeC,
		Condition: payload.Current.Condition.Text,
		Humidity:  payload.Current.Humidity,
		WindKph:   payload.Current.WindKph,
	}
	for _, day := range payload.Forecast.ForecastDay {
		report.Forecast = append(report.Forecast, ForecastDay{
			Date:      day.Date,
			MaxC:      day.Day.MaxtempC,
			MinC:      day.Day.MintempC,
			Condition: day.Day.Condition.Text,
		})
	}
	return report, nil
}

// Describe renders the report as a sentence the avatar can speak.
func (r Report) Describe() string {
	var b strings.Builder
	where := r.Location
	if where == "" {
		where = "your area"
	}
	fmt.Fprintf(&b, "It's currently %.0f degrees and %s in %s", r.TempC, strings.ToLower(r.Condition), where)
	if r.FeelsC != 0 && r.FeelsC != r.TempC {
		fmt.Fprintf(&b, ", feels like %.0f", r.FeelsC)
	}
	fmt.Fprintf(&b, ". Humidity is %d%% with wind at %.0f km/h.", r.Humidity, r.WindKph)
	if len(r.Forecast) > 0 {
		b.WriteString(" Over the next few days:")
		for _, day := range r.Forecast {
			fmt.Fprintf(&b, " %s, %s with a high of %.0f and a low of %.0f.", day.Date, strings.ToLower(day.Condition), day.MaxC, day.MinC)
		}
	}
	return b.String()
}

// FallbackReport is served when the upstream API fails, so the voice
// conversation has something to say instead of going silent.
func FallbackReport() Report {
	return Report{
		Location:  "your area",
		TempC:     22,
		FeelsC:    22,
		Condition: "Partly cloudy",
		Humidity:  55,
		WindKph:   10,
		Fallback:  true,
	}
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

type apiResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64 `json:"temp_c"`
		FeelslikeC float64 `json:"feelslike_c"`
		Humidity   int     `json:"humidity"`
		WindKph    float64 `json:"wind_kph"`
		Condition  struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxtempC  float64 `json:"maxtemp_c"`
				MintempC  float64 `json:"mintemp_c"`
				Condition struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}
