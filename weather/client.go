// Package weather is a client for the Open-Meteo family of REST APIs:
// forecast, air quality, marine, geocoding and the historical archives.
//
// Every call validates its parameters up front (*ValidationError), then
// applies a bounded retry with exponential backoff on transport errors and
// HTTP error statuses; exhausted retries surface as *UpstreamError.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default API hosts.
const (
	DefaultForecastURL           = "https://api.open-meteo.com/v1/forecast"
	DefaultAirQualityURL         = "https://air-quality-api.open-meteo.com/v1/air-quality"
	DefaultMarineURL             = "https://marine-api.open-meteo.com/v1/marine"
	DefaultGeocodingURL          = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultArchiveURL            = "https://archive-api.open-meteo.com/v1/archive"
	DefaultHistoricalForecastURL = "https://historical-forecast-api.open-meteo.com/v1/forecast"
)

// UpstreamError is returned when a request still fails after the retry
// budget is exhausted.
type UpstreamError struct {
	URL      string
	Status   int // 0 when the failure was transport-level
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("weather upstream %s returned status %d after %d attempts", e.URL, e.Status, e.Attempts)
	}
	return fmt.Sprintf("weather upstream %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap exposes the underlying transport error, if any.
func (e *UpstreamError) Unwrap() error { return e.Err }

// Options configure a Client.
type Options struct {
	ForecastURL           string
	AirQualityURL         string
	MarineURL             string
	GeocodingURL          string
	ArchiveURL            string
	HistoricalForecastURL string

	HTTPClient *http.Client
	UserAgent  string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Backoff is the base delay; attempt n sleeps Backoff * 2^n.
	Backoff time.Duration
}

// Client calls the Open-Meteo APIs. Safe for concurrent use.
type Client struct {
	opts Options
}

// NewClient creates a Client with production hosts and a 10s HTTP timeout.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		ForecastURL:           DefaultForecastURL,
		AirQualityURL:         DefaultAirQualityURL,
		MarineURL:             DefaultMarineURL,
		GeocodingURL:          DefaultGeocodingURL,
		ArchiveURL:            DefaultArchiveURL,
		HistoricalForecastURL: DefaultHistoricalForecastURL,
		HTTPClient:            &http.Client{Timeout: 10 * time.Second},
		UserAgent:             "relay-open-meteo/1.0",
		MaxRetries:            2,
		Backoff:               600 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{opts: opts}
}

// CurrentWeather returns the current_weather block, or an empty map when the
// upstream omits it.
func (c *Client) CurrentWeather(ctx context.Context, p CurrentParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	setLatLon(q, p.Latitude, p.Longitude)
	q.Set("current_weather", "true")
	q.Set("timezone", timezoneOrAuto(p.Timezone))

	data, err := c.getJSON(ctx, c.opts.ForecastURL, q)
	if err != nil {
		return nil, err
	}
	return block(data, "current_weather"), nil
}

// HourlyForecast returns the hourly block, optionally truncated to
// LimitHours entries per series.
func (c *Client) HourlyForecast(ctx context.Context, p HourlyParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	fields := p.Hourly
	if len(fields) == 0 {
		fields = []string{"temperature_2m", "precipitation", "windspeed_10m", "weathercode"}
	}

	q := url.Values{}
	setLatLon(q, p.Latitude, p.Longitude)
	q.Set("hourly", strings.Join(fields, ","))
	q.Set("timezone", timezoneOrAuto(p.Timezone))

	data, err := c.getJSON(ctx, c.opts.ForecastURL, q)
	if err != nil {
		return nil, err
	}

	hourly := block(data, "hourly")
	if p.LimitHours > 0 {
		truncateSeries(hourly, p.LimitHours)
	}
	return hourly, nil
}

// DailyForecast returns the daily block for the requested number of days.
func (c *Client) DailyForecast(ctx context.Context, p DailyParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	fields := p.Daily
	if len(fields) == 0 {
		fields = []string{"temperature_2m_max", "temperature_2m_min", "precipitation_sum"}
	}
	days := p.Days
	if days < 1 {
		days = 3
	}

	q := url.Values{}
	setLatLon(q, p.Latitude, p.Longitude)
	q.Set("daily", strings.Join(fields, ","))
	q.Set("forecast_days", strconv.Itoa(days))
	q.Set("timezone", timezoneOrAuto(p.Timezone))

	data, err := c.getJSON(ctx, c.opts.ForecastURL, q)
	if err != nil {
		return nil, err
	}
	return block(data, "daily"), nil
}

// AirQuality returns the full air quality payload.
func (c *Client) AirQuality(ctx context.Context, p AirQualityParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	setLatLon(q, p.Latitude, p.Longitude)
	q.Set("timezone", timezoneOrAuto(p.Timezone))
	if len(p.Hourly) > 0 {
		q.Set("hourly", strings.Join(p.Hourly, ","))
	}
	if len(p.Current) > 0 {
		q.Set("current", strings.Join(p.Current, ","))
	}

	return c.getJSON(ctx, c.opts.AirQualityURL, q)
}

// MarineForecast returns the full marine payload.
func (c *Client) MarineForecast(ctx context.Context, p MarineParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	fields := p.Hourly
	if len(fields) == 0 {
		fields = []string{"wave_height", "wave_direction", "wave_period", "wind_wave_height"}
	}

	q := url.Values{}
	setLatLon(q, p.Latitude, p.Longitude)
	q.Set("hourly", strings.Join(fields, ","))
	q.Set("timezone", timezoneOrAuto(p.Timezone))

	return c.getJSON(ctx, c.opts.MarineURL, q)
}

// Geocode searches place names and returns the full payload including the
// results list.
func (c *Client) Geocode(ctx context.Context, p GeocodeParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	count := p.Count
	if count < 1 {
		count = 10
	}

	q := url.Values{}
	q.Set("name", p.Name)
	q.Set("count", strconv.Itoa(count))
	if p.Language != "" {
		q.Set("language", p.Language)
	}

	return c.getJSON(ctx, c.opts.GeocodingURL, q)
}

// HistoricalWeather queries the reanalysis archive for a past date range.
func (c *Client) HistoricalWeather(ctx context.Context, p HistoricalParams) (map[string]any, error) {
	return c.historical(ctx, c.opts.ArchiveURL, p,
		[]string{"temperature_2m", "precipitation", "windspeed_10m"})
}

// HistoricalForecast queries the historical forecast API (recent years).
func (c *Client) HistoricalForecast(ctx context.Context, p HistoricalParams) (map[string]any, error) {
	return c.historical(ctx, c.opts.HistoricalForecastURL, p,
		[]string{"temperature_2m", "precipitation", "windspeed_10m", "weathercode"})
}

func (c *Client) historical(ctx context.Context, endpoint string, p HistoricalParams, defaults []string) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	fields := p.Hourly
	if len(fields) == 0 {
		fields = defaults
	}

	q := url.Values{}
	setLatLon(q, p.Latitude, p.Longitude)
	q.Set("start_date", p.StartDate)
	q.Set("end_date", p.EndDate)
	q.Set("hourly", strings.Join(fields, ","))
	q.Set("timezone", timezoneOrAuto(p.Timezone))

	return c.getJSON(ctx, endpoint, q)
}

// Bundle fetches current conditions and the daily forecast concurrently and
// combines them under "current" and "daily" keys.
func (c *Client) Bundle(ctx context.Context, p BundleParams) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var current, daily map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = c.CurrentWeather(gctx, CurrentParams{
			Latitude: p.Latitude, Longitude: p.Longitude, Timezone: p.Timezone,
		})
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = c.DailyForecast(gctx, DailyParams{
			Latitude: p.Latitude, Longitude: p.Longitude, Timezone: p.Timezone, Days: p.Days,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{"current": current, "daily": daily}, nil
}

// getJSON performs a GET with bounded retry and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values) (map[string]any, error) {
	reqURL := endpoint + "?" + q.Encode()
	attempts := c.opts.MaxRetries + 1

	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.opts.Backoff * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := c.opts.HTTPClient.Do(req)
		if err != nil {
			lastErr, lastStatus = err, 0
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			lastErr, lastStatus = nil, resp.StatusCode
			continue
		}

		var data map[string]any
		err = json.NewDecoder(resp.Body).Decode(&data)
		resp.Body.Close()
		if err != nil {
			lastErr, lastStatus = err, 0
			continue
		}
		return data, nil
	}

	return nil, &UpstreamError{URL: endpoint, Status: lastStatus, Attempts: attempts, Err: lastErr}
}

func setLatLon(q url.Values, lat, lon float64) {
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
}

func timezoneOrAuto(tz string) string {
	if tz == "" {
		return "auto"
	}
	return tz
}

// block extracts a named object from the payload, tolerating absence.
func block(data map[string]any, key string) map[string]any {
	if b, ok := data[key].(map[string]any); ok {
		return b
	}
	return map[string]any{}
}

// truncateSeries trims every list in the block to at most n entries,
// mirroring the length of the shared time axis.
func truncateSeries(blockData map[string]any, n int) {
	for k, v := range blockData {
		if list, ok := v.([]any); ok && len(list) > n {
			blockData[k] = list[:n]
		}
	}
}
