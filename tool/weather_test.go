package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-ai/relay/weather"
)

func weatherClient(srv *httptest.Server) *weather.Client {
	return weather.NewClient(func(o *weather.Options) {
		o.ForecastURL = srv.URL + "/v1/forecast"
		o.GeocodingURL = srv.URL + "/v1/search"
		o.Backoff = time.Millisecond
	})
}

func TestCurrentWeatherTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_weather":{"temperature":12.5}}`))
	}))
	defer srv.Close()

	tl := NewCurrentWeatherTool(weatherClient(srv))
	assert.Equal(t, "get_current_weather", tl.Name())

	got, err := tl.Call(context.Background(), map[string]any{
		"latitude": 52.52, "longitude": 13.41,
	})
	require.NoError(t, err)
	result, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 12.5, result["temperature"])
}

func TestCurrentWeatherToolMissingArgs(t *testing.T) {
	tl := NewCurrentWeatherTool(weather.NewClient())

	_, err := tl.Call(context.Background(), map[string]any{"latitude": 52.52})
	var terr *ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeValidation, terr.Code)
}

func TestHourlyForecastToolLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "temperature_2m", r.URL.Query().Get("hourly"))
		w.Write([]byte(`{"hourly":{"time":["a","b","c"],"temperature_2m":[1,2,3]}}`))
	}))
	defer srv.Close()

	tl := NewHourlyForecastTool(weatherClient(srv))
	got, err := tl.Call(context.Background(), map[string]any{
		"latitude":    40.0,
		"longitude":   -74.0,
		"hourly":      []any{"temperature_2m"},
		"limit_hours": 2.0,
	})
	require.NoError(t, err)
	result := got.(map[string]any)
	assert.Len(t, result["time"], 2)
}

func TestGeocodeTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Lisbon", r.URL.Query().Get("name"))
		w.Write([]byte(`{"results":[{"name":"Lisbon","latitude":38.72}]}`))
	}))
	defer srv.Close()

	tl := NewGeocodeTool(weatherClient(srv))
	got, err := tl.Call(context.Background(), map[string]any{"name": "Lisbon"})
	require.NoError(t, err)
	result := got.(map[string]any)
	assert.NotEmpty(t, result["results"])
}

func TestWeatherToolUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tl := NewCurrentWeatherTool(weatherClient(srv))
	_, err := tl.Call(context.Background(), map[string]any{
		"latitude": 40.0, "longitude": -74.0,
	})
	var terr *ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeExecution, terr.Code)

	var uerr *weather.UpstreamError
	assert.ErrorAs(t, terr, &uerr)
}
