package tool

import (
	"context"

	"github.com/relabs-ai/relay/weather"
)

// latLonSchema are the schema properties shared by every location tool.
func latLonSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"latitude": map[string]any{
			"type":        "number",
			"description": "Latitude in decimal degrees, -90 to 90",
		},
		"longitude": map[string]any{
			"type":        "number",
			"description": "Longitude in decimal degrees, -180 to 180",
		},
		"timezone": map[string]any{
			"type":        "string",
			"description": "IANA timezone name, defaults to auto",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"latitude", "longitude"},
	}
}

func argFloat(args map[string]any, key string) float64 {
	f, _ := args[key].(float64)
	return f
}

func argInt(args map[string]any, key string) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return 0
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// argStrings converts a JSON array argument to []string, skipping
// non-string entries.
func argStrings(args map[string]any, key string) []string {
	list, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// NewCurrentWeatherTool reports current conditions for a coordinate.
func NewCurrentWeatherTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_current_weather",
		"Get the current weather conditions (temperature, wind, weather code) for a location.",
		latLonSchema(nil),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.CurrentWeather(ctx, weather.CurrentParams{
				Latitude:  argFloat(args, "latitude"),
				Longitude: argFloat(args, "longitude"),
				Timezone:  argString(args, "timezone"),
			})
		},
	)
}

// NewHourlyForecastTool returns hourly series, optionally truncated.
func NewHourlyForecastTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_hourly_forecast",
		"Get an hourly weather forecast for a location. Optionally select variables and limit the number of hours returned.",
		latLonSchema(map[string]any{
			"hourly": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Hourly variables, e.g. temperature_2m, precipitation, windspeed_10m",
			},
			"limit_hours": map[string]any{
				"type":        "integer",
				"description": "Truncate each series to this many hours, max 168",
			},
		}),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.HourlyForecast(ctx, weather.HourlyParams{
				Latitude:   argFloat(args, "latitude"),
				Longitude:  argFloat(args, "longitude"),
				Timezone:   argString(args, "timezone"),
				Hourly:     argStrings(args, "hourly"),
				LimitHours: argInt(args, "limit_hours"),
			})
		},
	)
}

// NewDailyForecastTool returns daily aggregates for up to 14 days.
func NewDailyForecastTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_daily_forecast",
		"Get a daily weather forecast (min/max temperature, precipitation) for a location for up to 14 days.",
		latLonSchema(map[string]any{
			"days": map[string]any{
				"type":        "integer",
				"description": "Number of forecast days, 1 to 14, default 3",
			},
		}),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.DailyForecast(ctx, weather.DailyParams{
				Latitude:  argFloat(args, "latitude"),
				Longitude: argFloat(args, "longitude"),
				Timezone:  argString(args, "timezone"),
				Days:      argInt(args, "days"),
			})
		},
	)
}

// NewAirQualityTool reports pollutant and index data.
func NewAirQualityTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_air_quality",
		"Get air quality data (PM2.5, PM10, ozone, indexes) for a location.",
		latLonSchema(map[string]any{
			"hourly": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Hourly variables, e.g. pm2_5, pm10, ozone",
			},
			"current": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Current variables, e.g. european_aqi, us_aqi",
			},
		}),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.AirQuality(ctx, weather.AirQualityParams{
				Latitude:  argFloat(args, "latitude"),
				Longitude: argFloat(args, "longitude"),
				Timezone:  argString(args, "timezone"),
				Hourly:    argStrings(args, "hourly"),
				Current:   argStrings(args, "current"),
			})
		},
	)
}

// NewMarineForecastTool reports wave conditions for coastal coordinates.
func NewMarineForecastTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_marine_forecast",
		"Get a marine forecast (wave height, direction, period) for a coastal or offshore location.",
		latLonSchema(nil),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.MarineForecast(ctx, weather.MarineParams{
				Latitude:  argFloat(args, "latitude"),
				Longitude: argFloat(args, "longitude"),
				Timezone:  argString(args, "timezone"),
			})
		},
	)
}

// NewGeocodeTool resolves place names to coordinates.
func NewGeocodeTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"geocode_location",
		"Look up the coordinates, country and timezone of a place by name. Use this before the weather tools when only a place name is known.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Place name to search for, at least 2 characters",
				},
				"count": map[string]any{
					"type":        "integer",
					"description": "Maximum number of matches, 1 to 100, default 10",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Result language code, e.g. en, de",
				},
			},
			"required": []string{"name"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.Geocode(ctx, weather.GeocodeParams{
				Name:     argString(args, "name"),
				Count:    argInt(args, "count"),
				Language: argString(args, "language"),
			})
		},
	)
}

func historicalSchema() map[string]any {
	return latLonSchema(map[string]any{
		"start_date": map[string]any{
			"type":        "string",
			"description": "Start date in YYYY-MM-DD format",
		},
		"end_date": map[string]any{
			"type":        "string",
			"description": "End date in YYYY-MM-DD format, not before start_date",
		},
		"hourly": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Hourly variables to return",
		},
	})
}

func historicalParams(args map[string]any) weather.HistoricalParams {
	return weather.HistoricalParams{
		Latitude:  argFloat(args, "latitude"),
		Longitude: argFloat(args, "longitude"),
		Timezone:  argString(args, "timezone"),
		StartDate: argString(args, "start_date"),
		EndDate:   argString(args, "end_date"),
		Hourly:    argStrings(args, "hourly"),
	}
}

// NewHistoricalWeatherTool queries the reanalysis archive.
func NewHistoricalWeatherTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_historical_weather",
		"Get observed historical weather for a location and past date range from the reanalysis archive.",
		historicalSchema(),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.HistoricalWeather(ctx, historicalParams(args))
		},
	)
}

// NewHistoricalForecastTool queries the archived forecast model runs.
func NewHistoricalForecastTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_historical_forecast",
		"Get past forecast model output for a location and date range. Useful for comparing forecasts against observations.",
		historicalSchema(),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.HistoricalForecast(ctx, historicalParams(args))
		},
	)
}

// NewWeatherBundleTool combines current conditions and the daily outlook in
// a single call.
func NewWeatherBundleTool(c *weather.Client) *FunctionTool {
	return NewFunctionTool(
		"get_weather_bundle",
		"Get current conditions and a daily forecast for a location in one call.",
		latLonSchema(map[string]any{
			"days": map[string]any{
				"type":        "integer",
				"description": "Number of forecast days, 1 to 14",
			},
		}),
		func(ctx context.Context, args map[string]any) (any, error) {
			return c.Bundle(ctx, weather.BundleParams{
				Latitude:  argFloat(args, "latitude"),
				Longitude: argFloat(args, "longitude"),
				Timezone:  argString(args, "timezone"),
				Days:      argInt(args, "days"),
			})
		},
	)
}
