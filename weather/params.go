package weather

import (
	"fmt"
	"time"
)

// ValidationError reports a request parameter outside its allowed range.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Message)
}

func validateLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		return &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	return nil
}

// CurrentParams select a location for the current conditions endpoint.
type CurrentParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string // defaults to "auto"
}

// Validate checks ranges.
func (p CurrentParams) Validate() error {
	return validateLatLon(p.Latitude, p.Longitude)
}

// HourlyParams select hourly forecast fields.
type HourlyParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	// Hourly lists the requested variables; a default set applies when empty.
	Hourly []string
	// LimitHours truncates the returned series, 0 means no limit.
	LimitHours int
}

// Validate checks ranges.
func (p HourlyParams) Validate() error {
	if err := validateLatLon(p.Latitude, p.Longitude); err != nil {
		return err
	}
	if p.LimitHours < 0 || p.LimitHours > 168 {
		return &ValidationError{Field: "limit_hours", Message: "must be between 0 and 168"}
	}
	return nil
}

// DailyParams select daily forecast fields.
type DailyParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Days      int // 1..14, defaults to 3
	Daily     []string
}

// Validate checks ranges.
func (p DailyParams) Validate() error {
	if err := validateLatLon(p.Latitude, p.Longitude); err != nil {
		return err
	}
	if p.Days < 0 || p.Days > 14 {
		return &ValidationError{Field: "days", Message: "must be between 1 and 14"}
	}
	return nil
}

// AirQualityParams select air quality variables.
type AirQualityParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Hourly    []string
	Current   []string
}

// Validate checks ranges.
func (p AirQualityParams) Validate() error {
	return validateLatLon(p.Latitude, p.Longitude)
}

// MarineParams select marine forecast variables.
type MarineParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Hourly    []string
}

// Validate checks ranges.
func (p MarineParams) Validate() error {
	return validateLatLon(p.Latitude, p.Longitude)
}

// GeocodeParams search place names.
type GeocodeParams struct {
	Name     string
	Count    int // 1..100, defaults to 10
	Language string
}

// Validate checks ranges.
func (p GeocodeParams) Validate() error {
	if len(p.Name) < 2 {
		return &ValidationError{Field: "name", Message: "must be at least 2 characters"}
	}
	if p.Count < 0 || p.Count > 100 {
		return &ValidationError{Field: "count", Message: "must be between 0 and 100"}
	}
	return nil
}

// HistoricalParams select a past date range.
type HistoricalParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	StartDate string // ISO date YYYY-MM-DD
	EndDate   string // ISO date YYYY-MM-DD
	Hourly    []string
}

// Validate checks ranges, date formats and date ordering.
func (p HistoricalParams) Validate() error {
	if err := validateLatLon(p.Latitude, p.Longitude); err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return &ValidationError{Field: "start_date", Message: "must be ISO format YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", p.EndDate)
	if err != nil {
		return &ValidationError{Field: "end_date", Message: "must be ISO format YYYY-MM-DD"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}
	return nil
}

// BundleParams select a location for the combined current + daily lookup.
type BundleParams struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Days      int
}

// Validate checks ranges.
func (p BundleParams) Validate() error {
	if err := validateLatLon(p.Latitude, p.Longitude); err != nil {
		return err
	}
	if p.Days < 0 || p.Days > 14 {
		return &ValidationError{Field: "days", Message: "must be between 1 and 14"}
	}
	return nil
}
