// Package weather provides current conditions and daily forecasts for a farm
// location. Two sources implement the same interface: a live OpenWeatherMap
// client and a synthetic generator used when no API key is configured. The
// variant is chosen once at startup; callers never branch on which one they
// hold.
package weather

import (
	"context"
	"time"
)

// CurrentConditions is a point-in-time reading, imperial units.
type CurrentConditions struct {
	Temperature   float64 `json:"temperature"` // °F
	Humidity      float64 `json:"humidity"`    // %
	WindSpeed     float64 `json:"wind_speed"`  // mph
	Precipitation float64 `json:"precipitation"` // inches
	Condition     string  `json:"condition"`
	Description   string  `json:"description"`
	UVIndex       float64 `json:"uv_index"`
}

// ForecastDay is one day of an ordered, chronological forecast.
type ForecastDay struct {
	Date              time.Time `json:"date"`
	Temperature       float64   `json:"temperature"`
	Humidity          float64   `json:"humidity"`
	WindSpeed         float64   `json:"wind_speed"`
	Condition         string    `json:"condition"`
	PrecipProbability float64   `json:"precipitation_probability"` // 0-100
}

// Source supplies weather for a free-form location string. Forecast returns
// at most 7 days, chronological.
type Source interface {
	Current(ctx context.Context, location string) (*CurrentConditions, error)
	Forecast(ctx context.Context, location string) ([]ForecastDay, error)
}
