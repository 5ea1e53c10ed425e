package domain

import (
	"context"
	"time"
)

// ForecastPeriod is one forecast interval. Probability is a percentage in
// [0,100]; AmountIn is precipitation in inches. Either may be absent.
type ForecastPeriod struct {
	Name              string
	StartTime         time.Time
	PrecipProbability *float64
	PrecipAmountIn    *float64
}

// RainfallForecast is an ordered sequence of forecast periods for a location.
// The zero value means "no forecast available".
type RainfallForecast struct {
	Source  string
	Periods []ForecastPeriod
}

// Empty reports whether the forecast carries no usable periods.
func (f RainfallForecast) Empty() bool {
	return len(f.Periods) == 0
}

// ForecastProvider fetches a rainfall forecast for a coordinate.
type ForecastProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Forecast returns the forecast for (lat, lon), or an error when the
	// source is unreachable or returns nothing usable.
	Forecast(ctx context.Context, lat, lon float64) (RainfallForecast, error)
}
