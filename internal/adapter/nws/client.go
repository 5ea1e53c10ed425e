// Package nws fetches rainfall forecasts from the National Weather Service
// API.
package nws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

const userAgent = "flood-risk-service (github.com/couchcryptid/flood-risk-service)"

// Client resolves a coordinate to its NWS forecast office grid and fetches
// the period forecast. The NWS API requires a User-Agent identifying the
// application.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds an NWS client against the given base URL, typically
// https://api.weather.gov.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/geo+json").
		SetHeader("User-Agent", userAgent)

	return &Client{http: httpClient, logger: logger}
}

func (c *Client) Name() string { return "nws" }

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Name                       string `json:"name"`
			StartTime                  string `json:"startTime"`
			ProbabilityOfPrecipitation struct {
				Value *float64 `json:"value"`
			} `json:"probabilityOfPrecipitation"`
		} `json:"periods"`
	} `json:"properties"`
}

// Forecast resolves the grid for (lat, lon) and returns its period
// forecast. NWS reports precipitation probability but not amounts, so
// PrecipAmountIn is always nil.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (domain.RainfallForecast, error) {
	var points pointsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&points).
		Get(fmt.Sprintf("/points/%.4f,%.4f", lat, lon))
	if err != nil {
		return domain.RainfallForecast{}, fmt.Errorf("nws points: %w", err)
	}
	if resp.IsError() {
		return domain.RainfallForecast{}, fmt.Errorf("nws points: %w: status %d", domain.ErrSourceUnavailable, resp.StatusCode())
	}
	if points.Properties.Forecast == "" {
		return domain.RainfallForecast{}, fmt.Errorf("nws points: %w: no forecast grid for %.4f,%.4f", domain.ErrSourceUnavailable, lat, lon)
	}

	var fc forecastResponse
	resp, err = c.http.R().
		SetContext(ctx).
		SetResult(&fc).
		Get(points.Properties.Forecast)
	if err != nil {
		return domain.RainfallForecast{}, fmt.Errorf("nws forecast: %w", err)
	}
	if resp.IsError() {
		return domain.RainfallForecast{}, fmt.Errorf("nws forecast: %w: status %d", domain.ErrSourceUnavailable, resp.StatusCode())
	}

	periods := make([]domain.ForecastPeriod, 0, len(fc.Properties.Periods))
	for _, p := range fc.Properties.Periods {
		start, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			c.logger.Debug("skipping period with malformed start time", "name", p.Name, "start_time", p.StartTime)
			continue
		}
		periods = append(periods, domain.ForecastPeriod{
			Name:              p.Name,
			StartTime:         start,
			PrecipProbability: p.ProbabilityOfPrecipitation.Value,
		})
	}

	c.logger.Debug("fetched nws forecast", "lat", lat, "lon", lon, "periods", len(periods))
	return domain.RainfallForecast{Source: c.Name(), Periods: periods}, nil
}
