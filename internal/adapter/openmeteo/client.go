// Package openmeteo fetches rainfall forecasts from the Open-Meteo API,
// used as the fallback source when the National Weather Service has no
// coverage for a coordinate.
package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

const (
	hoursPerPeriod = 3
	forecastDays   = 3
)

// Client queries the Open-Meteo hourly forecast endpoint and aggregates
// hourly values into three-hour periods comparable to NWS forecast periods.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds an Open-Meteo client against the given base URL,
// typically https://api.open-meteo.com/v1/forecast.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, logger: logger}
}

func (c *Client) Name() string { return "open-meteo" }

type response struct {
	Hourly struct {
		Time                     []string  `json:"time"`
		Precipitation            []float64 `json:"precipitation"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

// Forecast fetches hourly precipitation for (lat, lon) and folds it into
// three-hour periods: amounts are summed, probabilities take the period
// maximum. Amounts are requested in inches to match gauge units.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (domain.RainfallForecast, error) {
	var body response
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":           fmt.Sprintf("%.4f", lat),
			"longitude":          fmt.Sprintf("%.4f", lon),
			"hourly":             "precipitation,precipitation_probability",
			"precipitation_unit": "inch",
			"forecast_days":      fmt.Sprintf("%d", forecastDays),
			"timezone":           "UTC",
		}).
		SetResult(&body).
		Get("")
	if err != nil {
		return domain.RainfallForecast{}, fmt.Errorf("open-meteo request: %w", err)
	}
	if resp.IsError() {
		return domain.RainfallForecast{}, fmt.Errorf("open-meteo request: %w: status %d", domain.ErrSourceUnavailable, resp.StatusCode())
	}

	hourly := body.Hourly
	n := len(hourly.Time)
	if len(hourly.Precipitation) < n {
		n = len(hourly.Precipitation)
	}

	var periods []domain.ForecastPeriod
	for start := 0; start < n; start += hoursPerPeriod {
		end := start + hoursPerPeriod
		if end > n {
			end = n
		}

		startTime, err := time.Parse("2006-01-02T15:04", hourly.Time[start])
		if err != nil {
			c.logger.Debug("skipping period with malformed time", "time", hourly.Time[start])
			continue
		}

		var amount float64
		var maxProb float64
		haveProb := false
		for i := start; i < end; i++ {
			amount += hourly.Precipitation[i]
			if i < len(hourly.PrecipitationProbability) {
				haveProb = true
				if hourly.PrecipitationProbability[i] > maxProb {
					maxProb = hourly.PrecipitationProbability[i]
				}
			}
		}

		period := domain.ForecastPeriod{
			Name:           fmt.Sprintf("+%dh", start),
			StartTime:      startTime.UTC(),
			PrecipAmountIn: &amount,
		}
		if haveProb {
			prob := maxProb
			period.PrecipProbability = &prob
		}
		periods = append(periods, period)
	}

	c.logger.Debug("fetched open-meteo forecast", "lat", lat, "lon", lon, "periods", len(periods))
	return domain.RainfallForecast{Source: c.Name(), Periods: periods}, nil
}
