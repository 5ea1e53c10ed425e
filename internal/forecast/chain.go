// Package forecast composes rainfall forecast providers into a resilient
// source with fallback and caching.
package forecast

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Chain tries each provider in order and returns the first non-empty
// forecast. A provider error or empty result falls through to the next
// provider; only when every provider fails does the chain return an error.
type Chain struct {
	providers []domain.ForecastProvider
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewChain builds a fallback chain over the given providers, tried in order.
func NewChain(logger *slog.Logger, metrics *observability.Metrics, providers ...domain.ForecastProvider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logger,
		metrics:   metrics,
	}
}

func (c *Chain) Name() string { return "chain" }

// Forecast queries providers in order until one returns periods. When all
// providers error, the last error is returned; when they all return empty
// forecasts without erroring, the result is an empty forecast and nil error.
func (c *Chain) Forecast(ctx context.Context, lat, lon float64) (domain.RainfallForecast, error) {
	var lastErr error
	for _, p := range c.providers {
		fc, err := p.Forecast(ctx, lat, lon)
		if err != nil {
			c.metrics.ForecastRequests.WithLabelValues(p.Name(), "error").Inc()
			c.logger.Warn("forecast source failed", "source", p.Name(), "lat", lat, "lon", lon, "error", err)
			lastErr = err
			continue
		}
		if fc.Empty() {
			c.metrics.ForecastRequests.WithLabelValues(p.Name(), "empty").Inc()
			continue
		}
		c.metrics.ForecastRequests.WithLabelValues(p.Name(), "success").Inc()
		return fc, nil
	}
	if lastErr != nil {
		return domain.RainfallForecast{}, lastErr
	}
	return domain.RainfallForecast{}, nil
}
