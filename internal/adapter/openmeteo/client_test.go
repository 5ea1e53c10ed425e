package openmeteo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

const sampleResponse = `{
  "hourly": {
    "time": ["2026-03-15T00:00", "2026-03-15T01:00", "2026-03-15T02:00",
             "2026-03-15T03:00", "2026-03-15T04:00", "2026-03-15T05:00"],
    "precipitation": [0.1, 0.2, 0.3, 0.0, 0.5, 0.0],
    "precipitation_probability": [10, 40, 20, 0, 90, 5]
  }
}`

func TestForecast(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"latitude":           r.URL.Query().Get("latitude"),
			"longitude":          r.URL.Query().Get("longitude"),
			"hourly":             r.URL.Query().Get("hourly"),
			"precipitation_unit": r.URL.Query().Get("precipitation_unit"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, slog.Default())
	got, err := client.Forecast(context.Background(), 30.2672, -97.7431)
	require.NoError(t, err)

	assert.Equal(t, "30.2672", gotQuery["latitude"])
	assert.Equal(t, "-97.7431", gotQuery["longitude"])
	assert.Equal(t, "precipitation,precipitation_probability", gotQuery["hourly"])
	assert.Equal(t, "inch", gotQuery["precipitation_unit"])

	assert.Equal(t, "open-meteo", got.Source)
	require.Len(t, got.Periods, 2)

	// First period folds hours 0-2: amounts sum, probability is the max.
	first := got.Periods[0]
	assert.Equal(t, "+0h", first.Name)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), first.StartTime)
	require.NotNil(t, first.PrecipAmountIn)
	assert.InDelta(t, 0.6, *first.PrecipAmountIn, 1e-9)
	require.NotNil(t, first.PrecipProbability)
	assert.InDelta(t, 40, *first.PrecipProbability, 1e-9)

	second := got.Periods[1]
	assert.Equal(t, "+3h", second.Name)
	require.NotNil(t, second.PrecipAmountIn)
	assert.InDelta(t, 0.5, *second.PrecipAmountIn, 1e-9)
	require.NotNil(t, second.PrecipProbability)
	assert.InDelta(t, 90, *second.PrecipProbability, 1e-9)
}

func TestForecast_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, slog.Default())
	_, err := client.Forecast(context.Background(), 30.2672, -97.7431)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestForecast_EmptyHourly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hourly": {"time": [], "precipitation": [], "precipitation_probability": []}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, slog.Default())
	got, err := client.Forecast(context.Background(), 30.2672, -97.7431)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
