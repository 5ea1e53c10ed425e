package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/risk"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func withFrozenClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

type stubGaugeStore struct {
	mu        sync.Mutex
	gauges    []domain.Gauge
	listErr   error
	updateErr error
	updates   map[uint]domain.GaugeStateUpdate
}

func (s *stubGaugeStore) ActiveGauges(_ context.Context) ([]domain.Gauge, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Gauge, len(s.gauges))
	copy(out, s.gauges)
	return out, nil
}

func (s *stubGaugeStore) UpdateGaugeState(_ context.Context, gaugeID uint, update domain.GaugeStateUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updates == nil {
		s.updates = make(map[uint]domain.GaugeStateUpdate)
	}
	s.updates[gaugeID] = update
	return nil
}

type stubAssessmentStore struct {
	mu      sync.Mutex
	saveErr error
	saved   map[uint]domain.RiskAssessment
}

func (s *stubAssessmentStore) SaveAssessment(_ context.Context, gaugeID uint, assessment domain.RiskAssessment) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[uint]domain.RiskAssessment)
	}
	s.saved[gaugeID] = assessment
	return nil
}

type stubSource struct {
	mu      sync.Mutex
	data    map[string]domain.SiteData
	err     error
	batches [][]string
}

func (s *stubSource) SiteData(_ context.Context, siteIDs []string) (map[string]domain.SiteData, error) {
	s.mu.Lock()
	batch := make([]string, len(siteIDs))
	copy(batch, siteIDs)
	s.batches = append(s.batches, batch)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]domain.SiteData)
	for _, id := range siteIDs {
		if d, ok := s.data[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type stubForecasts struct {
	forecast domain.RainfallForecast
	err      error
}

func (s *stubForecasts) Name() string { return "stub" }

func (s *stubForecasts) Forecast(_ context.Context, _, _ float64) (domain.RainfallForecast, error) {
	if s.err != nil {
		return domain.RainfallForecast{}, s.err
	}
	return s.forecast, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	err    error
	events []domain.Event
}

func (s *stubPublisher) Publish(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *stubPublisher) eventTypes() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]domain.EventType, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

type fixture struct {
	gauges      *stubGaugeStore
	assessments *stubAssessmentStore
	source      *stubSource
	forecasts   *stubForecasts
	publisher   *stubPublisher
}

func newTestOrchestrator(cfg Config, f *fixture) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, f.gauges, f.assessments, f.source, f.forecasts, risk.NewCalculator(), f.publisher, logger, observability.NewMetricsForTesting())
}

func defaultConfig() Config {
	return Config{
		RefreshInterval:   time.Hour,
		Cooldown:          time.Minute,
		BatchSize:         20,
		SoilSaturationPct: 80,
	}
}

func ptr(f float64) *float64 { return &f }

func testGauge() domain.Gauge {
	return domain.Gauge{
		ID:            1,
		SiteID:        "08155200",
		Name:          "Barton Ck at SH 71",
		Latitude:      30.2672,
		Longitude:     -97.7431,
		ActionStageFt: ptr(10),
		FloodStageFt:  ptr(20),
		IsActive:      true,
	}
}

func siteDataWithHeight(gauge domain.Gauge, heightFt float64) domain.SiteData {
	return domain.SiteData{
		SiteName:  gauge.Name,
		Latitude:  gauge.Latitude,
		Longitude: gauge.Longitude,
		Measurements: []domain.SiteMeasurement{
			{Timestamp: testNow.Add(-2 * time.Hour), Parameter: domain.ParamGaugeHeight, Value: heightFt - 1},
			{Timestamp: testNow.Add(-time.Hour), Parameter: domain.ParamGaugeHeight, Value: heightFt},
			{Timestamp: testNow.Add(-time.Hour), Parameter: domain.ParamDischarge, Value: 1200},
		},
	}
}

func TestRunCycle(t *testing.T) {
	withFrozenClock(t)

	gauge := testGauge()
	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{gauge}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{data: map[string]domain.SiteData{gauge.SiteID: siteDataWithHeight(gauge, 18)}},
		forecasts: &stubForecasts{forecast: domain.RainfallForecast{
			Source:  "nws",
			Periods: []domain.ForecastPeriod{{Name: "Today", StartTime: testNow, PrecipAmountIn: ptr(2.5)}},
		}},
		publisher: &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	require.Error(t, o.CheckReadiness(context.Background()))
	require.NoError(t, o.runCycle(context.Background()))
	assert.NoError(t, o.CheckReadiness(context.Background()))

	// Newest height wins and is classified against the gauge thresholds.
	update, ok := f.gauges.updates[gauge.ID]
	require.True(t, ok)
	require.NotNil(t, update.HeightFt)
	assert.Equal(t, 18.0, *update.HeightFt)
	require.NotNil(t, update.FlowCFS)
	assert.Equal(t, 1200.0, *update.FlowCFS)
	assert.Equal(t, domain.StageAction, update.Stage)
	assert.Equal(t, testNow.Add(-time.Hour), update.ObservedAt)

	// Height 18 against action 10 / flood 20 scores 90; 2.5in of rain
	// scores 50; saturation 80 scores 75; the co-located reading scores
	// proximity 100. Weighted composite is 76, in the severe band.
	saved, ok := f.assessments.saved[gauge.ID]
	require.True(t, ok)
	assert.Equal(t, 76.0, saved.CompositeScore)
	assert.Equal(t, domain.RiskSevere, saved.Level)
	assert.Equal(t, 1.0, saved.Confidence)

	assert.Equal(t, []domain.EventType{
		domain.EventGaugeUpdate,
		domain.EventPredictionUpdate,
		domain.EventRiskAlert,
	}, f.publisher.eventTypes())
}

func TestRunCycle_LowRiskSkipsAlert(t *testing.T) {
	withFrozenClock(t)

	gauge := testGauge()
	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{gauge}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{data: map[string]domain.SiteData{gauge.SiteID: siteDataWithHeight(gauge, 1)}},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	cfg := defaultConfig()
	cfg.SoilSaturationPct = 20
	o := newTestOrchestrator(cfg, f)

	require.NoError(t, o.runCycle(context.Background()))

	saved := f.assessments.saved[gauge.ID]
	assert.Equal(t, domain.RiskLow, saved.Level)
	assert.Equal(t, []domain.EventType{
		domain.EventGaugeUpdate,
		domain.EventPredictionUpdate,
	}, f.publisher.eventTypes())
}

func TestRunCycle_NoSiteDataStillScores(t *testing.T) {
	withFrozenClock(t)

	gauge := testGauge()
	gauge.CurrentHeightFt = ptr(5)
	gauge.LastUpdated = testNow.Add(-time.Hour)
	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{gauge}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	require.NoError(t, o.runCycle(context.Background()))

	assert.Empty(t, f.gauges.updates)
	_, ok := f.assessments.saved[gauge.ID]
	assert.True(t, ok)
	assert.Equal(t, []domain.EventType{domain.EventPredictionUpdate}, f.publisher.eventTypes())
}

func TestRunCycle_RegistryFailureAborts(t *testing.T) {
	withFrozenClock(t)

	f := &fixture{
		gauges:      &stubGaugeStore{listErr: errors.New("connection refused")},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	err := o.runCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load active gauges")
	assert.Empty(t, f.publisher.eventTypes())
	assert.Error(t, o.CheckReadiness(context.Background()))
}

func TestRunCycle_SourceFailureAborts(t *testing.T) {
	withFrozenClock(t)

	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{testGauge()}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{err: domain.ErrSourceUnavailable},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	err := o.runCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestRunCycle_PerGaugeFailureIsolation(t *testing.T) {
	withFrozenClock(t)

	first := testGauge()
	second := testGauge()
	second.ID = 2
	second.SiteID = "08158000"

	f := &fixture{
		gauges: &stubGaugeStore{
			gauges:    []domain.Gauge{first, second},
			updateErr: errors.New("deadlock detected"),
		},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{data: map[string]domain.SiteData{first.SiteID: siteDataWithHeight(first, 18)}},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	// The first gauge's state update fails; the second has no site data so
	// it skips straight to scoring. The cycle itself still succeeds.
	require.NoError(t, o.runCycle(context.Background()))

	_, ok := f.assessments.saved[first.ID]
	assert.False(t, ok)
	_, ok = f.assessments.saved[second.ID]
	assert.True(t, ok)
}

func TestRunCycle_ForecastFailureDegrades(t *testing.T) {
	withFrozenClock(t)

	gauge := testGauge()
	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{gauge}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{data: map[string]domain.SiteData{gauge.SiteID: siteDataWithHeight(gauge, 18)}},
		forecasts:   &stubForecasts{err: errors.New("all sources down")},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	require.NoError(t, o.runCycle(context.Background()))

	saved, ok := f.assessments.saved[gauge.ID]
	require.True(t, ok)
	assert.Equal(t, 0.0, saved.Components.Rainfall)
	assert.Equal(t, 0.7, saved.Confidence)
}

func TestRunCycle_PublishFailureDoesNotFailCycle(t *testing.T) {
	withFrozenClock(t)

	gauge := testGauge()
	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{gauge}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{data: map[string]domain.SiteData{gauge.SiteID: siteDataWithHeight(gauge, 18)}},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{err: errors.New("broker unreachable")},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	require.NoError(t, o.runCycle(context.Background()))
	_, ok := f.assessments.saved[gauge.ID]
	assert.True(t, ok)
}

func TestRunCycle_Batching(t *testing.T) {
	withFrozenClock(t)

	var gauges []domain.Gauge
	for i := 0; i < 5; i++ {
		g := testGauge()
		g.ID = uint(i + 1)
		g.SiteID = string(rune('A' + i))
		gauges = append(gauges, g)
	}

	f := &fixture{
		gauges:      &stubGaugeStore{gauges: gauges},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	cfg := defaultConfig()
	cfg.BatchSize = 2
	o := newTestOrchestrator(cfg, f)

	require.NoError(t, o.runCycle(context.Background()))
	assert.Equal(t, [][]string{{"A", "B"}, {"C", "D"}, {"E"}}, f.source.batches)
}

func TestRunCycle_NoActiveGauges(t *testing.T) {
	withFrozenClock(t)

	f := &fixture{
		gauges:      &stubGaugeStore{},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	require.NoError(t, o.runCycle(context.Background()))
	assert.NoError(t, o.CheckReadiness(context.Background()))
	assert.Empty(t, f.source.batches)
}

func TestStartStop(t *testing.T) {
	gauge := testGauge()
	f := &fixture{
		gauges:      &stubGaugeStore{gauges: []domain.Gauge{gauge}},
		assessments: &stubAssessmentStore{},
		source:      &stubSource{data: map[string]domain.SiteData{gauge.SiteID: siteDataWithHeight(gauge, 5)}},
		forecasts:   &stubForecasts{},
		publisher:   &stubPublisher{},
	}
	o := newTestOrchestrator(defaultConfig(), f)

	o.Start(context.Background())
	o.Start(context.Background()) // second start is a no-op

	require.Eventually(t, func() bool {
		return o.CheckReadiness(context.Background()) == nil
	}, 5*time.Second, 10*time.Millisecond)

	o.Stop()
	o.Stop() // second stop is a no-op

	f.assessments.mu.Lock()
	defer f.assessments.mu.Unlock()
	assert.NotEmpty(t, f.assessments.saved)
}

func TestLatestObservation(t *testing.T) {
	base := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	t.Run("newest value wins per parameter", func(t *testing.T) {
		flow, height, observedAt, ok := latestObservation([]domain.SiteMeasurement{
			{Timestamp: base, Parameter: domain.ParamDischarge, Value: 100},
			{Timestamp: base.Add(time.Hour), Parameter: domain.ParamDischarge, Value: 200},
			{Timestamp: base.Add(2 * time.Hour), Parameter: domain.ParamGaugeHeight, Value: 7.5},
		})
		require.True(t, ok)
		assert.Equal(t, 200.0, *flow)
		assert.Equal(t, 7.5, *height)
		assert.Equal(t, base.Add(2*time.Hour), observedAt)
	})

	t.Run("no measurements", func(t *testing.T) {
		_, _, _, ok := latestObservation(nil)
		assert.False(t, ok)
	})

	t.Run("unknown parameters ignored", func(t *testing.T) {
		_, _, _, ok := latestObservation([]domain.SiteMeasurement{
			{Timestamp: base, Parameter: "00010", Value: 14},
		})
		assert.False(t, ok)
	})
}
