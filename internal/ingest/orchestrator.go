// Package ingest drives the periodic data refresh and prediction cycle:
// fetch fresh gauge readings, persist state, score flood risk, and publish
// notifications.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/geo"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/risk"
)

// Stage thresholds assumed for gauges with no published values, so every
// gauge can still be scored.
const (
	defaultFloodStageFt  = 20
	defaultActionStageFt = 10
)

// Config sets the cycle pacing and scoring inputs for the orchestrator.
type Config struct {
	RefreshInterval   time.Duration
	Cooldown          time.Duration
	BatchSize         int
	SoilSaturationPct float64
}

// Orchestrator runs the refresh loop. Start and Stop are safe to call from
// any goroutine; a second Start while running is a no-op.
type Orchestrator struct {
	cfg         Config
	gauges      domain.GaugeStore
	assessments domain.AssessmentStore
	source      domain.GaugeDataSource
	forecasts   domain.ForecastProvider
	calculator  *risk.Calculator
	publisher   domain.EventPublisher
	logger      *slog.Logger
	metrics     *observability.Metrics

	ready atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an Orchestrator wired to its stores, sources, and sinks.
func New(
	cfg Config,
	gauges domain.GaugeStore,
	assessments domain.AssessmentStore,
	source domain.GaugeDataSource,
	forecasts domain.ForecastProvider,
	calculator *risk.Calculator,
	publisher domain.EventPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		gauges:      gauges,
		assessments: assessments,
		source:      source,
		forecasts:   forecasts,
		calculator:  calculator,
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has completed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("first refresh cycle has not completed yet")
	}
	return nil
}

// Start launches the refresh loop in a background goroutine.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		o.logger.Warn("orchestrator already running, ignoring start")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancel = cancel
	o.done = make(chan struct{})

	o.logger.Info("orchestrator started",
		"refresh_interval", o.cfg.RefreshInterval,
		"cooldown", o.cfg.Cooldown,
		"batch_size", o.cfg.BatchSize,
	)
	o.metrics.OrchestratorRunning.Set(1)

	go o.run(runCtx, o.done)
}

// Stop cancels the loop and blocks until the in-flight cycle finishes.
// Stopping a stopped orchestrator is a no-op.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel, done := o.cancel, o.done
	o.running = false
	o.mu.Unlock()

	cancel()
	<-done
	o.metrics.OrchestratorRunning.Set(0)
	o.logger.Info("orchestrator stopped")
}

func (o *Orchestrator) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		wait := o.cfg.RefreshInterval
		if err := o.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			o.metrics.CycleErrors.Inc()
			o.logger.Error("cycle failed", "error", err)
			wait = o.cfg.Cooldown
		}

		select {
		case <-ctx.Done():
			return
		case <-clock.After(wait):
		}
	}
}

// runCycle refreshes every active gauge and recomputes its risk. A failure
// loading the registry aborts the cycle; per-gauge failures are logged,
// counted, and skipped so one bad site never stalls the rest.
func (o *Orchestrator) runCycle(ctx context.Context) error {
	start := domain.Now()

	gauges, err := o.gauges.ActiveGauges(ctx)
	if err != nil {
		return fmt.Errorf("load active gauges: %w", err)
	}
	if len(gauges) == 0 {
		o.logger.Warn("no active gauges to refresh")
		o.finishCycle(start, 0, 0)
		return nil
	}

	siteData, err := o.fetchSiteData(ctx, gauges)
	if err != nil {
		return err
	}

	var failures int
	for i := range gauges {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		gauge := &gauges[i]

		if data, ok := siteData[gauge.SiteID]; ok {
			if err := o.applyReadings(ctx, gauge, data); err != nil {
				o.metrics.GaugeUpdateErrors.Inc()
				o.logger.Warn("gauge update failed, skipping", "site_id", gauge.SiteID, "error", err)
				failures++
				continue
			}
		}

		if err := o.predict(ctx, gauge); err != nil {
			o.metrics.GaugeUpdateErrors.Inc()
			o.logger.Warn("prediction failed, skipping", "site_id", gauge.SiteID, "error", err)
			failures++
		}
	}

	o.finishCycle(start, len(gauges), failures)
	return nil
}

func (o *Orchestrator) finishCycle(start time.Time, total, failures int) {
	o.metrics.CyclesTotal.Inc()
	o.metrics.CycleDuration.Observe(domain.Now().Sub(start).Seconds())
	o.ready.Store(true)
	o.logger.Info("cycle complete", "gauges", total, "failures", failures, "duration", domain.Now().Sub(start))
}

// fetchSiteData requests fresh measurements for all sites in batches.
func (o *Orchestrator) fetchSiteData(ctx context.Context, gauges []domain.Gauge) (map[string]domain.SiteData, error) {
	siteIDs := make([]string, len(gauges))
	for i, g := range gauges {
		siteIDs[i] = g.SiteID
	}

	data := make(map[string]domain.SiteData, len(siteIDs))
	for start := 0; start < len(siteIDs); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(siteIDs) {
			end = len(siteIDs)
		}
		batch := siteIDs[start:end]
		o.metrics.GaugeBatchSize.Observe(float64(len(batch)))

		result, err := o.source.SiteData(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("fetch site data: %w", err)
		}
		for siteID, d := range result {
			data[siteID] = d
		}
	}
	return data, nil
}

// applyReadings persists the latest measurement for a gauge and publishes a
// gauge_update event. The in-memory gauge is refreshed so the prediction
// step sees the new state.
func (o *Orchestrator) applyReadings(ctx context.Context, gauge *domain.Gauge, data domain.SiteData) error {
	flow, height, observedAt, ok := latestObservation(data.Measurements)
	if !ok {
		return nil
	}

	stage := gauge.CurrentStage
	if height != nil {
		stage = domain.StageFor(*height, gauge.ActionStageFt, gauge.FloodStageFt, gauge.MajorFloodStageFt)
	}

	update := domain.GaugeStateUpdate{
		FlowCFS:    flow,
		HeightFt:   height,
		Stage:      stage,
		ObservedAt: observedAt,
	}
	if err := o.gauges.UpdateGaugeState(ctx, gauge.ID, update); err != nil {
		return err
	}
	o.metrics.GaugeUpdates.Inc()

	gauge.CurrentFlowCFS = flow
	gauge.CurrentHeightFt = height
	gauge.CurrentStage = stage
	gauge.LastUpdated = observedAt

	o.publish(ctx, domain.EventGaugeUpdate, domain.GaugeUpdatePayload{
		GaugeID:         gauge.ID,
		SiteID:          gauge.SiteID,
		Name:            gauge.Name,
		CurrentFlowCFS:  flow,
		CurrentHeightFt: height,
		CurrentStage:    stage,
		ObservedAt:      observedAt,
	})
	return nil
}

// predict scores the gauge's current state and persists the assessment.
// A forecast failure degrades to an empty forecast rather than skipping
// the gauge; the confidence penalty reflects the missing data.
func (o *Orchestrator) predict(ctx context.Context, gauge *domain.Gauge) error {
	forecast, err := o.forecasts.Forecast(ctx, gauge.Latitude, gauge.Longitude)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Warn("all forecast sources failed, scoring without forecast", "site_id", gauge.SiteID, "error", err)
		forecast = domain.RainfallForecast{}
	}

	input := risk.Input{
		Readings:          []domain.GaugeReading{readingFromGauge(gauge)},
		Forecast:          forecast,
		SoilSaturationPct: o.cfg.SoilSaturationPct,
		Location:          &geo.Point{Lon: gauge.Longitude, Lat: gauge.Latitude},
	}

	assessment, err := o.calculator.CalculateCompositeRisk(input)
	if err != nil {
		return fmt.Errorf("score gauge %s: %w", gauge.SiteID, err)
	}

	if err := o.assessments.SaveAssessment(ctx, gauge.ID, assessment); err != nil {
		return err
	}
	o.metrics.Assessments.WithLabelValues(string(assessment.Level)).Inc()

	payload := domain.PredictionPayload{
		GaugeID:    gauge.ID,
		SiteID:     gauge.SiteID,
		Name:       gauge.Name,
		Level:      assessment.Level,
		Score:      assessment.CompositeScore,
		Confidence: assessment.Confidence,
		ComputedAt: assessment.ComputedAt,
	}
	o.publish(ctx, domain.EventPredictionUpdate, payload)
	if assessment.Level == domain.RiskHigh || assessment.Level == domain.RiskSevere {
		o.publish(ctx, domain.EventRiskAlert, payload)
	}
	return nil
}

// publish is fire-and-forget: failures are logged and counted, never
// propagated into the cycle.
func (o *Orchestrator) publish(ctx context.Context, eventType domain.EventType, payload any) {
	event := domain.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: domain.Now(),
		Payload:    payload,
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.metrics.PublishFailures.Inc()
		o.logger.Warn("publish failed", "event_type", eventType, "error", err)
	}
}

// readingFromGauge converts the gauge's current state into the scoring
// input, substituting default stage thresholds where none are published.
func readingFromGauge(gauge *domain.Gauge) domain.GaugeReading {
	floodStage := gauge.FloodStageFt
	if floodStage == nil {
		v := float64(defaultFloodStageFt)
		floodStage = &v
	}
	actionStage := gauge.ActionStageFt
	if actionStage == nil {
		v := float64(defaultActionStageFt)
		actionStage = &v
	}

	observedAt := gauge.LastUpdated
	if observedAt.IsZero() {
		observedAt = domain.Now()
	}

	return domain.GaugeReading{
		HeightFt:      gauge.CurrentHeightFt,
		FloodStageFt:  floodStage,
		ActionStageFt: actionStage,
		Latitude:      gauge.Latitude,
		Longitude:     gauge.Longitude,
		ObservedAt:    observedAt,
	}
}

// latestObservation picks the most recent value per parameter and the
// newest timestamp across both.
func latestObservation(measurements []domain.SiteMeasurement) (flow, height *float64, observedAt time.Time, ok bool) {
	var flowAt, heightAt time.Time
	for _, m := range measurements {
		v := m.Value
		switch m.Parameter {
		case domain.ParamDischarge:
			if flow == nil || m.Timestamp.After(flowAt) {
				value := v
				flow = &value
				flowAt = m.Timestamp
			}
		case domain.ParamGaugeHeight:
			if height == nil || m.Timestamp.After(heightAt) {
				value := v
				height = &value
				heightAt = m.Timestamp
			}
		}
		if m.Timestamp.After(observedAt) {
			observedAt = m.Timestamp
		}
	}
	return flow, height, observedAt, flow != nil || height != nil
}
