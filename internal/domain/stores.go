package domain

import "context"

// GaugeStore reads the gauge registry and applies per-gauge state updates.
type GaugeStore interface {
	// ActiveGauges returns every gauge currently being monitored.
	ActiveGauges(ctx context.Context) ([]Gauge, error)

	// UpdateGaugeState sets the gauge's current state and appends one
	// measurement row. The two writes commit together or not at all.
	UpdateGaugeState(ctx context.Context, gaugeID uint, update GaugeStateUpdate) error
}

// AssessmentStore persists risk assessments.
type AssessmentStore interface {
	SaveAssessment(ctx context.Context, gaugeID uint, assessment RiskAssessment) error
}

// AssessmentReader serves the most recent persisted assessment per gauge.
type AssessmentReader interface {
	LatestAssessments(ctx context.Context) (map[uint]RiskAssessment, error)
}

// RecurrenceStore reads flood-frequency records for a gauge, ordered
// ascending by return period.
type RecurrenceStore interface {
	RecurrenceIntervals(ctx context.Context, gaugeID uint) ([]RecurrenceRecord, error)
}

// GaugeDataSource fetches fresh measurements for a batch of site IDs.
// Sites with no data are absent from the result map, which is not an error.
type GaugeDataSource interface {
	SiteData(ctx context.Context, siteIDs []string) (map[string]SiteData, error)
}
