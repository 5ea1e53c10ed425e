package domain

import (
	"context"
	"time"
)

// EventType names a notification published to subscribed clients.
type EventType string

const (
	EventGaugeUpdate      EventType = "gauge_update"
	EventRiskAlert        EventType = "risk_alert"
	EventPredictionUpdate EventType = "prediction_update"
)

// Event is the envelope published on the notification channel.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// GaugeUpdatePayload is broadcast after a gauge's state is refreshed.
type GaugeUpdatePayload struct {
	GaugeID         uint      `json:"gauge_id"`
	SiteID          string    `json:"site_id"`
	Name            string    `json:"name"`
	CurrentFlowCFS  *float64  `json:"current_flow_cfs,omitempty"`
	CurrentHeightFt *float64  `json:"current_height_ft,omitempty"`
	CurrentStage    Stage     `json:"current_stage"`
	ObservedAt      time.Time `json:"observed_at"`
}

// PredictionPayload is broadcast after every persisted risk assessment.
type PredictionPayload struct {
	GaugeID    uint      `json:"gauge_id"`
	SiteID     string    `json:"site_id"`
	Name       string    `json:"gauge_name"`
	Level      RiskLevel `json:"risk_level"`
	Score      float64   `json:"risk_score"`
	Confidence float64   `json:"confidence"`
	ComputedAt time.Time `json:"computed_at"`
}

// EventPublisher delivers events to the notification channel. Publish is
// fire-and-forget at the call sites: failures are logged and counted, never
// propagated past the orchestrator.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
