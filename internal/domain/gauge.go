package domain

import "time"

// Parameter identifies a USGS measurement parameter code.
type Parameter string

const (
	ParamDischarge   Parameter = "00060" // cubic feet per second
	ParamGaugeHeight Parameter = "00065" // feet
)

// Stage is a named water-height severity band for a gauge.
type Stage string

const (
	StageNormal Stage = "normal"
	StageAction Stage = "action"
	StageFlood  Stage = "flood"
	StageMajor  Stage = "major"
)

// Gauge is a monitored river site with its location, thresholds, and the
// most recently observed state.
type Gauge struct {
	ID        uint
	SiteID    string
	Name      string
	Latitude  float64
	Longitude float64

	ElevationFt       *float64
	DrainageAreaSqMi  *float64
	ActionStageFt     *float64
	FloodStageFt      *float64
	MajorFloodStageFt *float64

	CurrentFlowCFS  *float64
	CurrentHeightFt *float64
	CurrentStage    Stage
	LastUpdated     time.Time

	IsActive bool
}

// GaugeReading is one monitoring point's latest state, as consumed by the
// risk scoring engine. Nullable fields default to neutral contributions.
type GaugeReading struct {
	HeightFt      *float64
	FloodStageFt  *float64
	ActionStageFt *float64
	Latitude      float64
	Longitude     float64
	ObservedAt    time.Time
}

// Measurement is one appended observation row for a gauge.
type Measurement struct {
	GaugeID   uint
	Timestamp time.Time
	FlowCFS   *float64
	HeightFt  *float64
}

// SiteMeasurement is a single parameter observation returned by the
// external gauge-data source.
type SiteMeasurement struct {
	Timestamp time.Time
	Parameter Parameter
	Value     float64
}

// SiteData groups a site's metadata with its time-ordered measurements.
type SiteData struct {
	SiteName     string
	Latitude     float64
	Longitude    float64
	Measurements []SiteMeasurement
}

// GaugeStateUpdate carries the fresh current state for a gauge plus the
// measurement row to append. Applied atomically by the gauge store.
type GaugeStateUpdate struct {
	FlowCFS    *float64
	HeightFt   *float64
	Stage      Stage
	ObservedAt time.Time
}

// StageFor classifies a water height against a gauge's thresholds.
// Missing thresholds never match, so a gauge with no thresholds is always normal.
func StageFor(heightFt float64, actionFt, floodFt, majorFt *float64) Stage {
	switch {
	case majorFt != nil && heightFt >= *majorFt:
		return StageMajor
	case floodFt != nil && heightFt >= *floodFt:
		return StageFlood
	case actionFt != nil && heightFt >= *actionFt:
		return StageAction
	default:
		return StageNormal
	}
}
