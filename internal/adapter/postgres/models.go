package postgres

import (
	"time"
)

// gaugeModel is the river_gauges table: registry metadata plus the most
// recently observed state.
type gaugeModel struct {
	ID        uint   `gorm:"primaryKey"`
	SiteID    string `gorm:"uniqueIndex;size:32;not null"`
	Name      string `gorm:"size:255;not null"`
	Latitude  float64
	Longitude float64

	ElevationFt       *float64
	DrainageAreaSqMi  *float64
	ActionStageFt     *float64
	FloodStageFt      *float64
	MajorFloodStageFt *float64

	CurrentFlowCFS  *float64
	CurrentHeightFt *float64
	CurrentStage    string `gorm:"size:16;default:normal"`
	LastUpdated     *time.Time

	IsActive bool `gorm:"default:true;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (gaugeModel) TableName() string { return "river_gauges" }

// measurementModel is the append-only gauge_measurements table.
type measurementModel struct {
	ID        uint      `gorm:"primaryKey"`
	GaugeID   uint      `gorm:"index:idx_measurements_gauge_time;not null"`
	Timestamp time.Time `gorm:"index:idx_measurements_gauge_time"`
	FlowCFS   *float64
	HeightFt  *float64

	CreatedAt time.Time
}

func (measurementModel) TableName() string { return "gauge_measurements" }

// assessmentModel is the risk_assessments table, one row per computed
// assessment.
type assessmentModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	GaugeID        uint   `gorm:"index;not null"`
	CompositeScore float64
	RiskLevel      string `gorm:"size:16;index"`
	Confidence     float64

	GaugeRisk      float64
	RainfallRisk   float64
	SaturationRisk float64
	ProximityRisk  float64

	ComputedAt time.Time
	CreatedAt  time.Time
}

func (assessmentModel) TableName() string { return "risk_assessments" }

// recurrenceModel is the flood_recurrence_intervals table holding the
// gauge's flood-frequency curve.
type recurrenceModel struct {
	ID                uint `gorm:"primaryKey"`
	GaugeID           uint `gorm:"index:idx_recurrence_gauge_period;not null"`
	ReturnPeriodYears int  `gorm:"index:idx_recurrence_gauge_period"`
	DischargeCFS      float64
	GaugeHeightFt     float64

	CreatedAt time.Time
}

func (recurrenceModel) TableName() string { return "flood_recurrence_intervals" }
