package domain

import "time"

// RiskLevel is a bucketed classification of a composite risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskSevere   RiskLevel = "severe"
)

// ComponentScores holds the four sub-scores behind a composite score,
// each bounded to [0,100].
type ComponentScores struct {
	Gauge      float64 `json:"gauge_risk"`
	Rainfall   float64 `json:"rainfall_risk"`
	Saturation float64 `json:"saturation_risk"`
	Proximity  float64 `json:"proximity_risk"`
}

// RiskAssessment is the immutable output of one risk computation for a
// location and observation cycle.
type RiskAssessment struct {
	ID             string          `json:"id"`
	CompositeScore float64         `json:"composite_score"`
	Level          RiskLevel       `json:"risk_level"`
	Confidence     float64         `json:"confidence"`
	Components     ComponentScores `json:"components"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// LevelForScore maps a composite score to its risk level. The bands are
// contiguous and left-closed: low [0,25), moderate [25,50), high [50,75),
// severe [75,100]. Total over all float inputs: anything below 25 is low,
// anything 75 or above (including 100) is severe.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskModerate
	case score < 75:
		return RiskHigh
	default:
		return RiskSevere
	}
}
