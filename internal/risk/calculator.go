// Package risk converts gauge readings, rainfall forecasts, and soil
// saturation into composite flood-risk assessments.
package risk

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/geo"
)

// Scoring constants. The weights are fixed by the model; changing them
// invalidates historical score comparisons.
const (
	weightGauge      = 0.40
	weightRainfall   = 0.30
	weightSaturation = 0.20
	weightProximity  = 0.10

	// proximityCutoffM is the distance beyond which a gauge contributes
	// no proximity risk.
	proximityCutoffM = 5000.0

	// forecastHorizonPeriods bounds how many forecast periods feed the
	// rainfall total.
	forecastHorizonPeriods = 8

	// estimatedInchesAtCertainty is the rainfall estimate for a period
	// that reports probability but no amount: (prob/100) * 0.5 inches.
	estimatedInchesAtCertainty = 0.5

	// staleAfter is the reading age past which confidence is penalized.
	staleAfter = 24 * time.Hour

	confidenceFloor = 0.1
)

// Input is the full set of observations behind one assessment.
type Input struct {
	Readings          []domain.GaugeReading
	Forecast          domain.RainfallForecast
	SoilSaturationPct float64

	// Location enables the proximity component when set.
	Location *geo.Point
}

// Calculator is a stateless scoring engine, safe for concurrent use.
type Calculator struct{}

// NewCalculator returns a Calculator with the fixed model weights.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateCompositeRisk scores the input and returns an assessment.
// Contract violations (non-finite numbers, out-of-range saturation or
// coordinates) fail with a ValidationError; missing optional data lowers
// confidence or contributes zero, as documented per component.
func (c *Calculator) CalculateCompositeRisk(in Input) (domain.RiskAssessment, error) {
	if err := validateInput(in); err != nil {
		return domain.RiskAssessment{}, err
	}

	components := domain.ComponentScores{
		Gauge:      gaugeRisk(in.Readings),
		Rainfall:   rainfallRisk(in.Forecast),
		Saturation: saturationRisk(in.SoilSaturationPct),
		Proximity:  proximityRisk(in.Location, in.Readings),
	}

	composite := components.Gauge*weightGauge +
		components.Rainfall*weightRainfall +
		components.Saturation*weightSaturation +
		components.Proximity*weightProximity

	return domain.RiskAssessment{
		ID:             uuid.NewString(),
		CompositeScore: round2(composite),
		Level:          domain.LevelForScore(composite),
		Confidence:     round2(confidence(in.Readings, in.Forecast)),
		Components: domain.ComponentScores{
			Gauge:      round2(components.Gauge),
			Rainfall:   round2(components.Rainfall),
			Saturation: round2(components.Saturation),
			Proximity:  round2(components.Proximity),
		},
		ComputedAt: domain.Now(),
	}, nil
}

func validateInput(in Input) error {
	if !isFinite(in.SoilSaturationPct) {
		return domain.Validatef("soil_saturation", "non-finite value")
	}
	if in.SoilSaturationPct < 0 || in.SoilSaturationPct > 100 {
		return domain.Validatef("soil_saturation", "must be between 0 and 100, got %v", in.SoilSaturationPct)
	}
	if in.Location != nil {
		if err := in.Location.Validate(); err != nil {
			return err
		}
	}
	for _, r := range in.Readings {
		for _, f := range []*float64{r.HeightFt, r.FloodStageFt, r.ActionStageFt} {
			if f != nil && !isFinite(*f) {
				return domain.Validatef("gauge_reading", "non-finite threshold or height")
			}
		}
	}
	for _, p := range in.Forecast.Periods {
		if p.PrecipProbability != nil {
			if !isFinite(*p.PrecipProbability) || *p.PrecipProbability < 0 || *p.PrecipProbability > 100 {
				return domain.Validatef("precipitation_probability", "must be between 0 and 100")
			}
		}
		if p.PrecipAmountIn != nil && (!isFinite(*p.PrecipAmountIn) || *p.PrecipAmountIn < 0) {
			return domain.Validatef("precipitation_amount", "must be a non-negative finite value")
		}
	}
	return nil
}

// gaugeRisk scores each reading against its stage thresholds and returns
// the worst case across readings. Empty input scores 0.
//
// Per reading: at or above flood stage scores 100; between action and
// flood stage interpolates linearly from 50 to 100; below action stage
// ramps linearly from 0 to 50.
func gaugeRisk(readings []domain.GaugeReading) float64 {
	best := 0.0
	for _, r := range readings {
		height := valueOr(r.HeightFt, 0)
		flood := valueOr(r.FloodStageFt, 999)
		action := valueOr(r.ActionStageFt, 999)

		var score float64
		switch {
		case height >= flood:
			score = 100
		case height >= action:
			score = 50 + (height-action)/(flood-action)*50
		default:
			score = height / action * 50
		}
		best = math.Max(best, clampScore(score))
	}
	return best
}

// rainfallRisk totals expected precipitation over the forecast horizon and
// maps it to a score through fixed breakpoints. A period's explicit amount
// wins over the probability estimate. Missing forecast scores 0.
func rainfallRisk(forecast domain.RainfallForecast) float64 {
	if forecast.Empty() {
		return 0
	}

	periods := forecast.Periods
	if len(periods) > forecastHorizonPeriods {
		periods = periods[:forecastHorizonPeriods]
	}

	var totalIn float64
	for _, p := range periods {
		if p.PrecipAmountIn != nil {
			totalIn += *p.PrecipAmountIn
			continue
		}
		totalIn += valueOr(p.PrecipProbability, 0) / 100 * estimatedInchesAtCertainty
	}

	switch {
	case totalIn >= 6:
		return 100
	case totalIn >= 4:
		return 75
	case totalIn >= 2:
		return 50
	case totalIn >= 1:
		return 25
	default:
		return totalIn / 1 * 25
	}
}

// saturationRisk is piecewise-linear in soil saturation percent.
func saturationRisk(pct float64) float64 {
	switch {
	case pct >= 90:
		return 100
	case pct >= 75:
		return 75
	case pct >= 50:
		return 50
	default:
		return pct / 50 * 50
	}
}

// proximityRisk is an inverse-linear function of the distance to the
// nearest gauge: 100 at distance 0, 0 at or beyond the cutoff. Scores 0
// without a query location or gauge coordinates.
func proximityRisk(location *geo.Point, readings []domain.GaugeReading) float64 {
	if location == nil || len(readings) == 0 {
		return 0
	}

	nearest := math.Inf(1)
	for _, r := range readings {
		if r.Latitude == 0 && r.Longitude == 0 {
			continue
		}
		d := geo.Distance(*location, geo.Point{Lon: r.Longitude, Lat: r.Latitude})
		nearest = math.Min(nearest, d)
	}
	if math.IsInf(nearest, 1) || nearest >= proximityCutoffM {
		return 0
	}
	return 100 * (1 - nearest/proximityCutoffM)
}

// confidence starts at 1.0 and shrinks multiplicatively for missing gauge
// data, missing forecast, and each stale reading, clamped at the floor.
func confidence(readings []domain.GaugeReading, forecast domain.RainfallForecast) float64 {
	conf := 1.0
	if len(readings) == 0 {
		conf *= 0.5
	}
	if forecast.Empty() {
		conf *= 0.7
	}
	now := domain.Now()
	for _, r := range readings {
		if !r.ObservedAt.IsZero() && now.Sub(r.ObservedAt) > staleAfter {
			conf *= 0.8
		}
	}
	return math.Max(conf, confidenceFloor)
}

func clampScore(s float64) float64 {
	return math.Max(0, math.Min(s, 100))
}

func valueOr(f *float64, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	return *f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
