package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/geo"
)

// Unit conversions used throughout basin hydrology.
const (
	sqMetersPerSqMile = 2589988.11
	feetPerMeter      = 3.28084
	feetPerMile       = 5280.0
)

// TcMethod selects a time-of-concentration formula.
type TcMethod string

const (
	TcKirpich TcMethod = "kirpich"
	TcSCS     TcMethod = "scs"
)

// ElevationSample is a spot elevation observation.
type ElevationSample struct {
	Location    geo.Point
	ElevationFt float64
}

// ElevationStats summarizes elevation samples falling inside a basin.
type ElevationStats struct {
	MinFt               float64 `json:"elevation_min_ft"`
	MaxFt               float64 `json:"elevation_max_ft"`
	MeanFt              float64 `json:"elevation_mean_ft"`
	RangeFt             float64 `json:"elevation_range_ft"`
	AverageSlopePercent float64 `json:"average_slope_percent"`
}

// BasinProperties holds derived metrics for one drainage basin.
type BasinProperties struct {
	AreaSqMeters    float64         `json:"area_sq_meters"`
	AreaSqMiles     float64         `json:"area_sq_miles"`
	PerimeterMeters float64         `json:"perimeter_meters"`
	Circularity     float64         `json:"circularity"`
	Centroid        geo.Point       `json:"centroid"`
	Outlet          geo.Point       `json:"outlet_location"`
	Elevation       *ElevationStats `json:"elevation,omitempty"`
}

// BasinPropertiesOf computes area, perimeter, shape, and optional
// elevation metrics for a basin polygon with the given outlet gauge.
// The perimeter uses the flat 111,320 m/degree approximation and
// circularity is 4*pi*A / P^2 (1.0 for a circle). Elevation stats are
// attached only when at least one sample falls inside the basin; the
// average slope, range over perimeter length in feet, needs at least two.
func BasinPropertiesOf(basin geo.Polygon, outlet geo.Point, elevation []ElevationSample) (BasinProperties, error) {
	if !basin.IsValid() {
		return BasinProperties{}, domain.Validatef("basin", "polygon must have at least 3 vertices and non-zero area")
	}
	if err := outlet.Validate(); err != nil {
		return BasinProperties{}, err
	}

	areaSqM := basin.AreaSquareMeters()
	perimeterM := basin.PerimeterDegrees() * geo.MetersPerDegree

	props := BasinProperties{
		AreaSqMeters:    areaSqM,
		AreaSqMiles:     areaSqM / sqMetersPerSqMile,
		PerimeterMeters: perimeterM,
		Circularity:     4 * math.Pi * areaSqM / (perimeterM * perimeterM),
		Centroid:        basin.Centroid(),
		Outlet:          outlet,
	}

	var inside []float64
	for _, e := range elevation {
		if basin.Contains(e.Location) {
			inside = append(inside, e.ElevationFt)
		}
	}
	if len(inside) > 0 {
		stats := &ElevationStats{
			MinFt:  inside[0],
			MaxFt:  inside[0],
			MeanFt: stat.Mean(inside, nil),
		}
		for _, ft := range inside[1:] {
			stats.MinFt = math.Min(stats.MinFt, ft)
			stats.MaxFt = math.Max(stats.MaxFt, ft)
		}
		stats.RangeFt = stats.MaxFt - stats.MinFt
		if len(inside) > 1 && perimeterM > 0 {
			stats.AverageSlopePercent = stats.RangeFt / (perimeterM * feetPerMeter) * 100
		}
		props.Elevation = stats
	}

	return props, nil
}

// TimeOfConcentration estimates how long runoff takes to travel from the
// basin's hydraulically most distant point to the outlet, in hours. The
// flow length is approximated as sqrt(area). Kirpich:
// Tc = 0.0078 * L^0.77 * S^-0.385 minutes (L in feet, S slope fraction);
// SCS: Tc = 0.057 * L^0.8 / S^0.5 hours (L in miles, S slope percent).
// Zero slope or an unknown method falls back to the generic estimate of
// area * 0.5 hours.
func TimeOfConcentration(props BasinProperties, method TcMethod) float64 {
	slopePercent := 1.0
	if props.Elevation != nil {
		slopePercent = props.Elevation.AverageSlopePercent
	}
	lengthMiles := math.Sqrt(props.AreaSqMiles)

	switch method {
	case TcKirpich:
		slopeFraction := slopePercent / 100
		if slopeFraction > 0 {
			tcMinutes := 0.0078 * math.Pow(lengthMiles*feetPerMile, 0.77) * math.Pow(slopeFraction, -0.385)
			return tcMinutes / 60
		}
	case TcSCS:
		if slopePercent > 0 {
			return 0.057 * math.Pow(lengthMiles, 0.8) / math.Sqrt(slopePercent)
		}
	}

	return props.AreaSqMiles * 0.5
}

// RunoffDepthIn computes SCS curve-number runoff depth in inches:
// S = 1000/CN - 10, Ia = 0.2*S, Q = (P-Ia)^2 / (P-Ia+S) when P > Ia,
// else 0. Non-positive curve numbers yield 0.
func RunoffDepthIn(rainfallIn float64, curveNumber int) float64 {
	if curveNumber <= 0 {
		return 0
	}
	s := 1000/float64(curveNumber) - 10
	ia := 0.2 * s
	if rainfallIn <= ia {
		return 0
	}
	return (rainfallIn - ia) * (rainfallIn - ia) / (rainfallIn - ia + s)
}

// PeakDischarge estimates peak basin outflow in cubic feet per second
// using a rational-method approximation scaled by curve number:
// Q = 0.5 * (CN/100) * intensity * area * 640, with intensity the
// rainfall spread over the Kirpich time of concentration. This is a
// best-effort hydrological estimate: any degenerate input returns 0
// instead of an error.
func PeakDischarge(props BasinProperties, rainfallIn float64, curveNumber int) float64 {
	if curveNumber <= 0 || rainfallIn < 0 || props.AreaSqMiles <= 0 {
		return 0
	}

	tcHours := TimeOfConcentration(props, TcKirpich)
	if tcHours <= 0 {
		return 0
	}

	intensity := rainfallIn / tcHours
	peak := 0.5 * (float64(curveNumber) / 100) * intensity * props.AreaSqMiles * 640
	if math.IsNaN(peak) || math.IsInf(peak, 0) || peak < 0 {
		return 0
	}
	return peak
}

// curveNumbers are simplified SCS curve numbers assuming average
// antecedent moisture conditions.
var curveNumbers = map[string]int{
	"urban_high_density":   85,
	"urban_medium_density": 75,
	"urban_low_density":    65,
	"commercial":           88,
	"industrial":           82,
	"residential":          70,
	"forest":               55,
	"agricultural":         72,
	"pasture":              68,
	"water":                100,
	"wetland":              90,
}

// CurveNumberForLandUse maps a land-use type to its SCS curve number,
// defaulting to residential (70) for unknown types.
func CurveNumberForLandUse(landUse string) int {
	if cn, ok := curveNumbers[landUse]; ok {
		return cn
	}
	return 70
}

// UpstreamGauge is a candidate upstream gauge with its distance from the
// outlet.
type UpstreamGauge struct {
	Gauge      domain.Gauge
	DistanceKm float64
}

// UpstreamGauges finds gauges likely upstream of an outlet: within the
// search radius, not the outlet itself, and carrying elevation data (the
// simplified stand-in for flow-direction analysis). Sorted nearest first.
func UpstreamGauges(outlet geo.Point, gauges []domain.Gauge, searchRadiusKm float64) []UpstreamGauge {
	var upstream []UpstreamGauge
	for _, g := range gauges {
		distKm := geo.Distance(outlet, geo.Point{Lon: g.Longitude, Lat: g.Latitude}) / 1000
		if distKm > searchRadiusKm || distKm < 0.1 {
			continue
		}
		if g.ElevationFt == nil || *g.ElevationFt <= 0 {
			continue
		}
		upstream = append(upstream, UpstreamGauge{Gauge: g, DistanceKm: distKm})
	}
	sort.Slice(upstream, func(i, j int) bool {
		return upstream[i].DistanceKm < upstream[j].DistanceKm
	})
	return upstream
}
