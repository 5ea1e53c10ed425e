// Package domain models river-gauge observations, rainfall forecasts, and
// flood-risk assessments.
//
// # Data Sources
//
// Gauge readings originate from the USGS Instantaneous Values service
// (https://waterservices.usgs.gov/nwis/iv). Each site reports time-ordered
// measurements tagged by parameter code:
//
//	00060  discharge, cubic feet per second
//	00065  gage height, feet
//
// Rainfall forecasts come from api.weather.gov (US coverage) with Open-Meteo
// as the global fallback. A forecast is an ordered sequence of periods, each
// carrying an optional precipitation probability (0-100) and an optional
// precipitation amount in inches. Either field may be absent; an absent
// forecast is a documented neutral default, not an error.
//
// # Stage Classification
//
// The National Weather Service assigns each gauge escalating water-height
// thresholds: action stage, flood stage, and major flood stage. A gauge's
// current stage is the highest threshold its latest height meets:
//
//	height >= major flood stage  ->  major
//	height >= flood stage        ->  flood
//	height >= action stage       ->  action
//	otherwise                    ->  normal
//
// Thresholds are nullable; a missing threshold simply never matches.
//
// # Risk Levels
//
// Composite risk scores map to four contiguous bands covering [0,100]:
//
//	low [0,25) | moderate [25,50) | high [50,75) | severe [75,100]
//
// The mapping is total and deterministic: every score in range lands in
// exactly one band, and 100 is severe. See [LevelForScore].
//
// # Recurrence Intervals
//
// Flood-frequency analysis yields per-gauge recurrence records ordered by
// return period (2-year, 10-year, 100-year, ...). Each record holds the
// discharge threshold for that return period and its annual exceedance
// probability (1/returnPeriod).
package domain
