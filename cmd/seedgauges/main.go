// Command seedgauges populates the gauge registry with a starter set of
// monitored sites: USGS-instrumented gauges whose metadata is fetched from
// the USGS API, plus manually curated high-risk locations without
// instrumentation.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seedgauges
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/postgres"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// usgsSites are instrumented sites whose name and location come from the
// USGS site metadata at seed time.
var usgsSites = []string{
	"08155200", // Barton Ck at Loop 360, Austin, TX
	"08155300", // Barton Ck at Lost Ck Blvd, Austin, TX
	"08155400", // Barton Ck above Barton Spgs, Austin, TX
	"08158000", // Colorado Rv at Bastrop, TX
	"08151500", // Llano Rv at Llano, TX
	"07010000", // Mississippi River at St. Louis, MO
	"09380000", // Colorado River at Lees Ferry, AZ
	"01646500", // Potomac River near Washington, DC
	"01100000", // Merrimack River below Concord River at Lowell, MA
}

type manualGauge struct {
	siteID string
	name   string
	lat    float64
	lon    float64
}

// manualGauges cover high-risk river reaches without USGS instrumentation.
var manualGauges = []manualGauge{
	{"MANUAL_SL_01", "Kelani River at Colombo, Sri Lanka", 6.9271, 79.8612},
	{"MANUAL_BD_01", "Brahmaputra River at Dhaka, Bangladesh", 23.8103, 90.4125},
	{"MANUAL_IN_01", "Ganges River at Varanasi, India", 25.3176, 82.9739},
	{"MANUAL_PK_01", "Indus River at Karachi, Pakistan", 24.8607, 67.0011},
	{"MANUAL_TH_01", "Chao Phraya River at Bangkok, Thailand", 13.7563, 100.5018},
	{"MANUAL_VN_01", "Mekong River at Ho Chi Minh City, Vietnam", 10.8231, 106.6297},
	{"MANUAL_MW_01", "Shire River at Blantyre, Malawi", -15.7861, 35.0058},
	{"MANUAL_NG_01", "Niger River at Lagos, Nigeria", 6.5244, 3.3792},
	{"MANUAL_EG_01", "Nile River at Cairo, Egypt", 30.0444, 31.2357},
	{"MANUAL_MZ_01", "Zambezi River at Tete, Mozambique", -16.1564, 33.5867},
	{"MANUAL_BR_01", "Amazon River at Manaus, Brazil", -3.1190, -60.0217},
	{"MANUAL_AR_01", "Parana River at Buenos Aires, Argentina", -34.6037, -58.3816},
	{"MANUAL_CO_01", "Magdalena River at Barranquilla, Colombia", 10.9685, -74.7813},
	{"MANUAL_DE_01", "Rhine River at Cologne, Germany", 50.9375, 6.9603},
	{"MANUAL_IT_01", "Po River at Venice, Italy", 45.4408, 12.3155},
	{"MANUAL_UK_01", "Thames River at London, UK", 51.5074, -0.1278},
	{"MANUAL_US_01", "Mississippi River at New Orleans, Louisiana", 29.9511, -90.0715},
	{"MANUAL_US_02", "Houston Ship Channel, Texas", 29.7604, -95.3698},
	{"MANUAL_US_03", "Miami River at Miami, Florida", 25.7617, -80.1918},
	{"MANUAL_AU_01", "Brisbane River at Brisbane, Australia", -27.4698, 153.0251},
}

// Default stage thresholds applied at seed time; real values would come
// from NWS AHPS flood stage data site by site.
const (
	seedActionStageFt = 10.0
	seedFloodStageFt  = 20.0
	seedMajorStageFt  = 30.0
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	store, err := postgres.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	count := 0

	for _, m := range manualGauges {
		if err := store.UpsertGauge(ctx, newGauge(m.siteID, m.name, m.lat, m.lon)); err != nil {
			logger.Error("failed to seed manual gauge", "site_id", m.siteID, "error", err)
			continue
		}
		logger.Info("seeded manual gauge", "site_id", m.siteID, "name", m.name)
		count++
	}

	source := usgs.NewClient(cfg.USGSBaseURL, cfg.SourceTimeout, logger)
	siteData, err := source.SiteData(ctx, usgsSites)
	if err != nil {
		logger.Error("failed to fetch usgs site metadata", "error", err)
		os.Exit(1)
	}

	for siteID, data := range siteData {
		if err := store.UpsertGauge(ctx, newGauge(siteID, data.SiteName, data.Latitude, data.Longitude)); err != nil {
			logger.Error("failed to seed usgs gauge", "site_id", siteID, "error", err)
			continue
		}
		logger.Info("seeded usgs gauge", "site_id", siteID, "name", data.SiteName)
		count++
	}

	logger.Info("seeding complete", "gauges", count)
}

func newGauge(siteID, name string, lat, lon float64) domain.Gauge {
	action := seedActionStageFt
	flood := seedFloodStageFt
	major := seedMajorStageFt
	return domain.Gauge{
		SiteID:            siteID,
		Name:              name,
		Latitude:          lat,
		Longitude:         lon,
		ActionStageFt:     &action,
		FloodStageFt:      &flood,
		MajorFloodStageFt: &major,
		IsActive:          true,
	}
}
