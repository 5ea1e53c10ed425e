// Package postgres implements the persistence interfaces over a PostgreSQL
// database using GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Store backs the gauge registry, measurement log, assessments, and
// recurrence intervals with a single PostgreSQL database.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the database and migrates the schema.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&gaugeModel{},
		&measurementModel{},
		&assessmentModel{},
		&recurrenceModel{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewStore wraps an existing gorm connection. Used by tests.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// ActiveGauges returns every gauge flagged active, ordered by site ID.
func (s *Store) ActiveGauges(ctx context.Context) ([]domain.Gauge, error) {
	var models []gaugeModel
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("site_id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load active gauges: %w", err)
	}

	gauges := make([]domain.Gauge, 0, len(models))
	for _, m := range models {
		gauges = append(gauges, toDomainGauge(m))
	}
	return gauges, nil
}

// UpdateGaugeState sets the gauge's current state and appends one
// measurement row in a single transaction.
func (s *Store) UpdateGaugeState(ctx context.Context, gaugeID uint, update domain.GaugeStateUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		observedAt := update.ObservedAt
		res := tx.Model(&gaugeModel{}).
			Where("id = ?", gaugeID).
			Updates(map[string]any{
				"current_flow_cfs":  update.FlowCFS,
				"current_height_ft": update.HeightFt,
				"current_stage":     string(update.Stage),
				"last_updated":      &observedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("update gauge %d: %w", gaugeID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update gauge %d: %w", gaugeID, domain.ErrNotFound)
		}

		measurement := measurementModel{
			GaugeID:   gaugeID,
			Timestamp: update.ObservedAt,
			FlowCFS:   update.FlowCFS,
			HeightFt:  update.HeightFt,
		}
		if err := tx.Create(&measurement).Error; err != nil {
			return fmt.Errorf("append measurement for gauge %d: %w", gaugeID, err)
		}
		return nil
	})
}

// SaveAssessment persists one risk assessment row for a gauge.
func (s *Store) SaveAssessment(ctx context.Context, gaugeID uint, assessment domain.RiskAssessment) error {
	model := assessmentModel{
		ID:             assessment.ID,
		GaugeID:        gaugeID,
		CompositeScore: assessment.CompositeScore,
		RiskLevel:      string(assessment.Level),
		Confidence:     assessment.Confidence,
		GaugeRisk:      assessment.Components.Gauge,
		RainfallRisk:   assessment.Components.Rainfall,
		SaturationRisk: assessment.Components.Saturation,
		ProximityRisk:  assessment.Components.Proximity,
		ComputedAt:     assessment.ComputedAt,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("save assessment for gauge %d: %w", gaugeID, err)
	}
	return nil
}

// LatestAssessments returns the newest assessment per gauge, keyed by
// gauge ID.
func (s *Store) LatestAssessments(ctx context.Context) (map[uint]domain.RiskAssessment, error) {
	latest := s.db.Model(&assessmentModel{}).
		Select("gauge_id, MAX(computed_at) AS max_computed_at").
		Group("gauge_id")

	var models []assessmentModel
	if err := s.db.WithContext(ctx).
		Joins("JOIN (?) latest ON latest.gauge_id = risk_assessments.gauge_id AND latest.max_computed_at = risk_assessments.computed_at", latest).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load latest assessments: %w", err)
	}

	out := make(map[uint]domain.RiskAssessment, len(models))
	for _, m := range models {
		out[m.GaugeID] = domain.RiskAssessment{
			ID:             m.ID,
			CompositeScore: m.CompositeScore,
			Level:          domain.RiskLevel(m.RiskLevel),
			Confidence:     m.Confidence,
			Components: domain.ComponentScores{
				Gauge:      m.GaugeRisk,
				Rainfall:   m.RainfallRisk,
				Saturation: m.SaturationRisk,
				Proximity:  m.ProximityRisk,
			},
			ComputedAt: m.ComputedAt,
		}
	}
	return out, nil
}

// RecurrenceIntervals returns the gauge's flood-frequency records ordered
// ascending by return period.
func (s *Store) RecurrenceIntervals(ctx context.Context, gaugeID uint) ([]domain.RecurrenceRecord, error) {
	var models []recurrenceModel
	if err := s.db.WithContext(ctx).
		Where("gauge_id = ?", gaugeID).
		Order("return_period_years").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load recurrence intervals for gauge %d: %w", gaugeID, err)
	}

	records := make([]domain.RecurrenceRecord, 0, len(models))
	for _, m := range models {
		records = append(records, domain.RecurrenceRecord{
			ReturnPeriodYears: m.ReturnPeriodYears,
			DischargeCFS:      m.DischargeCFS,
			GaugeHeightFt:     m.GaugeHeightFt,
		})
	}
	return records, nil
}

// UpsertGauge inserts or refreshes a registry entry, keyed by site ID.
// Current-state columns are left untouched on update.
func (s *Store) UpsertGauge(ctx context.Context, gauge domain.Gauge) error {
	var existing gaugeModel
	err := s.db.WithContext(ctx).Where("site_id = ?", gauge.SiteID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model := fromDomainGauge(gauge)
		if createErr := s.db.WithContext(ctx).Create(&model).Error; createErr != nil {
			return fmt.Errorf("create gauge %s: %w", gauge.SiteID, createErr)
		}
		return nil
	case err != nil:
		return fmt.Errorf("lookup gauge %s: %w", gauge.SiteID, err)
	}

	updates := map[string]any{
		"name":                 gauge.Name,
		"latitude":             gauge.Latitude,
		"longitude":            gauge.Longitude,
		"elevation_ft":         gauge.ElevationFt,
		"drainage_area_sq_mi":  gauge.DrainageAreaSqMi,
		"action_stage_ft":      gauge.ActionStageFt,
		"flood_stage_ft":       gauge.FloodStageFt,
		"major_flood_stage_ft": gauge.MajorFloodStageFt,
		"is_active":            gauge.IsActive,
	}
	if err := s.db.WithContext(ctx).Model(&gaugeModel{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update gauge %s: %w", gauge.SiteID, err)
	}
	return nil
}

// SeedRecurrenceIntervals replaces a gauge's flood-frequency curve.
func (s *Store) SeedRecurrenceIntervals(ctx context.Context, gaugeID uint, records []domain.RecurrenceRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gauge_id = ?", gaugeID).Delete(&recurrenceModel{}).Error; err != nil {
			return fmt.Errorf("clear recurrence intervals for gauge %d: %w", gaugeID, err)
		}
		for _, r := range records {
			model := recurrenceModel{
				GaugeID:           gaugeID,
				ReturnPeriodYears: r.ReturnPeriodYears,
				DischargeCFS:      r.DischargeCFS,
				GaugeHeightFt:     r.GaugeHeightFt,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("insert recurrence interval for gauge %d: %w", gaugeID, err)
			}
		}
		return nil
	})
}

// GaugeIDBySite resolves a site ID to its registry primary key.
func (s *Store) GaugeIDBySite(ctx context.Context, siteID string) (uint, error) {
	var model gaugeModel
	err := s.db.WithContext(ctx).Select("id").Where("site_id = ?", siteID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("gauge %s: %w", siteID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup gauge %s: %w", siteID, err)
	}
	return model.ID, nil
}

func toDomainGauge(m gaugeModel) domain.Gauge {
	g := domain.Gauge{
		ID:                m.ID,
		SiteID:            m.SiteID,
		Name:              m.Name,
		Latitude:          m.Latitude,
		Longitude:         m.Longitude,
		ElevationFt:       m.ElevationFt,
		DrainageAreaSqMi:  m.DrainageAreaSqMi,
		ActionStageFt:     m.ActionStageFt,
		FloodStageFt:      m.FloodStageFt,
		MajorFloodStageFt: m.MajorFloodStageFt,
		CurrentFlowCFS:    m.CurrentFlowCFS,
		CurrentHeightFt:   m.CurrentHeightFt,
		CurrentStage:      domain.Stage(m.CurrentStage),
		IsActive:          m.IsActive,
	}
	if m.LastUpdated != nil {
		g.LastUpdated = *m.LastUpdated
	}
	return g
}

func fromDomainGauge(g domain.Gauge) gaugeModel {
	m := gaugeModel{
		SiteID:            g.SiteID,
		Name:              g.Name,
		Latitude:          g.Latitude,
		Longitude:         g.Longitude,
		ElevationFt:       g.ElevationFt,
		DrainageAreaSqMi:  g.DrainageAreaSqMi,
		ActionStageFt:     g.ActionStageFt,
		FloodStageFt:      g.FloodStageFt,
		MajorFloodStageFt: g.MajorFloodStageFt,
		CurrentStage:      string(domain.StageNormal),
		IsActive:          g.IsActive,
	}
	if !g.LastUpdated.IsZero() {
		t := g.LastUpdated
		m.LastUpdated = &t
	}
	return m
}
