// Package history estimates flood return periods from stored
// frequency-analysis records.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// ReturnPeriodForDischarge scans records, assumed sorted ascending by
// return period, and returns the smallest return period whose discharge
// threshold the query meets from below. A discharge above every threshold
// clamps to the largest known return period; extrapolation beyond the
// record set is never attempted. Empty input returns nil.
func ReturnPeriodForDischarge(records []domain.RecurrenceRecord, dischargeCFS float64) *int {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if dischargeCFS <= r.DischargeCFS {
			years := r.ReturnPeriodYears
			return &years
		}
	}
	years := records[len(records)-1].ReturnPeriodYears
	return &years
}

// AnnualExceedanceProbability converts a return period to the probability
// of at least one such event in any given year.
func AnnualExceedanceProbability(returnPeriodYears int) float64 {
	if returnPeriodYears <= 0 {
		return 0
	}
	return 1 / float64(returnPeriodYears)
}

// Service answers return-period queries against a recurrence store.
type Service struct {
	store  domain.RecurrenceStore
	logger *slog.Logger
}

// NewService creates a recurrence estimator backed by the given store.
func NewService(store domain.RecurrenceStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ReturnPeriod estimates the return period in years for an observed
// discharge at a gauge. A gauge with no frequency-analysis records
// returns (nil, nil).
func (s *Service) ReturnPeriod(ctx context.Context, gaugeID uint, dischargeCFS float64) (*int, error) {
	records, err := s.store.RecurrenceIntervals(ctx, gaugeID)
	if err != nil {
		return nil, fmt.Errorf("load recurrence intervals for gauge %d: %w", gaugeID, err)
	}
	return ReturnPeriodForDischarge(records, dischargeCFS), nil
}
