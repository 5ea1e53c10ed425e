package history

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

var testRecords = []domain.RecurrenceRecord{
	{ReturnPeriodYears: 2, DischargeCFS: 500},
	{ReturnPeriodYears: 10, DischargeCFS: 2000},
	{ReturnPeriodYears: 100, DischargeCFS: 8000},
}

func TestReturnPeriodForDischarge(t *testing.T) {
	tests := []struct {
		name      string
		discharge float64
		want      *int
	}{
		{"below smallest threshold", 100, intPtr(2)},
		{"at a threshold", 500, intPtr(2)},
		{"between thresholds", 1500, intPtr(10)},
		{"between upper thresholds", 3000, intPtr(100)},
		{"clamps above largest threshold", 50000, intPtr(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReturnPeriodForDischarge(testRecords, tt.discharge)
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}

	t.Run("no records", func(t *testing.T) {
		assert.Nil(t, ReturnPeriodForDischarge(nil, 1000))
	})
}

func TestAnnualExceedanceProbability(t *testing.T) {
	assert.InDelta(t, 0.5, AnnualExceedanceProbability(2), 1e-9)
	assert.InDelta(t, 0.01, AnnualExceedanceProbability(100), 1e-9)
	assert.Zero(t, AnnualExceedanceProbability(0))
	assert.Zero(t, AnnualExceedanceProbability(-5))
}

type stubStore struct {
	records []domain.RecurrenceRecord
	err     error
}

func (s *stubStore) RecurrenceIntervals(_ context.Context, _ uint) ([]domain.RecurrenceRecord, error) {
	return s.records, s.err
}

func TestServiceReturnPeriod(t *testing.T) {
	svc := NewService(&stubStore{records: testRecords}, slog.Default())

	years, err := svc.ReturnPeriod(context.Background(), 1, 1500)
	require.NoError(t, err)
	require.NotNil(t, years)
	assert.Equal(t, 10, *years)
}

func TestServiceReturnPeriod_NoRecords(t *testing.T) {
	svc := NewService(&stubStore{}, slog.Default())

	years, err := svc.ReturnPeriod(context.Background(), 1, 1500)
	require.NoError(t, err)
	assert.Nil(t, years)
}

func TestServiceReturnPeriod_StoreError(t *testing.T) {
	svc := NewService(&stubStore{err: errors.New("connection refused")}, slog.Default())

	_, err := svc.ReturnPeriod(context.Background(), 1, 1500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gauge 1")
}

func intPtr(n int) *int { return &n }
