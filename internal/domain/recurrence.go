package domain

// RecurrenceRecord is one row of a gauge's flood-frequency analysis.
// Record sets are stored and served sorted ascending by ReturnPeriodYears.
type RecurrenceRecord struct {
	ReturnPeriodYears           int
	DischargeCFS                float64
	GaugeHeightFt               float64
	AnnualExceedanceProbability float64
}
