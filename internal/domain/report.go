package domain

import "time"

// ReportRow is one line of the payment report.
type ReportRow struct {
	ContactName      string
	ContactPhone     string
	SentAt           time.Time
	Payment          PaymentFields
	ImageFile        string
	Strategy         MatchStrategy
	ExtractionFailed bool
	ExtractionError  string
}

// FilterRowsByMonth drops rows whose payment date falls outside m. Rows
// without a readable payment date (failed extractions included) are kept.
func FilterRowsByMonth(rows []ReportRow, m Month) []ReportRow {
	kept := make([]ReportRow, 0, len(rows))
	for _, row := range rows {
		if t, ok := ParsePaymentDate(row.Payment.Date); ok && !m.Contains(t) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}
