package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-04-27", time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC)},
		{"27/04/2025", time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC)},
		{"27 Apr 2025", time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC)},
		{"27th April 2025", time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC)},
		{"April 27, 2025", time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC)},
		{"27 Apr 2025, 11:35 am", time.Date(2025, 4, 27, 11, 35, 0, 0, time.UTC)},
		{"27/04/25, 12:44:30", time.Date(2025, 4, 27, 12, 44, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePaymentDate(tt.in)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, ok := ParsePaymentDate("yesterday")
	assert.False(t, ok)
	_, ok = ParsePaymentDate("")
	assert.False(t, ok)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.March}, m)
	assert.Equal(t, "2024-03", m.String())

	_, err = ParseMonth("03/2024")
	assert.Error(t, err)
}

func TestFilterRowsByMonth(t *testing.T) {
	march := Month{Year: 2024, Month: time.March}
	rows := []ReportRow{
		{ImageFile: "a.jpg", Payment: PaymentFields{Date: "15 Mar 2024"}},
		{ImageFile: "b.jpg", Payment: PaymentFields{Date: "2024-04-01"}},
		{ImageFile: "c.jpg", ExtractionFailed: true},
		{ImageFile: "d.jpg", Payment: PaymentFields{Date: "sometime"}},
	}

	kept := FilterRowsByMonth(rows, march)

	require.Len(t, kept, 3)
	assert.Equal(t, "a.jpg", kept[0].ImageFile)
	assert.Equal(t, "c.jpg", kept[1].ImageFile)
	assert.Equal(t, "d.jpg", kept[2].ImageFile)
}
