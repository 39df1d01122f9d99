package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PaymentFields are the structured fields read off a payment receipt.
type PaymentFields struct {
	TransactionID string  `json:"transaction_id" validate:"max=128"`
	Date          string  `json:"date" validate:"max=64"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"max=64"`
}

func (p PaymentFields) IsZero() bool {
	return p == PaymentFields{}
}

// Receipt dates as printed by payment apps and as returned by the LLM.
var paymentDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/06, 15:04:05",
	"02/01/06, 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan 2006, 03:04 PM",
	"2 Jan 2006, 3:04 PM",
	"2 Jan 2006 3:04 PM",
	"2 Jan 2006 15:04",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2 2006",
	"2 Jan, 2006",
}

var (
	ordinalRe  = regexp.MustCompile(`(\d)(?i:st|nd|rd|th)\b`)
	atClockRe  = regexp.MustCompile(`(?i)\s+at\s+`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// ParsePaymentDate parses the free-form date of a receipt.
func ParsePaymentDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = atClockRe.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.ToUpper(s)

	for _, layout := range paymentDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Month is a calendar month used to filter the report.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
