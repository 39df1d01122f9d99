package report

import (
	"strconv"

	"github.com/joern1811/wapay/internal/domain"
)

const sentDateLayout = "2006-01-02 15:04"

// Header is the column order shared by every report format.
var Header = []string{
	"contact_name",
	"contact_phone",
	"sent_date",
	"transaction_id",
	"amount",
	"payment_method",
	"date",
	"image_file",
	"match",
	"extraction_failed",
	"error",
}

func sentDate(row domain.ReportRow) string {
	if row.SentAt.IsZero() {
		return ""
	}
	return row.SentAt.Format(sentDateLayout)
}

// amountCell is empty for rows that carry no amount.
func amountCell(row domain.ReportRow) any {
	if row.Payment.Amount == 0 {
		return ""
	}
	return row.Payment.Amount
}

// cells returns the row as typed values for spreadsheet output.
func cells(row domain.ReportRow) []any {
	return []any{
		row.ContactName,
		row.ContactPhone,
		sentDate(row),
		row.Payment.TransactionID,
		amountCell(row),
		row.Payment.PaymentMethod,
		row.Payment.Date,
		row.ImageFile,
		row.Strategy.String(),
		row.ExtractionFailed,
		row.ExtractionError,
	}
}

// record returns the row as text for CSV output.
func record(row domain.ReportRow) []string {
	amount := ""
	if row.Payment.Amount != 0 {
		amount = strconv.FormatFloat(row.Payment.Amount, 'f', -1, 64)
	}
	return []string{
		row.ContactName,
		row.ContactPhone,
		sentDate(row),
		row.Payment.TransactionID,
		amount,
		row.Payment.PaymentMethod,
		row.Payment.Date,
		row.ImageFile,
		row.Strategy.String(),
		strconv.FormatBool(row.ExtractionFailed),
		row.ExtractionError,
	}
}
