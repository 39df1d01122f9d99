package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/joern1811/wapay/internal/domain"
)

var ErrNoJSON = errors.New("no JSON object in model answer")

var validate = validator.New()

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(b)
	}
	return nil
}

type answer struct {
	TransactionID flexString `json:"transaction_id"`
	Date          flexString `json:"date"`
	Amount        flexString `json:"amount"`
	PaymentMethod flexString `json:"payment_method"`
}

// decodeAnswer reads the payment fields out of a model answer that may be
// wrapped in a Markdown code fence or surrounded by prose.
func decodeAnswer(raw string) (domain.PaymentFields, error) {
	obj := jsonObject(raw)
	if obj == "" {
		return domain.PaymentFields{}, ErrNoJSON
	}

	var a answer
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		return domain.PaymentFields{}, fmt.Errorf("decoding model answer: %w", err)
	}

	amount, err := parseAmount(string(a.Amount))
	if err != nil {
		return domain.PaymentFields{}, err
	}

	fields := domain.PaymentFields{
		TransactionID: cleanField(string(a.TransactionID)),
		Date:          cleanField(string(a.Date)),
		Amount:        amount,
		PaymentMethod: cleanField(string(a.PaymentMethod)),
	}
	if err := validate.Struct(fields); err != nil {
		return domain.PaymentFields{}, fmt.Errorf("invalid payment fields: %w", err)
	}
	return fields, nil
}

func jsonObject(raw string) string {
	s := stripCodeFence(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func stripCodeFence(input string) string {
	start := strings.Index(input, "```json")
	if start == -1 {
		start = strings.Index(input, "```")
		if start == -1 {
			return strings.TrimSpace(input)
		}
		start += 3
	} else {
		start += len("```json")
	}

	end := strings.Index(input[start:], "```")
	if end == -1 {
		return strings.TrimSpace(input[start:])
	}
	return strings.TrimSpace(input[start : start+end])
}

var amountRe = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// parseAmount reads "₹1,500.00", "Rs. 1500", "1500" or "" (zero).
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") {
		return 0, nil
	}
	m := amountRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("amount %q is not a number", s)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if v < 0 {
		v = -v
	}
	return v, nil
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "n/a", "na", "null", "none", "unknown", "not available", "not found":
		return ""
	}
	return s
}
