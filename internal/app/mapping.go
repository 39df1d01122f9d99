package app

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/joern1811/wapay/internal/domain"
)

const mappingDateLayout = "2006-01-02 15:04"

// MappingEntry is one image in contact_mapping.json. Unmatched images
// carry null contact fields.
type MappingEntry struct {
	ImageFile    string  `json:"image_file"`
	ContactName  *string `json:"contact_name"`
	ContactPhone *string `json:"contact_phone"`
	SentDate     *string `json:"sent_date"`
	Match        string  `json:"match"`
	MessageIndex *int    `json:"message_index,omitempty"`
}

func MappingEntries(result *domain.CorrelationResult) []MappingEntry {
	out := make([]MappingEntry, 0, result.Len())
	for _, a := range result.Attributions {
		e := MappingEntry{ImageFile: a.Asset.Filename, Match: a.Strategy.String()}
		if a.Matched() {
			e.ContactName = optional(a.Contact.Name)
			e.ContactPhone = optional(a.Contact.Phone)
			if !a.SentAt.IsZero() {
				e.SentDate = optional(a.SentAt.Format(mappingDateLayout))
			}
			idx := a.MessageIndex
			e.MessageIndex = &idx
		}
		out = append(out, e)
	}
	return out
}

// WriteMapping stores the correlation as indented JSON at path.
func WriteMapping(path string, result *domain.CorrelationResult) error {
	data, err := json.MarshalIndent(MappingEntries(result), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling contact mapping: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing contact mapping: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
