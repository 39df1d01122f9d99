package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9(][0-9 ().\-]*[0-9]$`)

// NormalizeName turns a sender display name into its directory key. Format
// characters (zero-width spaces, direction marks, BOM) are dropped, Unicode
// spaces become ASCII spaces, runs of whitespace collapse and the "~" prefix
// WhatsApp puts in front of unsaved contacts is removed.
// NormalizeName(NormalizeName(s)) == NormalizeName(s).
func NormalizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Cf, r):
			return -1
		case unicode.IsSpace(r):
			return ' '
		default:
			return r
		}
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, "~ ")
	return norm.NFC.String(s)
}

// IsPhoneNumber reports whether s looks like a phone number: an optional
// leading '+', digits and common separators, at least seven digits.
func IsPhoneNumber(s string) bool {
	s = strings.TrimSpace(s)
	return phoneRe.MatchString(s) && len(PhoneDigits(s)) >= 7
}

// PhoneDigits returns only the digits of a phone number.
func PhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
