package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Alice", "Alice"},
		{"zero width space", "Bob\u200b", "Bob"},
		{"direction marks", "\u200eCarol\u200f", "Carol"},
		{"bom", "\ufeffDave", "Dave"},
		{"surrounding whitespace", "  Eve  ", "Eve"},
		{"interior whitespace", "Frank \t  Miller", "Frank Miller"},
		{"no-break spaces", "Grace\u00a0\u202fHopper", "Grace Hopper"},
		{"unsaved contact tilde", "~\u202fHeidi", "Heidi"},
		{"decomposed accent", "Jose\u0301", "Jos\u00e9"},
		{"empty", "\u200b \u200b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"Bob\u200b",
		"~ ~ Ivan",
		"  Judy\u00a0 Ng ",
		"e\u200d\u0301x",
		"+91 98765\u00a043210",
		"\u200e~\u202fKim\u200e",
	}

	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestIsPhoneNumber(t *testing.T) {
	assert.True(t, IsPhoneNumber("+91 98765 43210"))
	assert.True(t, IsPhoneNumber("9876543210"))
	assert.True(t, IsPhoneNumber("+1 (555) 123-4567"))
	assert.False(t, IsPhoneNumber("12345"))
	assert.False(t, IsPhoneNumber("Alice"))
	assert.False(t, IsPhoneNumber("Flat 101"))
	assert.False(t, IsPhoneNumber(""))
}
