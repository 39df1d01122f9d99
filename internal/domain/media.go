package domain

import (
	"path/filepath"
	"strings"
	"time"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
	".heif": true,
	".gif":  true,
}

type MediaAsset struct {
	Filename  string // base name as stored in the archive
	Path      string
	NumericID string
	ModTime   time.Time
}

func NewMediaAsset(path string, modTime time.Time) MediaAsset {
	name := filepath.Base(path)
	return MediaAsset{
		Filename:  name,
		Path:      path,
		NumericID: LongestDigitRun(strings.TrimSuffix(name, filepath.Ext(name))),
		ModTime:   modTime,
	}
}

// IsImageFile reports whether name has an image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// LongestDigitRun returns the longest run of ASCII digits in s. The first
// run wins on ties; "" when s has no digits.
func LongestDigitRun(s string) string {
	best := ""
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start > len(best) {
				best = s[start:i]
			}
			start = -1
		}
	}
	return best
}

// CanonicalNumericID strips leading zeros so "00000012" and "12" compare equal.
func CanonicalNumericID(id string) string {
	if id == "" {
		return ""
	}
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
