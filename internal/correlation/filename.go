package correlation

import (
	"regexp"
	"strconv"
	"time"
)

// fileStamp is the point in time encoded in a media filename.
type fileStamp struct {
	at      time.Time
	hasTime bool
}

type stampPattern struct {
	re      *regexp.Regexp
	hasTime bool
}

// Filename layouts seen in WhatsApp exports, most specific first. Groups
// are year, month, day and optionally hour, minute, second, AM/PM.
var stampPatterns = []stampPattern{
	// 00000012-PHOTO-2025-04-27-12-44-30.jpg
	{regexp.MustCompile(`(?i)PHOTO-(\d{4})-(\d{2})-(\d{2})-(\d{2})-(\d{2})-(\d{2})`), true},
	// WhatsApp Image 2024-03-15 at 09.00.12.jpeg, "... at 9.00.12 PM.jpeg"
	{regexp.MustCompile(`(?i)WhatsApp Image (\d{4})-(\d{2})-(\d{2}) at (\d{1,2})\.(\d{2})\.(\d{2})(?:\s*([AP])M)?`), true},
	// IMG_20240315_090012.jpg
	{regexp.MustCompile(`(?i)IMG[_-](\d{4})(\d{2})(\d{2})[_-](\d{2})(\d{2})(\d{2})`), true},
	// IMG-20240315-WA0001.jpg
	{regexp.MustCompile(`(?i)(?:IMG|VID|STK|DOC)-(\d{4})(\d{2})(\d{2})-WA\d+`), false},
	// any YYYY-MM-DD
	{regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), false},
	// any standalone YYYYMMDD
	{regexp.MustCompile(`(?:^|\D)(20\d{2})(\d{2})(\d{2})(?:\D|$)`), false},
}

// FilenameDate returns the date encoded in a WhatsApp media filename.
func FilenameDate(name string) (time.Time, bool) {
	s, ok := parseFileStamp(name)
	return s.at, ok
}

func parseFileStamp(name string) (fileStamp, bool) {
	for _, p := range stampPatterns {
		m := p.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if s, ok := buildStamp(m[1:], p.hasTime); ok {
			return s, true
		}
	}
	return fileStamp{}, false
}

func buildStamp(parts []string, hasTime bool) (fileStamp, bool) {
	n := make([]int, 6)
	limit := 3
	if hasTime {
		limit = 6
	}
	for i := 0; i < limit; i++ {
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return fileStamp{}, false
		}
		n[i] = v
	}

	if hasTime && len(parts) > 6 {
		switch parts[6] {
		case "P", "p":
			if n[3] < 12 {
				n[3] += 12
			}
		case "A", "a":
			if n[3] == 12 {
				n[3] = 0
			}
		}
	}

	at := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.UTC)
	// reject dates time.Date had to normalize, e.g. 2024-02-31
	if at.Year() != n[0] || int(at.Month()) != n[1] || at.Day() != n[2] || at.Hour() != n[3] || at.Minute() != n[4] {
		return fileStamp{}, false
	}
	return fileStamp{at: at, hasTime: hasTime}, true
}

// dayDistance is the number of calendar days between a and b.
func dayDistance(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
