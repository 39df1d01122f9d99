package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/joern1811/wapay/internal/domain"
)

// DateOrder is the day/month order of export timestamps.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

// ParseDateOrder accepts "day-first" and "month-first".
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day-first":
		return DayFirst, nil
	case "month-first":
		return MonthFirst, nil
	default:
		return DayFirst, fmt.Errorf("unknown date order %q (expected day-first or month-first)", s)
	}
}

// WhatsAppParser parses the transcript of a WhatsApp chat export.
type WhatsAppParser struct {
	// DefaultOrder is used when no timestamp in the file tells day and
	// month apart.
	DefaultOrder DateOrder
}

// entry is a message being assembled by the state machine.
type entry struct {
	line chatLine
	body strings.Builder
}

// ParseFile parses the chat transcript at path.
func (p *WhatsAppParser) ParseFile(path string) ([]domain.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads a transcript and returns its messages in export order. It
// fails with *domain.ParseError when no line starts a message.
func (p *WhatsAppParser) Parse(r io.Reader) ([]domain.Message, error) {
	var (
		entries []*entry
		lines   int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	scanner.Split(scanAnyLines)

	for scanner.Scan() {
		lines++
		cl := classifyLine(scanner.Text())

		if cl.kind != continuationLine {
			entries = append(entries, newEntry(cl))
			continue
		}
		// Multiline: append to previous message body
		if len(entries) > 0 {
			last := entries[len(entries)-1]
			last.body.WriteByte('\n')
			last.body.WriteString(cl.text)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chat: %w", err)
	}
	if len(entries) == 0 {
		return nil, &domain.ParseError{Lines: lines}
	}

	order := inferOrder(entries, p.DefaultOrder)

	messages := make([]domain.Message, len(entries))
	for i, e := range entries {
		msg := domain.Message{
			Index:     i,
			Timestamp: resolveStamp(e.line.stamp, order),
			Sender:    e.line.sender,
			Body:      e.body.String(),
		}
		if e.line.kind == systemLine {
			msg.Kind = domain.SystemNotice
		} else {
			// only the first line carries the attachment marker
			msg.Attachment = findAttachment(e.line.text)
		}
		messages[i] = msg
	}

	return messages, nil
}

func newEntry(cl chatLine) *entry {
	e := &entry{line: cl}
	e.body.WriteString(cl.text)
	return e
}

// cleanLine removes invisible format characters (LTR mark, zero-width
// spaces, BOM) and turns exotic spaces such as U+202F into plain spaces.
func cleanLine(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Cf, r):
			return -1
		case r != '\t' && unicode.IsSpace(r):
			return ' '
		default:
			return r
		}
	}, s)
}

// scanAnyLines is bufio.ScanLines that also accepts a lone '\r' as line end.
func scanAnyLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// need one more byte to tell "\r" from "\r\n"
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// inferOrder decides the day/month order for the whole file. A component
// above 12 can only be a day; when the file holds evidence for one order
// only, that order wins, otherwise fallback applies.
func inferOrder(entries []*entry, fallback DateOrder) DateOrder {
	var dayFirst, monthFirst bool
	for _, e := range entries {
		s := e.line.stamp
		switch {
		case s.first > 12:
			dayFirst = true
		case s.second > 12:
			monthFirst = true
		}
	}
	switch {
	case dayFirst && !monthFirst:
		return DayFirst
	case monthFirst && !dayFirst:
		return MonthFirst
	default:
		return fallback
	}
}

// resolveStamp builds the timestamp. A line contradicting order (its month
// would exceed 12) is read the other way round.
func resolveStamp(s rawStamp, order DateOrder) time.Time {
	day, month := s.first, s.second
	if order == MonthFirst {
		day, month = s.second, s.first
	}
	if month > 12 {
		day, month = month, day
	}

	hour := s.hour
	switch s.meridiem {
	case 'A':
		if hour == 12 {
			hour = 0
		}
	case 'P':
		if hour < 12 {
			hour += 12
		}
	}

	return time.Date(s.year, time.Month(month), day, hour, s.minute, s.sec, 0, time.UTC)
}
