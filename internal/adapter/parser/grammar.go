package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joern1811/wapay/internal/domain"
)

// Message-start patterns. Supports:
//   - iOS:     [DD/MM/YY(YY), HH:MM(:SS)( AM)] Sender: Text
//   - Android: DD/MM/YY(YY), HH:MM( am) - Sender: Text
//
// Date separators may be '/', '.' or '-'; the day/month order is resolved
// afterwards (see inferOrder).
const (
	datePattern  = `(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})`
	clockPattern = `(\d{1,2})[:.](\d{2})(?:[:.](\d{2}))?(?: ?([AaPp])\.? ?[Mm]\.?)?`
)

var (
	bracketRe = regexp.MustCompile(`^\[` + datePattern + `,? ` + clockPattern + `\] ?(.*)$`)
	dashRe    = regexp.MustCompile(`^` + datePattern + `,? ` + clockPattern + ` [-–] (.*)$`)
	senderRe  = regexp.MustCompile(`^([^:]{1,80}?): ?(.*)$`)
)

// System notices. noticeRe phrases are specific enough to trust anywhere.
// membershipRe only applies to iOS notice bodies, which WhatsApp prefixes
// with a left-to-right mark; a sender name such as "Raj Made" is never
// read as a notice. Android notices carry no "Name:" split at all.
var (
	noticeRe = regexp.MustCompile(`(?i)` + strings.Join([]string{
		`end-to-end encrypted`,
		`^messages to this (?:chat|group) are now secured`,
		`joined using this group's invite link`,
		`security code (?:with .+ )?changed`,
		`changed (?:the subject|this group's icon|the group description|the group name)`,
		`deleted this group's icon`,
		`^disappearing messages`,
		`^this group has over`,
	}, "|"))
	membershipRe = regexp.MustCompile(`(?i)^(?:you|.+?) (?:created (?:the )?group|added|removed|left|joined|changed|pinned|turned|made|are now an admin|is now an admin)\b`)
)

const iosNoticeMark = ": \u200e"

type lineKind int

const (
	continuationLine lineKind = iota
	structuredLine
	systemLine
)

// rawStamp is a timestamp before the day/month order is known.
type rawStamp struct {
	first, second, year int
	hour, minute, sec   int
	meridiem            byte // 'A', 'P' or 0 for 24h clocks
}

// chatLine is one classified line: Structured{sender,stamp,text},
// SystemNotice{stamp,text} or Continuation{text}.
type chatLine struct {
	kind   lineKind
	stamp  rawStamp
	sender string
	text   string
}

// classifyLine takes a raw transcript line and classifies it.
func classifyLine(raw string) chatLine {
	line := cleanLine(raw)

	m := bracketRe.FindStringSubmatch(line)
	if m == nil {
		m = dashRe.FindStringSubmatch(line)
	}
	if m == nil {
		return chatLine{kind: continuationLine, text: line}
	}

	stamp, ok := newRawStamp(m[1:8])
	if !ok {
		return chatLine{kind: continuationLine, text: line}
	}

	rest := m[8]
	head, _, _ := strings.Cut(rest, ":")
	if noticeRe.MatchString(head) {
		return chatLine{kind: systemLine, stamp: stamp, text: rest}
	}

	sm := senderRe.FindStringSubmatch(rest)
	if sm == nil {
		return chatLine{kind: systemLine, stamp: stamp, text: rest}
	}

	cl := chatLine{
		kind:   structuredLine,
		stamp:  stamp,
		sender: domain.NormalizeName(sm[1]),
		text:   sm[2],
	}
	if noticeRe.MatchString(cl.text) ||
		(strings.Contains(raw, iosNoticeMark) && findAttachment(cl.text) == "" && membershipRe.MatchString(cl.text)) {
		cl.kind = systemLine
	}
	return cl
}

func newRawStamp(parts []string) (rawStamp, bool) {
	var s rawStamp
	s.first, _ = strconv.Atoi(parts[0])
	s.second, _ = strconv.Atoi(parts[1])
	s.year, _ = strconv.Atoi(parts[2])
	if len(parts[2]) == 2 {
		s.year += 2000
	}
	s.hour, _ = strconv.Atoi(parts[3])
	s.minute, _ = strconv.Atoi(parts[4])
	if parts[5] != "" {
		s.sec, _ = strconv.Atoi(parts[5])
	}
	if parts[6] != "" {
		s.meridiem = strings.ToUpper(parts[6])[0]
	}

	if s.first < 1 || s.second < 1 || s.first > 31 || s.second > 31 {
		return s, false
	}
	if s.first > 12 && s.second > 12 {
		return s, false
	}
	if s.minute > 59 || s.sec > 59 {
		return s, false
	}
	if s.meridiem != 0 && (s.hour < 1 || s.hour > 12) {
		return s, false
	}
	if s.meridiem == 0 && s.hour > 23 {
		return s, false
	}
	return s, true
}
