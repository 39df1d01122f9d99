package domain

import "time"

type MessageKind int

const (
	UserMessage MessageKind = iota
	SystemNotice
)

func (k MessageKind) String() string {
	if k == SystemNotice {
		return "system"
	}
	return "user"
}

type Message struct {
	Index      int // position in the export
	Timestamp  time.Time
	Sender     string // normalized; empty for notices without a sender
	Body       string
	Kind       MessageKind
	Attachment string // image filename (e.g. "IMG-20240315-WA0001.jpg")
}

func (m *Message) IsSystem() bool {
	return m.Kind == SystemNotice
}

// HasAttachment reports whether a user message references an image file.
func (m *Message) HasAttachment() bool {
	return m.Kind == UserMessage && m.Attachment != ""
}
