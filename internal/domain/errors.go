package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotChatExport is wrapped by every ParseError.
var ErrNotChatExport = errors.New("not a recognizable WhatsApp chat export")

// ParseError is returned when the chat log has no message-start lines.
type ParseError struct {
	Lines int // lines read
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: no message lines found in %d lines", ErrNotChatExport, e.Lines)
}

func (e *ParseError) Unwrap() error {
	return ErrNotChatExport
}

// MissingMediaError reports an attachment reference with no file on disk.
type MissingMediaError struct {
	Filename     string
	MessageIndex int
	Sender       string
}

func (e MissingMediaError) Error() string {
	return fmt.Sprintf("message %d from %q references missing media %q", e.MessageIndex, e.Sender, e.Filename)
}

// AmbiguousMatchError records a numeric id shared by several candidate
// messages. The numeric-id strategy is skipped for that asset.
type AmbiguousMatchError struct {
	Filename   string
	NumericID  string
	Candidates []int // message indexes
}

func (e AmbiguousMatchError) Error() string {
	idx := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		idx[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("numeric id %s of %q matches messages %s", e.NumericID, e.Filename, strings.Join(idx, ", "))
}

// UnmatchedAssetWarning names an image no strategy could attribute.
type UnmatchedAssetWarning struct {
	Filename string
	Reason   string
}

func (w UnmatchedAssetWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Filename, w.Reason)
}
