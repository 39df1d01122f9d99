// Package correlation attributes exported media files to the chat
// participants that sent them.
package correlation

import (
	"strings"

	"github.com/joern1811/wapay/internal/domain"
)

// MaxDayWindow is the widest timestamp tolerance the engine accepts.
const MaxDayWindow = 1

type Options struct {
	// DayWindow is the number of calendar days a filename date may differ
	// from the message date. 0 means same day.
	DayWindow int
}

// Engine runs the matching strategies. It performs no I/O and keeps no
// state between calls.
type Engine struct {
	directory *domain.ContactDirectory
	opts      Options
}

func NewEngine(directory *domain.ContactDirectory, opts Options) *Engine {
	if directory == nil {
		directory = domain.NewContactDirectory()
	}
	if opts.DayWindow < 0 {
		opts.DayWindow = 0
	}
	if opts.DayWindow > MaxDayWindow {
		opts.DayWindow = MaxDayWindow
	}
	return &Engine{directory: directory, opts: opts}
}

// reference is a user message carrying an attachment filename.
type reference struct {
	msg       *domain.Message
	numericID string
}

// pass holds the working state of one Correlate call.
type pass struct {
	result *domain.CorrelationResult
	refs   []*reference // every attachment-bearing message, in message order
}

// Correlate returns exactly one attribution per distinct asset filename,
// in asset order. Strategies are tried per asset in priority order: exact
// filename, numeric id, timestamp proximity. Exact matches are settled for
// all assets first. The fuzzy strategies consider every message carrying
// an attachment marker, and one message may attribute several assets.
func (e *Engine) Correlate(messages []domain.Message, assets []domain.MediaAsset) *domain.CorrelationResult {
	p := &pass{result: domain.NewCorrelationResult(len(assets))}

	unique := dedupe(assets)
	byName := make(map[string][]*reference)
	for i := range messages {
		msg := &messages[i]
		if !msg.HasAttachment() {
			continue
		}
		ref := &reference{
			msg:       msg,
			numericID: domain.CanonicalNumericID(domain.LongestDigitRun(trimExt(msg.Attachment))),
		}
		key := strings.ToLower(msg.Attachment)
		byName[key] = append(byName[key], ref)
		p.refs = append(p.refs, ref)
	}

	onDisk := make(map[string]bool, len(unique))
	for _, a := range unique {
		onDisk[strings.ToLower(a.Filename)] = true
	}
	for _, ref := range p.refs {
		if onDisk[strings.ToLower(ref.msg.Attachment)] {
			continue
		}
		p.result.Missing = append(p.result.Missing, domain.MissingMediaError{
			Filename:     ref.msg.Attachment,
			MessageIndex: ref.msg.Index,
			Sender:       ref.msg.Sender,
		})
	}

	attributions := make([]domain.Attribution, len(unique))
	settled := make([]bool, len(unique))

	for i, asset := range unique {
		if ref, ok := exactMatch(asset, byName); ok {
			attributions[i] = e.attribute(asset, ref.msg, domain.ExactFilename)
			settled[i] = true
		}
	}
	for i, asset := range unique {
		if settled[i] {
			continue
		}
		if ref, ok := p.numericMatch(asset); ok {
			attributions[i] = e.attribute(asset, ref.msg, domain.NumericID)
			settled[i] = true
		}
	}
	for i, asset := range unique {
		if settled[i] {
			continue
		}
		if ref, ok := p.timestampMatch(asset, e.opts.DayWindow); ok {
			attributions[i] = e.attribute(asset, ref.msg, domain.TimestampProximity)
			settled[i] = true
		}
	}

	for i, asset := range unique {
		if !settled[i] {
			attributions[i] = domain.Attribution{Asset: asset, Strategy: domain.Unmatched, MessageIndex: -1}
			p.result.Unmatched = append(p.result.Unmatched, domain.UnmatchedAssetWarning{
				Filename: asset.Filename,
				Reason:   p.unmatchedReason(asset),
			})
		}
		p.result.Add(attributions[i])
	}
	return p.result
}

func (e *Engine) attribute(asset domain.MediaAsset, msg *domain.Message, s domain.MatchStrategy) domain.Attribution {
	contact, ok := e.directory.Lookup(msg.Sender)
	if !ok {
		contact = domain.ContactRecord{Name: msg.Sender}
		if domain.IsPhoneNumber(msg.Sender) {
			contact.Phone = msg.Sender
		}
	}
	return domain.Attribution{
		Asset:        asset,
		Contact:      contact,
		Strategy:     s,
		MessageIndex: msg.Index,
		SentAt:       msg.Timestamp,
	}
}

func (p *pass) unmatchedReason(asset domain.MediaAsset) string {
	if _, ok := parseFileStamp(asset.Filename); !ok {
		return "no attachment reference and no date in filename"
	}
	for _, amb := range p.result.Ambiguous {
		if strings.EqualFold(amb.Filename, asset.Filename) {
			return "numeric id is ambiguous and no message within the date window"
		}
	}
	return "no attachment message within the date window"
}

// dedupe keeps the first asset for each case-insensitive filename.
func dedupe(assets []domain.MediaAsset) []domain.MediaAsset {
	seen := make(map[string]bool, len(assets))
	out := make([]domain.MediaAsset, 0, len(assets))
	for _, a := range assets {
		key := strings.ToLower(a.Filename)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func trimExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
