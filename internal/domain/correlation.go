package domain

import (
	"strings"
	"time"
)

type MatchStrategy int

const (
	Unmatched MatchStrategy = iota
	ExactFilename
	NumericID
	TimestampProximity
)

func (s MatchStrategy) String() string {
	switch s {
	case ExactFilename:
		return "exact"
	case NumericID:
		return "numeric-id"
	case TimestampProximity:
		return "timestamp"
	default:
		return "unmatched"
	}
}

// Attribution links one media asset to the contact that sent it.
type Attribution struct {
	Asset        MediaAsset
	Contact      ContactRecord
	Strategy     MatchStrategy
	MessageIndex int // -1 when unmatched
	SentAt       time.Time
}

func (a Attribution) Matched() bool {
	return a.Strategy != Unmatched
}

// CorrelationResult holds exactly one Attribution per media filename, in
// the order the assets were enumerated.
type CorrelationResult struct {
	Attributions []Attribution
	Unmatched    []UnmatchedAssetWarning
	Missing      []MissingMediaError
	Ambiguous    []AmbiguousMatchError

	index map[string]int
}

func NewCorrelationResult(capacity int) *CorrelationResult {
	return &CorrelationResult{
		Attributions: make([]Attribution, 0, capacity),
		index:        make(map[string]int, capacity),
	}
}

// Has reports whether filename already has an entry.
func (r *CorrelationResult) Has(filename string) bool {
	_, ok := r.index[strings.ToLower(filename)]
	return ok
}

// Add stores a; it returns false and keeps the existing entry when the
// filename is already present.
func (r *CorrelationResult) Add(a Attribution) bool {
	key := strings.ToLower(a.Asset.Filename)
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.Attributions)
	r.Attributions = append(r.Attributions, a)
	return true
}

func (r *CorrelationResult) Get(filename string) (Attribution, bool) {
	i, ok := r.index[strings.ToLower(filename)]
	if !ok {
		return Attribution{}, false
	}
	return r.Attributions[i], true
}

func (r *CorrelationResult) Len() int {
	return len(r.Attributions)
}

func (r *CorrelationResult) MatchedCount() int {
	n := 0
	for i := range r.Attributions {
		if r.Attributions[i].Matched() {
			n++
		}
	}
	return n
}
