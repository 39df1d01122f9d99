package correlation

import (
	"strings"
	"time"

	"github.com/joern1811/wapay/internal/domain"
)

// exactMatch finds the earliest message naming the asset's file.
func exactMatch(asset domain.MediaAsset, byName map[string][]*reference) (*reference, bool) {
	refs := byName[strings.ToLower(asset.Filename)]
	if len(refs) == 0 {
		return nil, false
	}
	return refs[0], true
}

// numericMatch pairs the asset with the single attachment message sharing
// its numeric id. Several candidates are recorded as ambiguous and yield no match.
func (p *pass) numericMatch(asset domain.MediaAsset) (*reference, bool) {
	id := domain.CanonicalNumericID(asset.NumericID)
	if id == "" {
		return nil, false
	}

	var candidates []*reference
	for _, ref := range p.refs {
		if ref.numericID == id {
			candidates = append(candidates, ref)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], true
	}

	idx := make([]int, len(candidates))
	for i, c := range candidates {
		idx[i] = c.msg.Index
	}
	p.result.Ambiguous = append(p.result.Ambiguous, domain.AmbiguousMatchError{
		Filename:   asset.Filename,
		NumericID:  asset.NumericID,
		Candidates: idx,
	})
	return nil, false
}

// timestampMatch picks the attachment message closest to the date encoded in
// the asset's filename, within window calendar days. Ties go to the earliest
// message.
func (p *pass) timestampMatch(asset domain.MediaAsset, window int) (*reference, bool) {
	stamp, ok := parseFileStamp(asset.Filename)
	if !ok {
		return nil, false
	}

	var (
		best     *reference
		bestDist time.Duration
	)
	for _, ref := range p.refs {
		days := dayDistance(stamp.at, ref.msg.Timestamp)
		if days > window {
			continue
		}

		dist := time.Duration(days) * 24 * time.Hour
		if stamp.hasTime {
			dist = absDuration(stamp.at.Sub(ref.msg.Timestamp))
		}
		if best == nil || dist < bestDist {
			best, bestDist = ref, dist
		}
	}
	return best, best != nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
