// Package merge resolves overlaps between detector spans into a single
// non-overlapping set using the global label precedence.
package merge

import (
	"crypto/sha1"
	"encoding/binary"
	"regexp"
	"sort"

	"github.com/sdrasco/freedact/internal/textspan"
)

// precedence ranks labels from strongest to weakest. Lower rank wins.
var precedence = map[textspan.Label]int{
	textspan.LabelAddressBlock: 0,
	textspan.LabelAccountID:    1,
	textspan.LabelEmail:        2,
	textspan.LabelPhone:        3,
	textspan.LabelDOB:          4,
	textspan.LabelAliasLabel:   5,
	textspan.LabelBankOrg:      6,
	textspan.LabelPerson:       7,
	textspan.LabelGenericOrg:   8,
	textspan.LabelLocation:     9,
	textspan.LabelAddressLine:  10,
	textspan.LabelDateGeneric:  11,
}

const unknownPrecedence = 10_000

func rank(label textspan.Label) int {
	if r, ok := precedence[label]; ok {
		return r
	}
	return unknownPrecedence
}

// truncValidators decide whether a truncated remainder still forms a
// syntactically valid span of its label. Labels without an entry are
// dropped instead of truncated.
var truncValidators = map[textspan.Label]*regexp.Regexp{
	textspan.LabelEmail:       regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
	textspan.LabelPhone:       regexp.MustCompile(`^\+?[\d(][\d() .-]{5,}\d$`),
	textspan.LabelDateGeneric: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$|^\d{1,2}/\d{1,2}/\d{4}$`),
	textspan.LabelPerson:      regexp.MustCompile(`^[A-Z][A-Za-z'.-]+(?: [A-Z][A-Za-z'.-]+)+$`),
}

func tieHash(sp textspan.Span) uint64 {
	sum := sha1.Sum([]byte(sp.Source + "\x00" + string(sp.Label)))
	return binary.BigEndian.Uint64(sum[:8])
}

// Merge returns a non-overlapping subset of spans sorted by start. It is
// a pure function of its input: precedence decides winners; within a tier
// longer spans beat shorter, then higher confidence, then earlier start,
// then a deterministic hash of source and label. A partially overlapped
// loser survives truncated only when the remainder is still valid for its
// label.
func Merge(text string, spans []textspan.Span) []textspan.Span {
	valid := spans[:0:0]
	for _, sp := range spans {
		if sp.End > sp.Start {
			valid = append(valid, sp)
		}
	}
	deduped := dedupeIdentical(valid)

	ordered := make([]textspan.Span, len(deduped))
	copy(ordered, deduped)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if ra, rb := rank(a.Label), rank(b.Label); ra != rb {
			return ra < rb
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return tieHash(a) < tieHash(b)
	})

	var kept []textspan.Span
	for _, cand := range ordered {
		conflict := false
		for _, k := range kept {
			if !cand.Overlaps(k) {
				continue
			}
			if k.Contains(cand) {
				conflict = true
				break
			}
			// Partial overlap: try to truncate the candidate to the
			// side that does not intersect the winner.
			trimmed, ok := truncate(text, cand, k)
			if !ok {
				conflict = true
				break
			}
			cand = trimmed
			// Re-check against all kept spans with the new range.
			if overlapsAny(cand, kept) {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, cand)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

func overlapsAny(sp textspan.Span, kept []textspan.Span) bool {
	for _, k := range kept {
		if sp.Overlaps(k) {
			return true
		}
	}
	return false
}

// truncate trims cand to the portion outside winner and reports whether
// the remainder is still a valid span of cand's label.
func truncate(text string, cand, winner textspan.Span) (textspan.Span, bool) {
	rx, ok := truncValidators[cand.Label]
	if !ok {
		return cand, false
	}
	start, end := cand.Start, cand.End
	if winner.Start <= start {
		start = winner.End
	} else {
		end = winner.Start
	}
	// Trim surrounding whitespace left behind by the cut.
	for start < end && (text[start] == ' ' || text[start] == '\n') {
		start++
	}
	for end > start && (text[end-1] == ' ' || text[end-1] == '\n') {
		end--
	}
	if end-start < 2 {
		return cand, false
	}
	remainder := text[start:end]
	if !rx.MatchString(remainder) {
		return cand, false
	}
	cand.Start, cand.End, cand.Text = start, end, remainder
	return cand, true
}

// dedupeIdentical collapses spans sharing (start, end, label), keeping
// the highest confidence, then the lexicographically smallest source.
func dedupeIdentical(spans []textspan.Span) []textspan.Span {
	type key struct {
		start, end int
		label      textspan.Label
	}
	best := map[key]int{}
	var order []key
	for i, sp := range spans {
		k := key{sp.Start, sp.End, sp.Label}
		prev, ok := best[k]
		if !ok {
			best[k] = i
			order = append(order, k)
			continue
		}
		p := spans[prev]
		if sp.Confidence > p.Confidence ||
			(sp.Confidence == p.Confidence && sp.Source < p.Source) {
			best[k] = i
		}
	}
	out := make([]textspan.Span, 0, len(order))
	for _, k := range order {
		out = append(out, spans[best[k]])
	}
	return out
}
