// Package plan builds the replacement plan from merged spans and applies
// it to the normalized text.
package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/guard"
	"github.com/sdrasco/freedact/internal/link"
	"github.com/sdrasco/freedact/internal/pseudo"
	"github.com/sdrasco/freedact/internal/textspan"
)

// ErrOverlap indicates overlapping plan entries after merge — a bug, not
// an input problem. The run aborts and no output is written.
var ErrOverlap = errors.New("plan entries overlap")

// ErrUnsafe is returned in strict mode when no safe replacement could be
// generated within the retry budget.
var ErrUnsafe = errors.New("no safe replacement after retries")

// Entry is one accepted replacement. Entries are immutable once the
// guard accepts them.
type Entry struct {
	Start       int            `json:"start"`
	End         int            `json:"end"`
	Original    string         `json:"original"`
	Replacement string         `json:"replacement"`
	ClusterID   string         `json:"cluster_id,omitempty"`
	Label       textspan.Label `json:"label"`
	Source      string         `json:"detector"`
	Confidence  float64        `json:"confidence"`
	Retries     int            `json:"retries"`
	Reasons     []string       `json:"reason_trail,omitempty"`
	Unsafe      bool           `json:"unsafe,omitempty"`
}

// Build produces the plan for the merged, filtered spans. Per span it
// asks the generator for a candidate, lets the guard veto it, and retries
// with an incremented salt up to guard.MaxRetries. On exhaustion it falls
// back to an opaque placeholder, or fails when strict mode is set.
func Build(spans []textspan.Span, clusters link.ClusterSet, gen *pseudo.Generator, gd *guard.Guard, cfg *config.Config) ([]Entry, error) {
	var entries []Entry
	for _, sp := range spans {
		if !replaceable(sp, cfg) {
			continue
		}
		cluster := clusters[sp.ClusterID]

		var reasons []string
		accepted := false
		var replacement string
		var retries int
		for attempt := 0; attempt <= guard.MaxRetries; attempt++ {
			candidate, err := gen.Replacement(sp, cluster, attempt)
			if err != nil {
				reasons = append(reasons, err.Error())
				break
			}
			ok, reason := gd.Check(sp, candidate)
			if ok {
				replacement = candidate
				retries = attempt
				accepted = true
				break
			}
			reasons = append(reasons, fmt.Sprintf("attempt %d: %s", attempt, reason))
		}

		entry := Entry{
			Start:       sp.Start,
			End:         sp.End,
			Original:    sp.Text,
			Replacement: replacement,
			ClusterID:   sp.ClusterID,
			Label:       sp.Label,
			Source:      sp.Source,
			Confidence:  sp.Confidence,
			Retries:     retries,
			Reasons:     reasons,
		}
		if !accepted {
			if cfg.FailOnResidual {
				return nil, fmt.Errorf("%w: %s span at %d-%d", ErrUnsafe, sp.Label, sp.Start, sp.End)
			}
			entry.Unsafe = true
			entry.Retries = guard.MaxRetries
			entry.Replacement = "[REDACTED_" + string(sp.Label) + "]"
			log.Warn().
				Str("label", string(sp.Label)).
				Int("start", sp.Start).
				Msg("falling back to opaque placeholder")
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
	for i := 1; i < len(entries); i++ {
		if entries[i].Start < entries[i-1].End {
			return nil, fmt.Errorf("%w: %d-%d and %d-%d",
				ErrOverlap, entries[i-1].Start, entries[i-1].End, entries[i].Start, entries[i].End)
		}
	}
	return entries, nil
}

// replaceable decides whether a span enters the plan at all.
func replaceable(sp textspan.Span, cfg *config.Config) bool {
	if sp.Attr(textspan.AttrSkipReplace) == "true" {
		return false
	}
	switch sp.Label {
	case textspan.LabelDateGeneric:
		return cfg.GenericDates
	case textspan.LabelAddressLine:
		// Lines surviving the merger outside any block are replaced.
		return true
	}
	return true
}

// Validate checks offsets and overlap for a plan against its text.
func Validate(text string, entries []Entry) error {
	prevEnd := 0
	for _, e := range entries {
		if e.Start < 0 || e.End > len(text) || e.Start > e.End {
			return fmt.Errorf("plan entry out of bounds: %d-%d", e.Start, e.End)
		}
		if e.Start < prevEnd {
			return fmt.Errorf("%w: %d < %d", ErrOverlap, e.Start, prevEnd)
		}
		prevEnd = e.End
	}
	return nil
}

// Apply replaces every entry's range, walking the plan tail-first so no
// edit invalidates the offsets of entries still pending. Before editing,
// each entry searches its segment for the replacement text: if found,
// that occurrence is kept in place instead of re-editing, so re-applying
// a plan to already-sanitized text is a no-op even when replacements
// shifted later offsets by differing lengths.
func Apply(text string, entries []Entry) (string, error) {
	if len(entries) == 0 {
		return text, nil
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	if err := Validate(text, sorted); err != nil {
		return "", err
	}

	last := len(text)
	parts := make([]string, 0, 2*len(sorted)+1)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		realStart, realEnd := e.Start, e.End
		if e.Replacement != "" && e.Start <= last {
			// Relocate an already-applied replacement within this
			// entry's segment, wherever length drift moved it.
			if pos := strings.LastIndex(text[e.Start:last], e.Replacement); pos >= 0 {
				realStart = e.Start + pos
				realEnd = realStart + len(e.Replacement)
			}
		}
		// Stale offsets on re-application can reach past the segment
		// boundary; clamp so the pass stays in bounds.
		if realEnd > last {
			realEnd = last
		}
		if realStart > realEnd {
			realStart = realEnd
		}
		parts = append(parts, text[realEnd:last])
		parts = append(parts, e.Replacement)
		last = realStart
	}
	parts = append(parts, text[:last])

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String(), nil
}
