// Package verify re-runs detection on sanitized output and scores the
// residual leakage.
package verify

import (
	"context"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/plan"
	"github.com/sdrasco/freedact/internal/textspan"
)

// contextWindow is how many characters of surrounding text a residual
// sample carries.
const contextWindow = 30

// labelWeights drive the leakage score. Unlisted labels weigh 1.
var labelWeights = map[textspan.Label]int{
	textspan.LabelEmail:        3,
	textspan.LabelPhone:        3,
	textspan.LabelAccountID:    3,
	textspan.LabelDOB:          3,
	textspan.LabelPerson:       2,
	textspan.LabelAddressBlock: 2,
}

// Residual is one suspect span remaining in the sanitized text.
type Residual struct {
	Label   textspan.Label `json:"label"`
	Text    string         `json:"text"`
	Start   int            `json:"start"`
	End     int            `json:"end"`
	Context string         `json:"context"`
}

// Report is the verification result. It never contains the secret, only
// whether one was present.
type Report struct {
	CountsByLabel map[textspan.Label]int `json:"counts_by_label"`
	LeakageScore  int                    `json:"leakage_score"`
	Residuals     []Residual             `json:"residuals"`
	SeedPresent   bool                   `json:"seed_present"`
}

// Clean reports whether no residuals were found.
func (r *Report) Clean() bool { return len(r.Residuals) == 0 }

// Run re-detects over sanitized text, drops spans whose exact text
// matches a generated pseudonym from the plan, and scores what remains.
func Run(ctx context.Context, sanitized string, entries []plan.Entry, cfg *config.Config, seedPresent bool) (*Report, error) {
	reg, err := detect.NewRegistry()
	if err != nil {
		return nil, err
	}
	spans, _ := reg.RunAll(ctx, sanitized, cfg)
	spans = detect.UpgradeDOB(sanitized, spans)

	generated := map[string]bool{}
	for _, e := range entries {
		generated[e.Replacement] = true
		// Multi-line replacements (address blocks) re-detect line by
		// line.
		for _, line := range strings.Split(e.Replacement, "\n") {
			generated[strings.TrimSpace(line)] = true
		}
	}

	report := &Report{
		CountsByLabel: map[textspan.Label]int{},
		SeedPresent:   seedPresent,
	}
	for _, sp := range spans {
		if generated[sp.Text] || generated[strings.TrimSpace(sp.Text)] {
			continue
		}
		if insideGenerated(sanitized, sp, entries) {
			continue
		}
		report.CountsByLabel[sp.Label]++
		w := labelWeights[sp.Label]
		if w == 0 {
			w = 1
		}
		report.LeakageScore += w
		report.Residuals = append(report.Residuals, Residual{
			Label:   sp.Label,
			Text:    sp.Text,
			Start:   sp.Start,
			End:     sp.End,
			Context: sampleContext(sanitized, sp),
		})
	}
	return report, nil
}

// insideGenerated drops spans that fall wholly inside a replacement's
// final position: the replacement text itself triggering a detector (a
// shifted date, a 555 phone) is expected, not leakage.
func insideGenerated(sanitized string, sp textspan.Span, entries []plan.Entry) bool {
	for _, e := range entries {
		if e.Replacement == "" {
			continue
		}
		idx := 0
		for {
			pos := strings.Index(sanitized[idx:], e.Replacement)
			if pos < 0 {
				break
			}
			start := idx + pos
			end := start + len(e.Replacement)
			if sp.Start >= start && sp.End <= end {
				return true
			}
			idx = end
		}
	}
	return false
}

func sampleContext(text string, sp textspan.Span) string {
	start := sp.Start - contextWindow
	if start < 0 {
		start = 0
	}
	end := sp.End + contextWindow
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
