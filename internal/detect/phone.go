package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// Phone patterns: NANP with common punctuation, and E.164.
var (
	nanpRx = regexp.MustCompile(
		`(?:\+?1[-. ]?)?(?:\(\d{3}\)[-. ]?|\d{3}[-. ])\d{3}[-. ]?\d{4}\b`)
	e164Rx = regexp.MustCompile(`\+[1-9]\d{6,14}\b`)

	noPrefixRx = regexp.MustCompile(`(?i)No\.\s*$`)
)

// PhoneDetector finds NANP and E.164 phone numbers.
type PhoneDetector struct{}

func (d *PhoneDetector) Name() string { return "phone" }

func (d *PhoneDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	seen := map[[2]int]bool{}
	var spans []textspan.Span

	emit := func(start, end int) {
		end = textspan.RTrimIndex(text, end)
		raw := text[start:end]
		if strings.Contains(raw, "@") {
			return
		}
		// Legal section references and "No. 12345" style citations are
		// not phone numbers.
		before := text[max(0, start-5):start]
		if strings.Contains(before, "§") || noPrefixRx.MatchString(before) {
			return
		}
		digits := stripNonDigits(raw)
		if len(digits) < 7 || allSameDigit(digits) {
			return
		}
		key := [2]int{start, end}
		if seen[key] {
			return
		}
		seen[key] = true
		spans = append(spans, textspan.Span{
			Start:      start,
			End:        end,
			Text:       raw,
			Label:      textspan.LabelPhone,
			Source:     d.Name(),
			Confidence: 0.98,
			Attrs: map[string]string{
				"digits":   digits,
				"had_plus": boolAttr(strings.HasPrefix(strings.TrimSpace(raw), "+")),
			},
		})
	}

	for _, loc := range nanpRx.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1])
	}
	for _, loc := range e164Rx.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1])
	}

	textspan.SortSpans(spans)
	return spans, nil
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return len(digits) > 0
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func boolAttr(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
