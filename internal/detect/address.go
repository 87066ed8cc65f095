package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// Line kinds recorded in the line_kind attribute, consumed by the address
// merger and the address pseudonym generator.
const (
	LineKindStreet       = "street"
	LineKindUnit         = "unit"
	LineKindCityStateZip = "city_state_zip"
	LineKindPOBox        = "po_box"
)

// US postal grammar, one pattern per line kind.
var (
	streetLineRx = regexp.MustCompile(
		`^\d{1,6} (?:[NSEW]{1,2} )?[A-Z][A-Za-z.'-]*(?: [A-Z][A-Za-z.'-]*)*` +
			` (?:St|Street|Ave|Avenue|Rd|Road|Blvd|Boulevard|Ln|Lane|Dr|Drive|Ct|Court|Way|Pl|Place|Ter|Terrace|Pkwy|Parkway|Cir|Circle)\.?` +
			`(?: [NSEW]{1,2})?(?:,? (?:Apt|Suite|Ste|Unit|#) ?[A-Za-z0-9-]+)?$`)
	unitLineRx = regexp.MustCompile(`^(?:Apt|Suite|Ste|Unit|#) ?[A-Za-z0-9-]+$`)
	cszLineRx  = regexp.MustCompile(`^[A-Z][A-Za-z.' -]*,? [A-Z]{2},? \d{5}(?:-\d{4})?$`)
	poBoxRx    = regexp.MustCompile(`^(?i)P\.?O\.? Box \d+$`)
)

// AddressLineDetector emits one ADDRESS_LINE span per matching line.
type AddressLineDetector struct{}

func (d *AddressLineDetector) Name() string { return "address" }

func (d *AddressLineDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	var spans []textspan.Span
	offset := 0
	for _, rawLine := range strings.SplitAfter(text, "\n") {
		line := strings.TrimRight(rawLine, "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			kind := classifyAddressLine(trimmed)
			if kind != "" {
				left := len(line) - len(strings.TrimLeft(line, " \t"))
				start := offset + left
				end := start + len(trimmed)
				spans = append(spans, textspan.Span{
					Start:      start,
					End:        end,
					Text:       trimmed,
					Label:      textspan.LabelAddressLine,
					Source:     d.Name(),
					Confidence: 0.95,
					Attrs:      map[string]string{textspan.AttrLineKind: kind},
				})
			}
		}
		offset += len(rawLine)
	}
	return spans, nil
}

func classifyAddressLine(line string) string {
	switch {
	case poBoxRx.MatchString(line):
		return LineKindPOBox
	case streetLineRx.MatchString(line):
		return LineKindStreet
	case unitLineRx.MatchString(line):
		return LineKindUnit
	case cszLineRx.MatchString(line):
		return LineKindCityStateZip
	}
	return ""
}
