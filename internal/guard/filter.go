package guard

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/textspan"
)

var romanHeadingRx = regexp.MustCompile(`^[IVXLCDM]+\.\s+(?:[A-Z][a-z]+\s+){0,7}[A-Z][a-z]+:?$`)

// HeadingRange is a character range covering a legal heading line.
type HeadingRange struct {
	Start int
	End   int
}

func isTitleToken(tok string) bool {
	base := strings.Trim(tok, ".:;,'\"-")
	if base == "" {
		return false
	}
	first := base[0]
	rest := base[1:]
	if first < 'A' || first > 'Z' {
		return false
	}
	return rest == strings.ToLower(rest)
}

// FindHeadingRanges returns ranges for common legal heading patterns:
// short Title Case lines, roman-numeral headings, and short ALL-CAPS
// lines.
func FindHeadingRanges(text string) []HeadingRange {
	var ranges []HeadingRange
	offset := 0
	for _, rawLine := range strings.SplitAfter(text, "\n") {
		end := offset + len(rawLine)
		stripped := strings.TrimSpace(rawLine)
		if stripped == "" {
			offset = end
			continue
		}
		tokens := strings.Fields(stripped)
		n := len(tokens)
		switch {
		case n >= 2 && n <= 6 && allTitle(tokens):
			ranges = append(ranges, HeadingRange{offset, end})
		case romanHeadingRx.MatchString(stripped):
			ranges = append(ranges, HeadingRange{offset, end})
		case n >= 2 && n <= 6 && stripped == strings.ToUpper(stripped) && strings.ToUpper(stripped) != strings.ToLower(stripped):
			ranges = append(ranges, HeadingRange{offset, end})
		}
		offset = end
	}
	return ranges
}

func allTitle(tokens []string) bool {
	for _, t := range tokens {
		if !isTitleToken(t) {
			return false
		}
	}
	return true
}

// FilterSpans applies the span-level guards: name-like spans wholly
// inside protected headings are dropped, and LOCATION spans outside
// address blocks are dropped unless configured otherwise. Contact and
// identifier labels are exempt from both rules.
func FilterSpans(spans []textspan.Span, headings []HeadingRange, protectHeadings, keepOutsideLocations bool) []textspan.Span {
	var addrBlocks []textspan.Span
	for _, sp := range spans {
		if sp.Label == textspan.LabelAddressBlock {
			addrBlocks = append(addrBlocks, sp)
		}
	}

	protected := map[textspan.Label]bool{
		textspan.LabelPerson:     true,
		textspan.LabelGenericOrg: true,
		textspan.LabelBankOrg:    true,
		textspan.LabelLocation:   true,
		textspan.LabelAliasLabel: true,
	}
	exempt := map[textspan.Label]bool{
		textspan.LabelAddressBlock: true,
		textspan.LabelAddressLine:  true,
		textspan.LabelDOB:          true,
		textspan.LabelDateGeneric:  true,
		textspan.LabelEmail:        true,
		textspan.LabelPhone:        true,
		textspan.LabelAccountID:    true,
	}

	var out []textspan.Span
	for _, sp := range spans {
		if exempt[sp.Label] {
			out = append(out, sp)
			continue
		}
		if protectHeadings && protected[sp.Label] && insideAnyHeading(sp, headings) {
			continue
		}
		if sp.Label == textspan.LabelLocation && !keepOutsideLocations && !overlapsAnyBlock(sp, addrBlocks) {
			continue
		}
		out = append(out, sp)
	}
	return out
}

func insideAnyHeading(sp textspan.Span, headings []HeadingRange) bool {
	for _, h := range headings {
		if sp.Start >= h.Start && sp.End <= h.End {
			return true
		}
	}
	return false
}

func overlapsAnyBlock(sp textspan.Span, blocks []textspan.Span) bool {
	for _, b := range blocks {
		if sp.Overlaps(b) {
			return true
		}
	}
	return false
}
