// Package guard validates generated replacements before they enter the
// plan and applies span-level safety filters (heading protection,
// locations outside addresses).
package guard

import (
	"strings"

	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/textspan"
)

// MaxRetries is how many times the planner re-invokes the generator with
// a fresh retry salt before falling back or failing.
const MaxRetries = 2

// realIssuerPrefixes are card IIN ranges assigned to real networks. A
// generated card number must not begin with any of them.
var realIssuerPrefixes = []string{"34", "37", "35", "36", "38", "4", "51",
	"52", "53", "54", "55", "6011", "65"}

var safeDomains = map[string]bool{
	"example.org": true,
	"example.com": true,
	"example.net": true,
}

// Guard checks candidates against the safety rules.
type Guard struct {
	sensitive map[string]bool
}

// New builds a guard from the configured sensitive-values list.
func New(sensitiveValues []string) *Guard {
	m := make(map[string]bool, len(sensitiveValues))
	for _, v := range sensitiveValues {
		m[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return &Guard{sensitive: m}
}

// Check validates a candidate replacement for a span. The returned
// reason is empty when the candidate is acceptable.
func (g *Guard) Check(sp textspan.Span, candidate string) (ok bool, reason string) {
	if strings.EqualFold(candidate, sp.Text) {
		return false, "equals original"
	}
	if g.sensitive[strings.ToLower(strings.TrimSpace(candidate))] {
		return false, "matches sensitive value"
	}

	switch sp.Label {
	case textspan.LabelEmail:
		at := strings.LastIndexByte(candidate, '@')
		if at < 0 || !safeDomains[strings.ToLower(candidate[at+1:])] {
			return false, "email domain outside safe set"
		}
	case textspan.LabelPhone:
		if areaCode(candidate) != "555" {
			return false, "phone area code outside 555 family"
		}
	case textspan.LabelAccountID:
		if r := g.checkAccount(sp, candidate); r != "" {
			return false, r
		}
	}

	if numericLabel(sp.Label) {
		if !firstHalfDiffers(sp.Text, candidate) {
			return false, "first half identical to original"
		}
	}
	return true, ""
}

func (g *Guard) checkAccount(sp textspan.Span, candidate string) string {
	digits := digitsOf(candidate)
	switch sp.Attr(textspan.AttrSubtype) {
	case textspan.SubtypeCC:
		if !detect.ValidLuhn(digits) {
			return "card checksum invalid"
		}
		for _, p := range realIssuerPrefixes {
			if strings.HasPrefix(digits, p) {
				return "card prefix matches real issuer"
			}
		}
	case textspan.SubtypeABA:
		if !detect.ValidABA(digits) {
			return "routing checksum invalid"
		}
	case textspan.SubtypeIBAN:
		compact := strings.ToUpper(strings.ReplaceAll(candidate, " ", ""))
		if !detect.ValidIBANChecksum(compact) {
			return "iban checksum invalid"
		}
		orig := strings.ToUpper(strings.ReplaceAll(sp.Text, " ", ""))
		if len(compact) >= 8 && len(orig) >= 8 && compact[4:8] == orig[4:8] {
			return "iban issuer prefix unchanged"
		}
	case textspan.SubtypeSSN:
		if !detect.ValidSSN(digits) {
			return "ssn syntactically invalid"
		}
	}
	return ""
}

// numericLabel reports whether the label's values are digit-bearing IDs
// subject to the first-half rule. Phones are governed by the area-code
// rule instead: a source number already in the 555 range would otherwise
// never find a valid replacement.
func numericLabel(label textspan.Label) bool {
	return label == textspan.LabelAccountID
}

// firstHalfDiffers requires at least one differing digit in the first
// half of the digit sequence.
func firstHalfDiffers(original, candidate string) bool {
	a, b := digitsOf(original), digitsOf(candidate)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	half := n / 2
	if half == 0 {
		return a != b
	}
	for i := 0; i < half; i++ {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

// areaCode extracts the NANP area code from a candidate's digits.
func areaCode(candidate string) string {
	d := digitsOf(candidate)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) < 3 {
		return ""
	}
	return d[:3]
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
