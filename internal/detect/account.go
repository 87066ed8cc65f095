package detect

import (
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// Subtype regexes, tried in precedence order iban > bic > aba > cc > ssn >
// ein > generic. Overlaps between subtypes are resolved locally so one
// number is reported once.
var (
	ibanRx = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}(?: ?[A-Z0-9]{1,4}){2,}\b`)
	bicRx  = regexp.MustCompile(`\b[A-Za-z]{4}[A-Za-z]{2}[A-Za-z0-9]{2}(?:[A-Za-z0-9]{3})?\b`)
	abaRx  = regexp.MustCompile(`\b[0-9]{9}\b`)
	ccRx   = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
	ssnRx  = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	einRx  = regexp.MustCompile(`\b\d{2}-\d{7}\b`)

	genericHintRx = regexp.MustCompile(
		`(?i)\b(?:acct|account|a/c|iban|ref|reference)[:\s#]+([A-Za-z0-9][A-Za-z0-9 -]{4,})`)
)

var routingKeywords = []string{"routing number", "routing", "aba"}

var ccSchemes = []struct {
	name string
	rx   *regexp.Regexp
}{
	{"visa", regexp.MustCompile(`^4`)},
	{"mastercard", regexp.MustCompile(`^(5[1-5]|222[1-9]|22[3-9]\d|2[3-6]\d{2}|27[01]\d|2720)`)},
	{"amex", regexp.MustCompile(`^3[47]`)},
	{"discover", regexp.MustCompile(`^(6011|65|64[4-9])`)},
	{"jcb", regexp.MustCompile(`^35`)},
	{"diners", regexp.MustCompile(`^(36|38)`)},
}

var subtypePriority = map[string]int{
	textspan.SubtypeIBAN:    7,
	textspan.SubtypeBIC:     6,
	textspan.SubtypeABA:     5,
	textspan.SubtypeCC:      4,
	textspan.SubtypeSSN:     3,
	textspan.SubtypeEIN:     2,
	textspan.SubtypeGeneric: 1,
}

// ibanLengths maps ISO 3166 country codes to the total IBAN length per
// the ISO 13616 registry (common subset).
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28, "BA": 20, "BE": 16,
	"BG": 22, "BH": 22, "BR": 29, "CH": 21, "CR": 22, "CY": 28, "CZ": 24,
	"DE": 22, "DK": 18, "DO": 28, "EE": 20, "ES": 24, "FI": 18, "FO": 18,
	"FR": 27, "GB": 22, "GE": 22, "GI": 23, "GL": 18, "GR": 27, "GT": 28,
	"HR": 21, "HU": 28, "IE": 22, "IL": 23, "IS": 26, "IT": 27, "JO": 30,
	"KW": 30, "KZ": 20, "LB": 28, "LI": 21, "LT": 20, "LU": 20, "LV": 21,
	"MC": 27, "MD": 24, "ME": 22, "MK": 19, "MT": 31, "MU": 30, "NL": 18,
	"NO": 15, "PK": 24, "PL": 28, "PS": 29, "PT": 25, "QA": 29, "RO": 24,
	"RS": 22, "SA": 24, "SE": 24, "SI": 19, "SK": 24, "SM": 27, "TN": 24,
	"TR": 26, "UA": 29, "VG": 24, "XK": 20,
}

// AccountIDDetector finds financial and identification numbers.
type AccountIDDetector struct{}

func (d *AccountIDDetector) Name() string { return "account_ids" }

type accountCandidate struct {
	span    textspan.Span
	subtype string
}

func (d *AccountIDDetector) Detect(text string, cfg *config.Config) ([]textspan.Span, error) {
	var cands []accountCandidate

	add := func(start, end int, subtype string, confidence float64, attrs map[string]string) {
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrs[textspan.AttrSubtype] = subtype
		cands = append(cands, accountCandidate{
			span: textspan.Span{
				Start:      start,
				End:        end,
				Text:       text[start:end],
				Label:      textspan.LabelAccountID,
				Source:     d.Name(),
				Confidence: confidence,
				Attrs:      attrs,
			},
			subtype: subtype,
		})
	}

	// IBAN
	for _, loc := range ibanRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], textspan.RTrimIndex(text, loc[1])
		compact := strings.ToUpper(strings.ReplaceAll(text[start:end], " ", ""))
		if !ValidIBANLength(compact) || !ValidIBANChecksum(compact) {
			continue
		}
		add(start, end, textspan.SubtypeIBAN, 0.99, map[string]string{
			"normalized":               compact,
			textspan.AttrIssuerCountry: compact[:2],
		})
	}

	// SWIFT/BIC. Candidates must already be uppercase in the source:
	// prose words of the right length are not BICs.
	for _, loc := range bicRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], textspan.RTrimIndex(text, loc[1])
		raw := text[start:end]
		cand := strings.ToUpper(raw)
		if raw != cand || !ValidBIC(cand) {
			continue
		}
		add(start, end, textspan.SubtypeBIC, 0.99, map[string]string{
			"normalized":               cand,
			textspan.AttrIssuerCountry: cand[4:6],
		})
	}

	// ABA routing numbers need a nearby keyword on the same line.
	for _, loc := range abaRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		lineStart := strings.LastIndexByte(text[:start], '\n') + 1
		ctxStart := max(lineStart, start-40)
		snippet := strings.ToLower(text[ctxStart:start])
		found := false
		for _, kw := range routingKeywords {
			if strings.Contains(snippet, kw) {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		raw := text[start:end]
		if !ValidABA(raw) {
			continue
		}
		add(start, end, textspan.SubtypeABA, 0.99, map[string]string{
			"normalized":               raw,
			textspan.AttrIssuerCountry: "US",
		})
	}

	// Credit/debit cards
	for _, loc := range ccRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], textspan.RTrimIndex(text, loc[1])
		raw := text[start:end]
		digits := stripNonDigits(raw)
		if len(digits) < 13 || len(digits) > 19 || !ValidLuhn(digits) {
			continue
		}
		scheme := ""
		for _, s := range ccSchemes {
			if s.rx.MatchString(digits) {
				scheme = s.name
				break
			}
		}
		if scheme == "" {
			continue
		}
		add(start, end, textspan.SubtypeCC, 0.99, map[string]string{
			"normalized":        digits,
			textspan.AttrScheme: scheme,
		})
	}

	// SSN
	for _, loc := range ssnRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if strings.Contains(text[max(0, start-3):start], "§") {
			continue
		}
		digits := strings.ReplaceAll(text[start:end], "-", "")
		if !ValidSSN(digits) {
			continue
		}
		add(start, end, textspan.SubtypeSSN, 0.99, map[string]string{
			"normalized":               digits,
			textspan.AttrIssuerCountry: "US",
		})
	}

	// EIN
	for _, loc := range einRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		digits := strings.ReplaceAll(text[start:end], "-", "")
		add(start, end, textspan.SubtypeEIN, 0.99, map[string]string{
			"normalized":               digits,
			textspan.AttrIssuerCountry: "US",
		})
	}

	// Keyword-anchored generic account numbers.
	if cfg == nil || cfg.GenericAccounts {
		for _, m := range genericHintRx.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], textspan.RTrimIndex(text, m[3])
			raw := text[start:end]
			compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(raw))
			digitCount := 0
			for _, ch := range compact {
				if ch >= '0' && ch <= '9' {
					digitCount++
				}
			}
			if digitCount < 6 || len(compact) > 34 {
				continue
			}
			add(start, end, textspan.SubtypeGeneric, 0.9, map[string]string{
				"normalized": compact,
			})
		}
	}

	return resolveSubtypeOverlaps(cands), nil
}

// resolveSubtypeOverlaps keeps the highest-priority candidate for every
// overlapping group, higher subtype priority first, then earlier start.
func resolveSubtypeOverlaps(cands []accountCandidate) []textspan.Span {
	sort.SliceStable(cands, func(i, j int) bool {
		pi, pj := subtypePriority[cands[i].subtype], subtypePriority[cands[j].subtype]
		if pi != pj {
			return pi > pj
		}
		if cands[i].span.Start != cands[j].span.Start {
			return cands[i].span.Start < cands[j].span.Start
		}
		return cands[i].span.End < cands[j].span.End
	})
	var final []textspan.Span
	for _, c := range cands {
		conflict := false
		for _, kept := range final {
			if c.span.Overlaps(kept) {
				conflict = true
				break
			}
		}
		if !conflict {
			final = append(final, c.span)
		}
	}
	sort.Slice(final, func(i, j int) bool { return final[i].Start < final[j].Start })
	return final
}

// ValidLuhn checks whether a digit string passes the Luhn algorithm
// (ISO/IEC 7812).
func ValidLuhn(number string) bool {
	n := len(number)
	if n < 2 {
		return false
	}
	sum := 0
	alt := false
	for i := n - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

// ValidABA verifies the ABA routing checksum:
// 3(d1+d4+d7) + 7(d2+d5+d8) + (d3+d6+d9) ≡ 0 (mod 10).
func ValidABA(num string) bool {
	if len(num) != 9 {
		return false
	}
	var d [9]int
	for i := 0; i < 9; i++ {
		c := num[i]
		if c < '0' || c > '9' {
			return false
		}
		d[i] = int(c - '0')
	}
	sum := 3*(d[0]+d[3]+d[6]) + 7*(d[1]+d[4]+d[7]) + (d[2] + d[5] + d[8])
	return sum%10 == 0
}

// ValidIBANChecksum verifies the MOD-97 check digits per ISO 13616: the
// country and check digits move to the end, letters become two-digit
// values (A=10..Z=35), and the resulting number mod 97 must equal 1.
func ValidIBANChecksum(iban string) bool {
	if len(iban) < 5 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	var numStr strings.Builder
	for _, ch := range rearranged {
		switch {
		case ch >= '0' && ch <= '9':
			numStr.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			numStr.WriteString(bigTwoDigit(ch))
		default:
			return false
		}
	}
	n := new(big.Int)
	if _, ok := n.SetString(numStr.String(), 10); !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

func bigTwoDigit(ch rune) string {
	v := int(ch-'A') + 10
	return string([]byte{byte('0' + v/10), byte('0' + v%10)})
}

// ValidIBANLength checks the country-specific total length.
func ValidIBANLength(iban string) bool {
	if len(iban) < 2 {
		return false
	}
	expected, ok := ibanLengths[iban[:2]]
	return ok && len(iban) == expected
}

// ValidBIC checks an 8- or 11-character BIC: four letters, then a valid
// two-letter country code position, then alphanumerics.
func ValidBIC(bic string) bool {
	if len(bic) != 8 && len(bic) != 11 {
		return false
	}
	for i := 0; i < 6; i++ {
		if bic[i] < 'A' || bic[i] > 'Z' {
			return false
		}
	}
	if !validBICCountry(bic[4:6]) {
		return false
	}
	for i := 6; i < len(bic); i++ {
		c := bic[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// bicCountries lists ISO 3166 alpha-2 codes accepted at the BIC country
// position beyond the IBAN registry (major non-IBAN banking countries).
var bicCountries = map[string]bool{
	"US": true, "CA": true, "MX": true, "AU": true, "NZ": true, "JP": true,
	"CN": true, "HK": true, "SG": true, "KR": true, "IN": true, "ZA": true,
	"AR": true, "CL": true, "CO": true, "PE": true, "RU": true, "TH": true,
	"MY": true, "ID": true, "PH": true, "VN": true, "TW": true, "EG": true,
	"NG": true, "KE": true,
}

func validBICCountry(cc string) bool {
	if _, ok := ibanLengths[cc]; ok {
		return true
	}
	return bicCountries[cc]
}

// ValidSSN rejects forbidden area prefixes (000, 666, 9xx), zero group,
// and zero serial.
func ValidSSN(digits string) bool {
	if len(digits) != 9 {
		return false
	}
	for i := 0; i < 9; i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	area, group, serial := digits[:3], digits[3:5], digits[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}
