package pseudo

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

var (
	unitLabelRx = regexp.MustCompile(`(?i)\b(?:Apt|Suite|Ste|Unit|#)\b`)
	poBoxLineRx = regexp.MustCompile(`(?i)\bP\.?O\.?\s*Box\b`)
	cszHintRx   = regexp.MustCompile(`,\s*[A-Z]{2}`)
	houseNumRx  = regexp.MustCompile(`^\d{1,6}`)
	zipRx       = regexp.MustCompile(`\d{5}(-\d{4})?$`)
	dirRx       = regexp.MustCompile(`^[NSEW]{1,2}$`)
)

// StreetLineLike regenerates a street line: house number within ±50% of
// the original magnitude with the same digit count, street name from the
// fixture list, directionals and unit part preserved structurally.
func (g *Generator) StreetLineLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "addr-street:"+Signature(source), retry)

	unitIdx := unitLabelRx.FindStringIndex(source)
	core := source
	unitPart := ""
	if unitIdx != nil {
		core = strings.TrimRight(strings.TrimSuffix(source[:unitIdx[0]], ", "), " ,")
		unitPart = source[unitIdx[0]:]
	}

	fields := strings.Fields(core)
	if len(fields) == 0 {
		return source
	}

	number := fields[0]
	rest := fields[1:]
	preDir, postDir := "", ""
	if len(rest) > 0 && dirRx.MatchString(rest[0]) {
		preDir = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && dirRx.MatchString(rest[len(rest)-1]) {
		postDir = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	suffix := ""
	if len(rest) > 0 {
		suffix = rest[len(rest)-1]
	}

	newNumber := shiftHouseNumber(number, rng)
	street := g.streetNames[rng.Intn(len(g.streetNames))]
	newSuffix := suffix
	if newSuffix == "" {
		newSuffix = g.lex.StreetSuffixes[rng.Intn(len(g.lex.StreetSuffixes))]
	}

	var parts []string
	parts = append(parts, newNumber)
	if preDir != "" {
		parts = append(parts, preDir)
	}
	parts = append(parts, street, newSuffix)
	if postDir != "" {
		parts = append(parts, postDir)
	}
	out := strings.Join(parts, " ")
	if unitPart != "" {
		sep := " "
		if strings.HasSuffix(strings.TrimSpace(source[:unitIdx[0]]), ",") {
			sep = ", "
		}
		out += sep + g.unitIdent(unitPart, rng)
	}
	return out
}

// shiftHouseNumber keeps the digit count while moving the value within
// ±50% of the original magnitude.
func shiftHouseNumber(number string, rng *rand.Rand) string {
	m := houseNumRx.FindString(number)
	if m == "" {
		return number
	}
	orig := 0
	for _, ch := range m {
		orig = orig*10 + int(ch-'0')
	}
	lo := orig - orig/2
	hi := orig + orig/2
	minBound, maxBound := pow10(len(m)-1), pow10(len(m))-1
	if len(m) == 1 {
		minBound = 1
	}
	if lo < minBound {
		lo = minBound
	}
	if hi > maxBound {
		hi = maxBound
	}
	v := lo
	if hi > lo {
		v = lo + rng.Intn(hi-lo+1)
	}
	return fmt.Sprintf("%d", v)
}

func pow10(n int) int {
	out := 1
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}

// unitIdent re-rolls the identifier after a unit label.
func (g *Generator) unitIdent(unitPart string, rng *rand.Rand) string {
	m := unitLabelRx.FindStringIndex(unitPart)
	if m == nil {
		return replaceCharClasses(unitPart, rng)
	}
	label := unitPart[m[0]:m[1]]
	ident := unitPart[m[1]:]
	return label + replaceCharClasses(ident, rng)
}

// UnitLineLike regenerates a standalone unit line.
func (g *Generator) UnitLineLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "addr-unit:"+Signature(source), retry)
	return g.unitIdent(source, rng)
}

// CityStateZipLike regenerates a city/state/ZIP line, preserving the ZIP
// digit count (five or nine) and the punctuation layout.
func (g *Generator) CityStateZipLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "addr-csz:"+Signature(source), retry)
	city := g.cityNames[rng.Intn(len(g.cityNames))]
	state := g.lex.StateCodes[rng.Intn(len(g.lex.StateCodes))]

	zip := zipRx.FindString(source)
	newZip := ""
	if zip != "" {
		newZip = replaceCharClasses(zip, rng)
	}
	out := city + ", " + state
	if newZip != "" {
		out += " " + newZip
	}
	return out
}

// POBoxLike regenerates a PO Box line preserving the label style.
func (g *Generator) POBoxLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "addr-pobox:"+Signature(source), retry)
	m := poBoxLineRx.FindStringIndex(source)
	if m == nil {
		return replaceCharClasses(source, rng)
	}
	label := source[m[0]:m[1]]
	num := rng.Intn(99900) + 100
	return fmt.Sprintf("%s %d", label, num)
}

// AddressBlockLike pseudonymizes a block line by line, classifying each
// line when the detector did not record its kind.
func (g *Generator) AddressBlockLike(source string, clusterKey []byte, retry int) string {
	lines := strings.Split(source, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		key := append([]byte{}, clusterKey...)
		key = append(key, byte(i))
		switch {
		case strings.TrimSpace(trimmed) == "":
			out[i] = line
			continue
		case poBoxLineRx.MatchString(trimmed):
			out[i] = g.POBoxLike(trimmed, key, retry)
		case unitLabelRx.MatchString(trimmed) && !houseNumRx.MatchString(strings.TrimSpace(trimmed)):
			out[i] = g.UnitLineLike(trimmed, key, retry)
		case cszHintRx.MatchString(trimmed):
			out[i] = g.CityStateZipLike(trimmed, key, retry)
		default:
			out[i] = g.StreetLineLike(trimmed, key, retry)
		}
		if strings.HasSuffix(line, "\r") {
			out[i] += "\r"
		}
	}
	return strings.Join(out, "\n")
}
