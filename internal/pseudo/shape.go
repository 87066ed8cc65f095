package pseudo

import (
	"math/rand"
	"strings"
	"unicode"
)

// Casing classes per token.
const (
	caseTitle = "title"
	caseUpper = "upper"
	caseLower = "lower"
	caseMixed = "mixed"
)

func casingClass(tok string) string {
	hasUpper, hasLower := false, false
	for _, r := range tok {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	switch {
	case hasUpper && !hasLower:
		return caseUpper
	case !hasUpper && hasLower:
		return caseLower
	case hasUpper && hasLower:
		first := []rune(tok)[0]
		if unicode.IsUpper(first) {
			return caseTitle
		}
		return caseMixed
	}
	return caseLower
}

func applyCasing(tok, class string) string {
	switch class {
	case caseUpper:
		return strings.ToUpper(tok)
	case caseLower:
		return strings.ToLower(tok)
	case caseTitle:
		lower := strings.ToLower(tok)
		return titleCaseToken(lower)
	}
	return tok
}

// titleCaseToken capitalizes the first letter and any letter following an
// apostrophe or hyphen, matching how names like O'Brien and Smith-Jones
// are written.
func titleCaseToken(tok string) string {
	out := []rune(strings.ToLower(tok))
	capNext := true
	for i, r := range out {
		if capNext && unicode.IsLetter(r) {
			out[i] = unicode.ToUpper(r)
			capNext = false
		}
		if r == '\'' || r == '-' {
			capNext = true
		}
	}
	return string(out)
}

// Signature compacts a mention's visible shape: per-token casing class,
// token length bucket, and punctuation. Two mentions with the same
// signature get the same replacement stream.
func Signature(s string) string {
	var parts []string
	for _, tok := range strings.Fields(s) {
		var b strings.Builder
		b.WriteString(casingClass(tok))
		b.WriteByte(':')
		for _, r := range tok {
			switch {
			case unicode.IsDigit(r):
				b.WriteByte('9')
			case unicode.IsLetter(r):
				b.WriteByte('a')
			default:
				b.WriteRune(r)
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

// replaceCharClasses maps every letter to a random letter and every digit
// to a random digit, preserving punctuation and casing positions.
func replaceCharClasses(s string, rng *rand.Rand) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			out = append(out, rune('0'+rng.Intn(10)))
		case r >= 'a' && r <= 'z':
			out = append(out, rune('a'+rng.Intn(26)))
		case r >= 'A' && r <= 'Z':
			out = append(out, rune('A'+rng.Intn(26)))
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// pickNear chooses a corpus entry whose length is within ±2 of want.
// Falls back to any entry when none qualifies.
func pickNear(options []string, want int, rng *rand.Rand) string {
	var near []string
	for _, o := range options {
		d := len(o) - want
		if d >= -2 && d <= 2 {
			near = append(near, o)
		}
	}
	if len(near) > 0 {
		return near[rng.Intn(len(near))]
	}
	return options[rng.Intn(len(options))]
}
