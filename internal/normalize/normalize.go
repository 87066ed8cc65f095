// Package normalize prepares raw document text for detection.
//
// Normalization applies a fixed sequence of conservative transforms: NFC
// composition, zero-width and soft-hyphen removal, Unicode-space and smart
// quote folding, and de-hyphenation of wrapped lines. Line breaks are
// preserved except where consumed by de-hyphenation.
//
// The returned CharMap maps every byte of the normalized text back to the
// byte offset in the original input that produced it, so audit entries can
// report original offsets while all detection runs on normalized text.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Result holds normalized text and its offset map. CharMap is
// non-decreasing and len(CharMap) == len(Text).
type Result struct {
	Text    string
	CharMap []int
	Changed bool
}

var dropped = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\ufeff': true, // zero width no-break space
	'\u00ad': true, // soft hyphen
}

var asciiFold = map[rune]rune{
	'\u201c': '"',  // left double quote
	'\u201d': '"',  // right double quote
	'\u2018': '\'', // left single quote
	'\u2019': '\'', // right single quote
	'\u2010': '-',  // hyphen
	'\u2011': '-',  // non-breaking hyphen
	'\u2012': '-',  // figure dash
	'\u2013': '-',  // en dash
	'\u2014': '-',  // em dash
}

// foldToSpace reports whether r is a Unicode space that should become a
// plain ASCII space. Tabs and line breaks pass through untouched.
func foldToSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return false
	}
	return unicode.IsSpace(r)
}

// Normalize applies the transform sequence and builds the char map.
func Normalize(text string) Result {
	// Pass 1: NFC composition segment by segment, every output byte
	// mapped to the start of the source segment.
	var composed strings.Builder
	composed.Grow(len(text))
	var m []int

	var it norm.Iter
	it.InitString(norm.NFC, text)
	for !it.Done() {
		pos := it.Pos()
		seg := it.Next()
		for range seg {
			m = append(m, pos)
		}
		composed.Write(seg)
	}

	// Pass 2: rune-level folding and removal.
	var out strings.Builder
	out.Grow(composed.Len())
	var outMap []int
	for i, r := range composed.String() {
		orig := m[i]
		switch {
		case dropped[r]:
			continue
		case foldToSpace(r):
			out.WriteByte(' ')
			outMap = append(outMap, orig)
		default:
			if folded, ok := asciiFold[r]; ok {
				r = folded
			}
			n := out.Len()
			out.WriteRune(r)
			for j := n; j < out.Len(); j++ {
				outMap = append(outMap, orig)
			}
		}
	}

	// Pass 3: de-hyphenate wrapped lines (letter '-' newline letter).
	final, finalMap := dehyphenate(out.String(), outMap)

	return Result{Text: final, CharMap: finalMap, Changed: final != text}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func dehyphenate(s string, m []int) (string, []int) {
	var out strings.Builder
	out.Grow(len(s))
	outMap := make([]int, 0, len(m))
	i := 0
	for i < len(s) {
		if isASCIILetter(s[i]) && i+2 < len(s) && s[i+1] == '-' {
			next := -1
			if s[i+2] == '\n' {
				next = i + 3
			} else if s[i+2] == '\r' && i+3 < len(s) && s[i+3] == '\n' {
				next = i + 4
			}
			if next >= 0 && next < len(s) && isASCIILetter(s[next]) {
				out.WriteByte(s[i])
				outMap = append(outMap, m[i])
				out.WriteByte(s[next])
				outMap = append(outMap, m[next])
				i = next + 1
				continue
			}
		}
		out.WriteByte(s[i])
		outMap = append(outMap, m[i])
		i++
	}
	return out.String(), outMap
}
