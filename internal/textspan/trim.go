package textspan

import "strings"

// RightTrimChars are trailing punctuation characters that belong to prose,
// not to the matched entity. Normalization has already folded curly quotes
// to ASCII, so the set is ASCII-only and byte indexing is safe.
const RightTrimChars = ")]};:,.!?>\"'"

// RTrimIndex moves end left past trailing punctuation in RightTrimChars.
func RTrimIndex(text string, end int) int {
	for end > 0 && strings.ContainsRune(RightTrimChars, rune(text[end-1])) {
		end--
	}
	return end
}
