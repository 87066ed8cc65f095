package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlainASCIIUnchanged(t *testing.T) {
	in := "John Doe\nsigned on 1/2/2020."
	res := Normalize(in)
	assert.Equal(t, in, res.Text)
	assert.False(t, res.Changed)
	require.Len(t, res.CharMap, len(res.Text))
	for i, off := range res.CharMap {
		assert.Equal(t, i, off)
	}
}

func TestNormalizeNBSP(t *testing.T) {
	res := Normalize("A\u00a0B")
	assert.Equal(t, "A B", res.Text)
	assert.Equal(t, []int{0, 1, 3}, res.CharMap)
	assert.True(t, res.Changed)
}

func TestNormalizeZeroWidthRemoved(t *testing.T) {
	res := Normalize("Jo\u200bhn")
	assert.Equal(t, "John", res.Text)
	require.Len(t, res.CharMap, 4)
}

func TestNormalizeSmartQuotes(t *testing.T) {
	res := Normalize("\u201cBuyer\u201d and \u2018Seller\u2019")
	assert.Equal(t, `"Buyer" and 'Seller'`, res.Text)
}

func TestNormalizeDashVariants(t *testing.T) {
	res := Normalize("pages 3\u20135")
	assert.Equal(t, "pages 3-5", res.Text)
}

func TestNormalizeDehyphenation(t *testing.T) {
	res := Normalize("agree-\nment")
	assert.Equal(t, "agreement", res.Text)

	res = Normalize("agree-\r\nment")
	assert.Equal(t, "agreement", res.Text)

	// A hyphen before a newline followed by a digit is kept.
	res = Normalize("part-\n3")
	assert.Equal(t, "part-\n3", res.Text)
}

func TestNormalizeNFC(t *testing.T) {
	// e + combining acute composes to a single rune.
	res := Normalize("José")
	assert.Equal(t, "José", res.Text)
	require.Len(t, res.CharMap, len(res.Text))
}

func TestCharMapNonDecreasing(t *testing.T) {
	in := "Café menu — “quoted”​ text agree-\nment"
	res := Normalize(in)
	require.Len(t, res.CharMap, len(res.Text))
	prev := -1
	for _, off := range res.CharMap {
		assert.GreaterOrEqual(t, off, prev)
		prev = off
	}
	assert.Less(t, prev, len(in))
}

func TestNormalizePreservesLineBreaks(t *testing.T) {
	in := "line one\nline two\r\nline three"
	res := Normalize(in)
	assert.Equal(t, in, res.Text)
	assert.Equal(t, 2, strings.Count(res.Text, "\n"))
}
