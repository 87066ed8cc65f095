package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/textspan"
)

func span(start, end int, label textspan.Label, source string, conf float64, text string) textspan.Span {
	return textspan.Span{
		Start: start, End: end, Text: text[start:end],
		Label: label, Source: source, Confidence: conf,
	}
}

func TestMergeDisjointPassThrough(t *testing.T) {
	text := "mail a@b.org call 555-0100 ok"
	spans := []textspan.Span{
		span(5, 12, textspan.LabelEmail, "email", 0.99, text),
		span(18, 26, textspan.LabelPhone, "phone", 0.98, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 2)
	assert.Equal(t, spans[0], out[0])
	assert.Equal(t, spans[1], out[1])
}

func TestMergeIdenticalRanges(t *testing.T) {
	text := "John Doe signed"
	spans := []textspan.Span{
		span(0, 8, textspan.LabelPerson, "person", 0.8, text),
		span(0, 8, textspan.LabelPerson, "ner", 0.9, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 1)
	assert.Equal(t, "ner", out[0].Source)
}

func TestMergeAddressBlockBeatsLines(t *testing.T) {
	text := "123 Main St\nSpringfield, IL 62704"
	spans := []textspan.Span{
		span(0, 11, textspan.LabelAddressLine, "address", 0.95, text),
		span(12, 33, textspan.LabelAddressLine, "address", 0.95, text),
		span(0, 33, textspan.LabelAddressBlock, "address_block_merge", 0.96, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 1)
	assert.Equal(t, textspan.LabelAddressBlock, out[0].Label)
}

func TestMergeAccountBeatsPhone(t *testing.T) {
	text := "routing 021000021"
	spans := []textspan.Span{
		span(8, 17, textspan.LabelAccountID, "account_ids", 0.99, text),
		span(8, 17, textspan.LabelPhone, "phone", 0.98, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 1)
	assert.Equal(t, textspan.LabelAccountID, out[0].Label)
}

func TestMergeLongerWinsWithinTier(t *testing.T) {
	text := "John Jacob Astor arrived"
	spans := []textspan.Span{
		span(0, 16, textspan.LabelPerson, "person", 0.7, text),
		span(0, 10, textspan.LabelPerson, "ner", 0.95, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 1)
	assert.Equal(t, "John Jacob Astor", out[0].Text)
}

func TestMergeTruncationDrop(t *testing.T) {
	// The bank org partially overlaps the person; the person remainder
	// is a single token and is dropped.
	text := "Morgan Chase Bank"
	spans := []textspan.Span{
		span(0, 12, textspan.LabelPerson, "person", 0.7, text),
		span(7, 17, textspan.LabelBankOrg, "bank_org", 0.93, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 1)
	assert.Equal(t, textspan.LabelBankOrg, out[0].Label)
}

func TestMergeTruncationKeep(t *testing.T) {
	// A person span partially overlapped by a stronger alias keeps its
	// valid two-token remainder.
	text := `Mary Jane Watson "MJ"`
	spans := []textspan.Span{
		span(0, 16, textspan.LabelPerson, "person", 0.8, text),
		span(10, 21, textspan.LabelAliasLabel, "aliases", 0.97, text),
	}
	out := Merge(text, spans)
	require.Len(t, out, 2)
	assert.Equal(t, textspan.LabelAliasLabel, out[1].Label)
	assert.Equal(t, "Mary Jane", out[0].Text)
}

func TestMergeDeterministic(t *testing.T) {
	text := "overlap overlap overlap"
	spans := []textspan.Span{
		span(0, 15, textspan.LabelPerson, "ner", 0.8, text),
		span(8, 23, textspan.LabelGenericOrg, "bank_org", 0.8, text),
	}
	first := Merge(text, spans)
	for i := 0; i < 10; i++ {
		// Reversed input order must not change the result.
		rev := []textspan.Span{spans[1], spans[0]}
		assert.Equal(t, first, Merge(text, rev))
	}
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge("", nil))
}
