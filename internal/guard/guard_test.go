package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdrasco/freedact/internal/textspan"
)

func span(text string, label textspan.Label, attrs map[string]string) textspan.Span {
	return textspan.Span{Start: 0, End: len(text), Text: text, Label: label, Source: "test", Confidence: 0.9, Attrs: attrs}
}

func TestCheckRejectsOriginal(t *testing.T) {
	g := New(nil)
	ok, reason := g.Check(span("John Doe", textspan.LabelPerson, nil), "JOHN DOE")
	assert.False(t, ok)
	assert.Equal(t, "equals original", reason)

	ok, _ = g.Check(span("John Doe", textspan.LabelPerson, nil), "Alan Smith")
	assert.True(t, ok)
}

func TestCheckSensitiveValues(t *testing.T) {
	g := New([]string{"Alan Smith", "real@bank.com"})
	ok, reason := g.Check(span("John Doe", textspan.LabelPerson, nil), "Alan Smith")
	assert.False(t, ok)
	assert.Equal(t, "matches sensitive value", reason)
}

func TestCheckEmailDomain(t *testing.T) {
	g := New(nil)
	sp := span("jane@acme.com", textspan.LabelEmail, nil)

	ok, _ := g.Check(sp, "xyzw@example.org")
	assert.True(t, ok)

	ok, reason := g.Check(sp, "xyzw@gmail.com")
	assert.False(t, ok)
	assert.Equal(t, "email domain outside safe set", reason)
}

func TestCheckPhoneArea(t *testing.T) {
	g := New(nil)
	sp := span("(212) 555-0173", textspan.LabelPhone, nil)

	ok, _ := g.Check(sp, "(555) 555-0142")
	assert.True(t, ok)

	ok, reason := g.Check(sp, "(212) 555-0142")
	assert.False(t, ok)
	assert.Equal(t, "phone area code outside 555 family", reason)

	ok, _ = g.Check(sp, "+15555550142")
	assert.True(t, ok)
}

func TestCheckAccountChecksums(t *testing.T) {
	g := New(nil)
	cc := span("4111 1111 1111 1111", textspan.LabelAccountID,
		map[string]string{textspan.AttrSubtype: textspan.SubtypeCC})

	ok, _ := g.Check(cc, "9021 3626 1283 4408")
	assert.True(t, ok)

	ok, reason := g.Check(cc, "9021 3626 1283 4409")
	assert.False(t, ok)
	assert.Equal(t, "card checksum invalid", reason)

	ok, reason = g.Check(cc, "4024 0071 5233 4818")
	assert.False(t, ok)
	assert.Equal(t, "card prefix matches real issuer", reason)
}

func TestCheckFirstHalfRule(t *testing.T) {
	g := New(nil)
	ssn := span("123-45-6789", textspan.LabelAccountID,
		map[string]string{textspan.AttrSubtype: textspan.SubtypeSSN})

	ok, reason := g.Check(ssn, "123-45-9999")
	assert.False(t, ok)
	assert.Equal(t, "first half identical to original", reason)

	ok, _ = g.Check(ssn, "487-22-6789")
	assert.True(t, ok)
}

func TestFindHeadingRanges(t *testing.T) {
	text := "Purchase Agreement\nThis agreement is made between the parties.\nIII. Closing Conditions\nGOVERNING LAW PROVISIONS\n"
	ranges := FindHeadingRanges(text)
	assert.Len(t, ranges, 3)
}

func TestFilterSpansHeadingProtection(t *testing.T) {
	text := "Purchase Agreement\nJohn Doe signed."
	headings := FindHeadingRanges(text)

	inHeading := textspan.Span{Start: 0, End: 8, Text: "Purchase", Label: textspan.LabelPerson, Source: "ner"}
	inBody := textspan.Span{Start: 19, End: 27, Text: "John Doe", Label: textspan.LabelPerson, Source: "person"}
	email := textspan.Span{Start: 0, End: 8, Text: "a@b.org", Label: textspan.LabelEmail, Source: "email"}

	out := FilterSpans([]textspan.Span{inHeading, inBody, email}, headings, true, true)
	assert.Len(t, out, 2)
	for _, sp := range out {
		assert.NotEqual(t, "Purchase", sp.Text)
	}

	out = FilterSpans([]textspan.Span{inHeading, inBody}, headings, false, true)
	assert.Len(t, out, 2)
}

func TestFilterSpansLocations(t *testing.T) {
	block := textspan.Span{Start: 0, End: 40, Label: textspan.LabelAddressBlock, Source: "merge"}
	inBlock := textspan.Span{Start: 10, End: 20, Label: textspan.LabelLocation, Source: "ner"}
	outside := textspan.Span{Start: 50, End: 60, Label: textspan.LabelLocation, Source: "ner"}

	out := FilterSpans([]textspan.Span{block, inBlock, outside}, nil, false, false)
	assert.Len(t, out, 2)

	out = FilterSpans([]textspan.Span{block, inBlock, outside}, nil, false, true)
	assert.Len(t, out, 3)
}
