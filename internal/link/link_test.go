package link

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/textspan"
)

type hashIDer struct{}

func (hashIDer) StableID(kind, key string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + key))
	return hex.EncodeToString(sum[:10])
}

func addrLine(text, line string, kind string, t *testing.T) textspan.Span {
	t.Helper()
	start := indexOf(t, text, line)
	return textspan.Span{
		Start:      start,
		End:        start + len(line),
		Text:       line,
		Label:      textspan.LabelAddressLine,
		Source:     "address",
		Confidence: 0.95,
		Attrs:      map[string]string{textspan.AttrLineKind: kind},
	}
}

func indexOf(t *testing.T, text, sub string) int {
	t.Helper()
	idx := indexOfString(text, sub)
	require.GreaterOrEqual(t, idx, 0, "substring %q not found", sub)
	return idx
}

func indexOfString(text, sub string) int {
	for i := 0; i+len(sub) <= len(text); i++ {
		if text[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestMergeAddressLines(t *testing.T) {
	text := "Chase Bank, N.A.\n1600 Pennsylvania Ave NW\nWashington, DC 20500\n"
	spans := []textspan.Span{
		addrLine(text, "1600 Pennsylvania Ave NW", detect.LineKindStreet, t),
		addrLine(text, "Washington, DC 20500", detect.LineKindCityStateZip, t),
	}
	out := MergeAddressLines(text, spans)

	var blocks []textspan.Span
	for _, sp := range out {
		if sp.Label == textspan.LabelAddressBlock {
			blocks = append(blocks, sp)
		}
	}
	require.Len(t, blocks, 1)
	assert.Equal(t, "1600 Pennsylvania Ave NW\nWashington, DC 20500", blocks[0].Text)
	// Line spans are preserved for the global merger to drop.
	assert.Len(t, out, 3)
}

func TestMergeAddressLinesToleratesBlankLine(t *testing.T) {
	text := "PO Box 1234\n\nSpringfield, IL 62704\n"
	spans := []textspan.Span{
		addrLine(text, "PO Box 1234", detect.LineKindPOBox, t),
		addrLine(text, "Springfield, IL 62704", detect.LineKindCityStateZip, t),
	}
	out := MergeAddressLines(text, spans)
	var blocks int
	for _, sp := range out {
		if sp.Label == textspan.LabelAddressBlock {
			blocks++
		}
	}
	assert.Equal(t, 1, blocks)
}

func TestMergeAddressLinesRequiresAnchor(t *testing.T) {
	text := "Suite 210\nSpringfield, IL 62704\n"
	spans := []textspan.Span{
		addrLine(text, "Suite 210", detect.LineKindUnit, t),
		addrLine(text, "Springfield, IL 62704", detect.LineKindCityStateZip, t),
	}
	out := MergeAddressLines(text, spans)
	for _, sp := range out {
		assert.NotEqual(t, textspan.LabelAddressBlock, sp.Label)
	}
}

func personSpan(text, name string, t *testing.T) textspan.Span {
	t.Helper()
	start := indexOf(t, text, name)
	return textspan.Span{
		Start: start, End: start + len(name), Text: name,
		Label: textspan.LabelPerson, Source: "person", Confidence: 0.8,
	}
}

func aliasDefSpan(text, alias string, role bool, subject string, t *testing.T) textspan.Span {
	t.Helper()
	start := indexOf(t, text, alias)
	attrs := map[string]string{
		textspan.AttrAlias:    alias,
		textspan.AttrRoleFlag: boolString(role),
	}
	if subject != "" {
		attrs[textspan.AttrAliasSubject] = subject
	}
	return textspan.Span{
		Start: start, End: start + len(alias), Text: alias,
		Label: textspan.LabelAliasLabel, Source: "aliases",
		Confidence: 0.97, Attrs: attrs,
	}
}

func TestResolveAliasesPropagates(t *testing.T) {
	text := `John Doe ("Morgan") sold the land. Later Morgan signed the contract.`
	spans := []textspan.Span{
		personSpan(text, "John Doe", t),
		aliasDefSpan(text, "Morgan", false, "John Doe", t),
	}
	out, clusters := ResolveAliases(text, spans, false, hashIDer{})

	require.Len(t, clusters, 1)
	var cid string
	for id, c := range clusters {
		cid = id
		assert.Equal(t, KindPerson, c.Kind)
		assert.Equal(t, "John Doe", c.Canonical)
		assert.False(t, c.IsRole)
		assert.Equal(t, []string{"Morgan"}, c.Aliases)
	}

	// John Doe, the definition, and one propagated mention share the id.
	var tagged int
	var mentions int
	for _, sp := range out {
		if sp.ClusterID == cid {
			tagged++
		}
		if sp.Source == "alias_resolver" {
			mentions++
			assert.Equal(t, "Morgan", sp.Text)
			assert.Equal(t, "false", sp.Attr(textspan.AttrSkipReplace))
		}
	}
	assert.Equal(t, 3, tagged)
	assert.Equal(t, 1, mentions)
}

func TestResolveAliasesKeepRoles(t *testing.T) {
	text := `John Doe (the "Buyer") agrees. The Buyer shall pay.`
	spans := []textspan.Span{
		personSpan(text, "John Doe", t),
		aliasDefSpan(text, "Buyer", true, "John Doe", t),
	}
	out, clusters := ResolveAliases(text, spans, true, hashIDer{})
	require.Len(t, clusters, 1)

	for _, sp := range out {
		if sp.Source == "alias_resolver" {
			assert.Equal(t, "true", sp.Attr(textspan.AttrSkipReplace))
		}
	}
}

func TestClusterMentionsBySurname(t *testing.T) {
	text := "John Doe met with Ms. Doe and later Jane Smith arrived."
	spans := []textspan.Span{
		personSpan(text, "John Doe", t),
		personSpan(text, "Ms. Doe", t),
		personSpan(text, "Jane Smith", t),
	}
	out, clusters := ClusterMentions(spans, nil, hashIDer{})
	assert.Len(t, clusters, 2)
	assert.Equal(t, out[0].ClusterID, out[1].ClusterID)
	assert.NotEqual(t, out[0].ClusterID, out[2].ClusterID)

	// Longest mention wins as canonical.
	c := clusters[out[0].ClusterID]
	assert.Equal(t, "John Doe", c.Canonical)
}

func TestClusterMentionsTitlesDisambiguate(t *testing.T) {
	text := "Dr. Jane Smith examined the file. Mr. John Smith objected."
	spans := []textspan.Span{
		personSpan(text, "Dr. Jane Smith", t),
		personSpan(text, "Mr. John Smith", t),
	}
	out, clusters := ClusterMentions(spans, nil, hashIDer{})
	assert.Len(t, clusters, 2)
	assert.NotEqual(t, out[0].ClusterID, out[1].ClusterID,
		"conflicting honorifics keep same-surname mentions apart")
}

func TestClusterMentionsTitledJoinsUntitled(t *testing.T) {
	text := "John Smith appeared. Mr. Smith was sworn in. Ms. Smith arrived later."
	spans := []textspan.Span{
		personSpan(text, "John Smith", t),
		personSpan(text, "Mr. Smith", t),
		personSpan(text, "Ms. Smith", t),
	}
	out, clusters := ClusterMentions(spans, nil, hashIDer{})
	// Mr. Smith claims the untitled John Smith cluster; Ms. Smith then
	// conflicts and gets her own.
	assert.Len(t, clusters, 2)
	assert.Equal(t, out[0].ClusterID, out[1].ClusterID)
	assert.NotEqual(t, out[0].ClusterID, out[2].ClusterID)
}

func TestClusterMentionsValueIdentity(t *testing.T) {
	text := "a@b.org then a@b.org again, c@d.org once"
	first := indexOf(t, text, "a@b.org")
	spans := []textspan.Span{
		{Start: first, End: first + 7, Text: "a@b.org", Label: textspan.LabelEmail, Source: "email", Confidence: 0.99},
		{Start: 13, End: 20, Text: "a@b.org", Label: textspan.LabelEmail, Source: "email", Confidence: 0.99},
		{Start: 28, End: 35, Text: "c@d.org", Label: textspan.LabelEmail, Source: "email", Confidence: 0.99},
	}
	out, clusters := ClusterMentions(spans, nil, hashIDer{})
	assert.Len(t, clusters, 2)
	assert.Equal(t, out[0].ClusterID, out[1].ClusterID)
	assert.NotEqual(t, out[0].ClusterID, out[2].ClusterID)
}

func TestUnionFindCollapsesCycles(t *testing.T) {
	uf := newUnionFind()
	uf.union("a", "b")
	uf.union("b", "c")
	uf.union("c", "a")
	assert.Equal(t, uf.find("a"), uf.find("c"))
	assert.Equal(t, uf.find("b"), uf.find("a"))
}

func TestMergeCoref(t *testing.T) {
	text := "Jane Smith arrived. She signed."
	jane := personSpan(text, "Jane Smith", t)
	jane.ClusterID = "cl1"
	she := textspan.Span{Start: 20, End: 23, Text: "She", Label: textspan.LabelPerson, Source: "ner", Confidence: 0.7}
	spans := []textspan.Span{jane, she}

	chains := []detect.CorefChain{{
		{Start: jane.Start, End: jane.End},
		{Start: 20, End: 23},
	}}
	out := MergeCoref(spans, ClusterSet{"cl1": {ID: "cl1"}}, chains)
	assert.Equal(t, "cl1", out[1].ClusterID)
}
