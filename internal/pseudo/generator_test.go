package pseudo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/link"
	"github.com/sdrasco/freedact/internal/textspan"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(newTestSeeder(t))
	require.NoError(t, err)
	return g
}

func personCluster(canonical string) *link.Cluster {
	return &link.Cluster{ID: "c1", Kind: link.KindPerson, Canonical: canonical}
}

func TestPersonLikeShape(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindPerson, "john doe")

	out := g.PersonLike("John Doe", key, 0)
	toks := strings.Fields(out)
	require.Len(t, toks, 2)
	for _, tok := range toks {
		assert.Equal(t, caseTitle, casingClass(tok), tok)
	}
	assert.NotEqual(t, "John Doe", out)

	// Deterministic.
	assert.Equal(t, out, g.PersonLike("John Doe", key, 0))
}

func TestPersonLikeAllCaps(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindPerson, "john doe")
	out := g.PersonLike("JOHN DOE", key, 0)
	toks := strings.Fields(out)
	require.Len(t, toks, 2)
	for _, tok := range toks {
		assert.Equal(t, strings.ToUpper(tok), tok)
	}
}

func TestPersonLikeInitials(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindPerson, "j. d. salinger")
	out := g.PersonLike("J. D. Salinger", key, 0)
	toks := strings.Fields(out)
	require.Len(t, toks, 3)
	assert.Regexp(t, `^[A-Z]\.$`, toks[0])
	assert.Regexp(t, `^[A-Z]\.$`, toks[1])
}

func TestPersonClusterConsistency(t *testing.T) {
	// A full mention and a single-token nickname of the same cluster
	// share the generated surname.
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindPerson, "john doe")

	full := g.PersonLike("John Doe", key, 0)
	nick := g.PersonLike("Morgan", key, 0)
	id := g.identityFor(key)

	// The identity anchors both renderings: the surname token equals
	// id.surname whenever its length fits the source token's ±2 budget.
	fullToks := strings.Fields(full)
	if d := len(id.surname) - len("Doe"); d >= -2 && d <= 2 {
		assert.Equal(t, id.surname, fullToks[len(fullToks)-1])
	}
	if d := len(id.surname) - len("Morgan"); d >= -2 && d <= 2 {
		assert.Equal(t, id.surname, nick)
	}
	// Renderings are deterministic per (cluster, shape).
	assert.Equal(t, full, g.PersonLike("John Doe", key, 0))
	assert.Equal(t, nick, g.PersonLike("Morgan", key, 0))
}

func TestOrgLikePreservesSuffix(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOrg, "acme widgets inc")
	out := g.OrgLike("Acme Widgets Inc.", key, 0)
	assert.True(t, strings.HasSuffix(out, "Inc."), out)
	assert.NotContains(t, out, "Acme")
}

func TestBankLikePreservesDesignator(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindBank, "chase bank")
	out := g.BankLike("Chase Bank, N.A.", key, 0)
	assert.True(t, strings.HasSuffix(out, ", N.A."), out)
	assert.Contains(t, out, "Bank")
	assert.NotContains(t, out, "Chase")
}

func TestEmailLikeSafeDomain(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOther, "jane@acme.com")
	out := g.EmailLike("jane@acme.com", key, 0)
	at := strings.LastIndexByte(out, '@')
	require.Greater(t, at, 0)
	domain := out[at+1:]
	assert.Contains(t, []string{"example.org", "example.com", "example.net"}, domain)
	assert.Len(t, out[:at], 4)
	assert.NotEqual(t, "jane", out[:at])
}

func TestPhoneLike555(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOther, "phone")

	out := g.PhoneLike("(212) 555-0173", key, 0)
	assert.Regexp(t, `^\(555\) 555-01\d\d$`, out)

	out = g.PhoneLike("+14155550123", key, 0)
	assert.True(t, strings.HasPrefix(out, "+1555"), out)

	out = g.PhoneLike("212-555-0100", key, 0)
	assert.Regexp(t, `^555-555-01\d\d$`, out)
}

func TestCCLike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOther, "cc")
	src := "4111 1111 1111 1111"
	out := g.CCLike(src, key, 0)
	assert.Regexp(t, `^\d{4} \d{4} \d{4} \d{4}$`, out)
	digits := strings.ReplaceAll(out, " ", "")
	assert.True(t, detect.ValidLuhn(digits))
	assert.Equal(t, byte('9'), digits[0])
	assert.NotEqual(t, src, out)
}

func TestABALike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOther, "aba")
	out := g.ABALike("021000021", key, 0)
	assert.Len(t, out, 9)
	assert.True(t, detect.ValidABA(out))
}

func TestIBANLike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOther, "iban")
	src := "DE89370400440532013000"
	out := g.IBANLike(src, key, 0)
	assert.Len(t, out, len(src))
	assert.True(t, strings.HasPrefix(out, "DE"))
	assert.True(t, detect.ValidIBANChecksum(out), out)
	assert.NotEqual(t, src, out)
	// Issuer prefix (bank code) must not survive.
	assert.NotEqual(t, src[4:12], out[4:12])
}

func TestSSNLike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindOther, "ssn")
	out := g.SSNLike("123-45-6789", key, 0)
	assert.Regexp(t, `^\d{3}-\d{2}-\d{4}$`, out)
	assert.True(t, detect.ValidSSN(strings.ReplaceAll(out, "-", "")))
}

func TestDateShiftedPreservesFormat(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindPerson, "john doe")

	out := g.DateShifted("July 4, 1982", detect.DateFormatMonthName, key, 0)
	assert.Regexp(t, `^[A-Z][a-z]+ \d{1,2}, \d{4}$`, out)
	assert.NotEqual(t, "July 4, 1982", out)

	out = g.DateShifted("1982-07-04", detect.DateFormatISO, key, 0)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, out)

	out = g.DateShifted("07/04/1982", detect.DateFormatMDY, key, 0)
	assert.Regexp(t, `^\d{2}/\d{2}/\d{4}$`, out)

	out = g.DateShifted("4 July 1982", detect.DateFormatDayMonth, key, 0)
	assert.Regexp(t, `^\d{1,2} [A-Z][a-z]+ \d{4}$`, out)
}

func TestDateShiftDeterministicPerCluster(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindPerson, "john doe")
	a := g.DateShifted("July 4, 1982", detect.DateFormatMonthName, key, 0)
	b := g.DateShifted("July 4, 1982", detect.DateFormatMonthName, key, 0)
	assert.Equal(t, a, b)
}

func TestStreetLineLike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindAddress, "addr")
	out := g.StreetLineLike("1600 Pennsylvania Ave NW", key, 0)
	assert.Regexp(t, `^\d{4} [A-Z][a-z]+ [A-Za-z]+ NW$`, out)
	assert.NotContains(t, out, "Pennsylvania")
}

func TestCityStateZipLike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindAddress, "addr")
	out := g.CityStateZipLike("Washington, DC 20500", key, 0)
	assert.Regexp(t, `^[A-Za-z ]+, [A-Z]{2} \d{5}$`, out)
}

func TestAddressBlockLike(t *testing.T) {
	g := newTestGenerator(t)
	key := g.seeder.ClusterKey(link.KindAddress, "addr")
	src := "1600 Pennsylvania Ave NW\nWashington, DC 20500"
	out := g.AddressBlockLike(src, key, 0)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, out, "Pennsylvania")
	assert.Regexp(t, `\d{5}$`, lines[1])
}

func TestReplacementDispatch(t *testing.T) {
	g := newTestGenerator(t)
	sp := textspan.Span{
		Start: 0, End: 8, Text: "John Doe",
		Label: textspan.LabelPerson, Source: "person", Confidence: 0.8,
	}
	out, err := g.Replacement(sp, personCluster("John Doe"), 0)
	require.NoError(t, err)
	assert.NotEqual(t, "John Doe", out)
	assert.Len(t, strings.Fields(out), 2)

	_, err = g.Replacement(textspan.Span{Label: "BOGUS"}, nil, 0)
	assert.Error(t, err)
}

func TestReplacementRetryChangesCandidate(t *testing.T) {
	g := newTestGenerator(t)
	sp := textspan.Span{Text: "jane@acme.com", Label: textspan.LabelEmail}
	a, err := g.Replacement(sp, nil, 0)
	require.NoError(t, err)
	b, err := g.Replacement(sp, nil, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
