package pseudo

import (
	"fmt"
	"strings"

	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/link"
	"github.com/sdrasco/freedact/internal/textspan"
	"github.com/sdrasco/freedact/patterns"
)

// Generator produces shape-preserving replacements for merged spans.
// It is pure given its seeder: the same span, cluster, and retry salt
// always yield the same candidate.
type Generator struct {
	seeder *Seeder
	lex    *patterns.Lexicons

	givenNames  []string
	surnames    []string
	orgRoots    []string
	streetNames []string
	cityNames   []string
}

// NewGenerator loads the fixture corpora and binds them to the seeder.
func NewGenerator(seeder *Seeder) (*Generator, error) {
	lex, err := patterns.LoadLexicons()
	if err != nil {
		return nil, fmt.Errorf("loading lexicons: %w", err)
	}
	g := &Generator{
		seeder:      seeder,
		lex:         lex,
		givenNames:  patterns.GivenNames(),
		surnames:    patterns.Surnames(),
		orgRoots:    patterns.OrgRoots(),
		streetNames: patterns.StreetNames(),
		cityNames:   patterns.CityNames(),
	}
	if len(g.givenNames) == 0 || len(g.surnames) == 0 || len(g.orgRoots) == 0 ||
		len(g.streetNames) == 0 || len(g.cityNames) == 0 {
		return nil, fmt.Errorf("fixture corpora incomplete")
	}
	return g, nil
}

// Seeder exposes the bound seeder for cluster-id derivation.
func (g *Generator) Seeder() *Seeder { return g.seeder }

// clusterKeyFor returns the HMAC base key for a cluster, falling back to
// the span's own text when the linker produced no cluster.
func (g *Generator) clusterKeyFor(sp textspan.Span, cluster *link.Cluster) []byte {
	if cluster != nil {
		return g.seeder.ClusterKey(cluster.Kind, cluster.Canonical)
	}
	return g.seeder.ClusterKey("span:"+string(sp.Label), sp.Text)
}

// Replacement generates the candidate replacement for a merged span.
// retry is the safety guard's regeneration salt.
func (g *Generator) Replacement(sp textspan.Span, cluster *link.Cluster, retry int) (string, error) {
	key := g.clusterKeyFor(sp, cluster)

	switch sp.Label {
	case textspan.LabelPerson:
		return g.PersonLike(sp.Text, key, retry), nil
	case textspan.LabelGenericOrg:
		return g.OrgLike(sp.Text, key, retry), nil
	case textspan.LabelBankOrg:
		return g.BankLike(sp.Text, key, retry), nil
	case textspan.LabelAliasLabel:
		return g.aliasReplacement(sp, cluster, key, retry), nil
	case textspan.LabelEmail:
		return g.EmailLike(sp.Text, key, retry), nil
	case textspan.LabelPhone:
		return g.PhoneLike(sp.Text, key, retry), nil
	case textspan.LabelAccountID:
		return g.accountReplacement(sp, key, retry)
	case textspan.LabelDOB, textspan.LabelDateGeneric:
		format := sp.Attr(textspan.AttrDateFormat)
		return g.DateShifted(sp.Text, format, key, retry), nil
	case textspan.LabelAddressBlock:
		return g.AddressBlockLike(sp.Text, key, retry), nil
	case textspan.LabelAddressLine:
		return g.addressLineReplacement(sp, key, retry), nil
	case textspan.LabelLocation:
		return g.locationReplacement(sp, key, retry), nil
	}
	return "", fmt.Errorf("no generator for label %s", sp.Label)
}

// aliasReplacement renders an alias mention from the same underlying
// identity as the cluster's full mentions. Nicknames shaped like a name
// token come from the person generator; org-kind clusters reuse the org
// root.
func (g *Generator) aliasReplacement(sp textspan.Span, cluster *link.Cluster, key []byte, retry int) string {
	kind := link.KindOther
	if cluster != nil {
		kind = cluster.Kind
	}
	switch kind {
	case link.KindOrg:
		return g.OrgLike(sp.Text, key, retry)
	case link.KindBank:
		return g.BankLike(sp.Text, key, retry)
	default:
		return g.PersonLike(sp.Text, key, retry)
	}
}

func (g *Generator) accountReplacement(sp textspan.Span, key []byte, retry int) (string, error) {
	switch sp.Attr(textspan.AttrSubtype) {
	case textspan.SubtypeCC:
		return g.CCLike(sp.Text, key, retry), nil
	case textspan.SubtypeABA:
		return g.ABALike(sp.Text, key, retry), nil
	case textspan.SubtypeIBAN:
		return g.IBANLike(sp.Text, key, retry), nil
	case textspan.SubtypeSSN:
		return g.SSNLike(sp.Text, key, retry), nil
	case textspan.SubtypeEIN:
		return g.EINLike(sp.Text, key, retry), nil
	case textspan.SubtypeBIC, textspan.SubtypeGeneric:
		return g.GenericDigitsLike(sp.Text, key, retry), nil
	}
	return "", fmt.Errorf("unknown account subtype %q", sp.Attr(textspan.AttrSubtype))
}

func (g *Generator) addressLineReplacement(sp textspan.Span, key []byte, retry int) string {
	switch sp.Attr(textspan.AttrLineKind) {
	case detect.LineKindUnit:
		return g.UnitLineLike(sp.Text, key, retry)
	case detect.LineKindCityStateZip:
		return g.CityStateZipLike(sp.Text, key, retry)
	case detect.LineKindPOBox:
		return g.POBoxLike(sp.Text, key, retry)
	default:
		return g.StreetLineLike(sp.Text, key, retry)
	}
}

// locationReplacement swaps a bare location for a fixture city with the
// source casing.
func (g *Generator) locationReplacement(sp textspan.Span, key []byte, retry int) string {
	rng := StreamRNG(key, "loc:"+Signature(sp.Text), retry)
	city := g.cityNames[rng.Intn(len(g.cityNames))]
	switch casingClass(sp.Text) {
	case caseUpper:
		return strings.ToUpper(city)
	case caseLower:
		return strings.ToLower(city)
	}
	return city
}
