package pseudo

import (
	"math/rand"
	"strings"

	"github.com/sdrasco/freedact/internal/detect"
)

// personIdentity is the stable underlying person behind a cluster. Every
// mention of the cluster renders from the same identity, adapting only to
// the mention's surface shape.
type personIdentity struct {
	given   []string
	surname string
}

func (g *Generator) identityFor(clusterKey []byte) personIdentity {
	rng := StreamRNG(clusterKey, "person-identity", 0)
	return personIdentity{
		given: []string{
			g.givenNames[rng.Intn(len(g.givenNames))],
			g.givenNames[rng.Intn(len(g.givenNames))],
		},
		surname: g.surnames[rng.Intn(len(g.surnames))],
	}
}

// PersonLike renders the cluster's identity in the shape of source:
// token counts, initials, interior punctuation, and per-token casing are
// preserved; honorifics, particles, and suffixes pass through verbatim.
func (g *Generator) PersonLike(source string, clusterKey []byte, retry int) string {
	id := g.identityFor(clusterKey)
	rng := StreamRNG(clusterKey, Signature(source), retry)

	parsed := detect.ParsePersonName(source)
	var out []string
	out = append(out, parsed.Honorifics...)

	givenIdx := 0
	nextGiven := func() string {
		name := id.given[givenIdx%len(id.given)]
		givenIdx++
		return name
	}

	if len(parsed.Given) == 0 && len(parsed.Surname) <= 1 && len(parsed.Honorifics) == 0 &&
		len(parsed.Suffixes) == 0 && len(parsed.Particles) == 0 {
		// Single bare token: treat as a surname so nicknames stay
		// consistent with full mentions of the same cluster.
		tok := source
		repl := matchTokenShape(tok, id.surname, g.surnames, rng, retry)
		return applyCasing(repl, casingClass(tok))
	}

	for _, tok := range parsed.Given {
		out = append(out, renderNameToken(tok, nextGiven(), g.givenNames, rng, retry))
	}
	out = append(out, parsed.Particles...)
	for i, tok := range parsed.Surname {
		base := id.surname
		if i > 0 {
			// Extra surname tokens draw from the mention stream.
			base = g.surnames[rng.Intn(len(g.surnames))]
		}
		out = append(out, renderNameToken(tok, base, g.surnames, rng, retry))
	}
	out = append(out, parsed.Suffixes...)

	result := strings.Join(out, " ")
	if normalizeLetters(result) == normalizeLetters(source) && retry < 5 {
		// Collision with the original; nudge the stream.
		return g.PersonLike(source, clusterKey, retry+1)
	}
	return result
}

// renderNameToken maps one source token to a replacement token with the
// same visible shape.
func renderNameToken(srcTok, base string, corpus []string, rng *rand.Rand, retry int) string {
	if isInitialToken(srcTok) {
		r := []rune(base)[0]
		if strings.HasSuffix(srcTok, ".") {
			return applyCasing(string(r)+".", casingClass(srcTok))
		}
		return applyCasing(string(r), casingClass(srcTok))
	}
	repl := matchTokenShape(srcTok, base, corpus, rng, retry)
	return applyCasing(repl, casingClass(srcTok))
}

// matchTokenShape returns base when its length is within ±2 of the source
// token; otherwise picks a closer corpus entry. Interior apostrophes and
// hyphens of the source are carried over by splitting on them.
func matchTokenShape(srcTok, base string, corpus []string, rng *rand.Rand, retry int) string {
	if strings.ContainsAny(srcTok, "'-") {
		seps := srcTok
		var segs []string
		var puncts []rune
		cur := strings.Builder{}
		for _, r := range seps {
			if r == '\'' || r == '-' {
				segs = append(segs, cur.String())
				puncts = append(puncts, r)
				cur.Reset()
				continue
			}
			cur.WriteRune(r)
		}
		segs = append(segs, cur.String())
		var b strings.Builder
		for i, seg := range segs {
			b.WriteString(pickNear(corpus, len(seg), rng))
			if i < len(puncts) {
				b.WriteRune(puncts[i])
			}
		}
		return b.String()
	}
	d := len(base) - len(srcTok)
	if d >= -2 && d <= 2 && retry == 0 {
		return base
	}
	return pickNear(corpus, len(srcTok), rng)
}

func isInitialToken(tok string) bool {
	t := strings.TrimSuffix(tok, ".")
	return len(t) == 1 && isASCIIAlpha(t[0])
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func normalizeLetters(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// orgSuffixRx-equivalent handling is lexicon-driven: the suffix split
// walks known suffix tokens from the right.
func (g *Generator) splitOrgSuffix(source string) (core, suffix string) {
	trimmed := strings.TrimSpace(source)
	lower := strings.ToLower(trimmed)
	best := len(trimmed)
	for _, s := range g.lex.OrgSuffixes {
		for _, form := range []string{", " + strings.ToLower(s), " " + strings.ToLower(s)} {
			idx := strings.LastIndex(lower, form)
			if idx < 0 {
				continue
			}
			rest := strings.Trim(lower[idx+len(form):], " .,")
			restOK := rest == "" || isSuffixRun(rest, g.lex.OrgSuffixes)
			if restOK && idx < best {
				best = idx
			}
		}
	}
	if best == len(trimmed) {
		return trimmed, ""
	}
	return strings.TrimSpace(trimmed[:best]), strings.TrimSpace(trimmed[best:])
}

func isSuffixRun(rest string, suffixes []string) bool {
	rest = strings.Trim(rest, " .,")
	if rest == "" {
		return true
	}
	for _, s := range suffixes {
		sl := strings.ToLower(s)
		if strings.HasPrefix(rest, sl) {
			return isSuffixRun(rest[len(sl):], suffixes)
		}
	}
	return false
}

// OrgLike replaces non-suffix tokens with plausible made-up roots and
// keeps the legal suffix verbatim.
func (g *Generator) OrgLike(source string, clusterKey []byte, retry int) string {
	core, suffix := g.splitOrgSuffix(source)
	rng := StreamRNG(clusterKey, "org-identity", retry)

	n := len(strings.Fields(core))
	if n < 1 {
		n = 1
	}
	if n > 3 {
		n = 3
	}
	var toks []string
	for i := 0; i < n; i++ {
		toks = append(toks, g.orgRoots[rng.Intn(len(g.orgRoots))])
	}
	result := strings.Join(toks, " ")
	if normalizeLetters(result) == normalizeLetters(core) && retry < 5 {
		return g.OrgLike(source, clusterKey, retry+1)
	}
	return joinOrgSuffix(result, suffix)
}

// BankLike behaves like OrgLike but preserves the word Bank, Trust
// phrasing, and designators such as N.A.
func (g *Generator) BankLike(source string, clusterKey []byte, retry int) string {
	core, suffix := g.splitOrgSuffix(source)
	lower := strings.ToLower(core)
	rng := StreamRNG(clusterKey, "bank-identity", retry)

	baseCount := len(strings.Fields(core)) - 1
	if baseCount < 1 {
		baseCount = 1
	}
	if baseCount > 2 {
		baseCount = 2
	}
	var toks []string
	for i := 0; i < baseCount; i++ {
		toks = append(toks, g.orgRoots[rng.Intn(len(g.orgRoots))])
	}
	base := strings.Join(toks, " ")

	bankPart := "Bank"
	switch {
	case strings.Contains(lower, "trust company"):
		bankPart = "Bank Trust Company"
	case strings.Contains(lower, "trust"):
		bankPart = "Bank & Trust"
	case strings.Contains(lower, "credit union"):
		bankPart = "Credit Union"
	case strings.Contains(lower, "savings"):
		bankPart = "Savings Bank"
	}
	result := base + " " + bankPart
	if normalizeLetters(result) == normalizeLetters(core) && retry < 5 {
		return g.BankLike(source, clusterKey, retry+1)
	}
	return joinOrgSuffix(result, suffix)
}

func joinOrgSuffix(core, suffix string) string {
	if suffix == "" {
		return core
	}
	if strings.HasPrefix(suffix, ",") {
		return core + suffix
	}
	return core + " " + suffix
}
