package pseudo

import "strings"

// EmailLike regenerates an email with a shape-preserving local part and a
// domain forced into the safe example set. A +tag suffix on the local
// part is preserved structurally but re-rolled like the base.
func (g *Generator) EmailLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "email:"+Signature(source), retry)
	at := strings.LastIndexByte(source, '@')
	local := source
	if at >= 0 {
		local = source[:at]
	}
	newLocal := replaceCharClasses(local, rng)
	domain := g.lex.SafeDomains[rng.Intn(len(g.lex.SafeDomains))]
	return newLocal + "@" + domain
}
