package link

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sdrasco/freedact/internal/textspan"
)

type aliasDef struct {
	idx      int // index into the span slice
	span     textspan.Span
	alias    string
	isRole   bool
	subject  string
	subjIdx  int // index of the subject span, -1 when matched by text only
	cluster  string
	nextSame int // start of the next definition for the same cluster, -1 for none
}

// ResolveAliases links alias definition spans to their subjects and
// synthesizes mention spans for later occurrences of each alias term.
// The propagation scope runs from the end of a definition to the next
// definition for the same cluster, else the end of the document.
//
// When keepRoles is set, role aliases stay linked but their mention spans
// carry skip_replacement so the planner keeps them verbatim.
func ResolveAliases(text string, spans []textspan.Span, keepRoles bool, ider IDer) ([]textspan.Span, ClusterSet) {
	out := make([]textspan.Span, len(spans))
	copy(out, spans)

	var defs []aliasDef
	for i, sp := range out {
		if sp.Label != textspan.LabelAliasLabel || sp.Attr(textspan.AttrAlias) == "" {
			continue
		}
		defs = append(defs, aliasDef{
			idx:     i,
			span:    sp,
			alias:   sp.Attr(textspan.AttrAlias),
			isRole:  sp.Attr(textspan.AttrRoleFlag) == "true",
			subjIdx: -1,
		})
	}
	if len(defs) == 0 {
		return out, ClusterSet{}
	}
	sort.Slice(defs, func(a, b int) bool { return defs[a].span.Start < defs[b].span.Start })

	clusters := ClusterSet{}

	for d := range defs {
		def := &defs[d]
		def.subject, def.subjIdx = findSubject(text, out, def.span)
		key := def.subject
		if key == "" {
			key = def.alias
		}
		if def.subjIdx >= 0 && out[def.subjIdx].ClusterID != "" {
			def.cluster = out[def.subjIdx].ClusterID
		} else {
			def.cluster = ider.StableID("ENTITY_CLUSTER", canonicalKey(key))
		}

		kind := KindOther
		canonical := key
		if def.subjIdx >= 0 {
			kind = clusterKindForLabel(out[def.subjIdx].Label)
			canonical = out[def.subjIdx].Text
		}
		cl, ok := clusters[def.cluster]
		if !ok {
			cl = &Cluster{ID: def.cluster, Kind: kind, Canonical: canonical, IsRole: def.isRole}
			clusters[def.cluster] = cl
		}
		if !def.isRole {
			cl.IsRole = false
		}
		cl.Aliases = appendUnique(cl.Aliases, def.alias)

		// Tag the definition and its subject span.
		out[def.idx].ClusterID = def.cluster
		if def.subjIdx >= 0 && out[def.subjIdx].ClusterID == "" {
			out[def.subjIdx].ClusterID = def.cluster
		}
	}

	// Scope ends: next definition of the same cluster.
	for d := range defs {
		defs[d].nextSame = -1
		for e := d + 1; e < len(defs); e++ {
			if defs[e].cluster == defs[d].cluster {
				defs[d].nextSame = defs[e].span.Start
				break
			}
		}
	}

	// Occupied ranges cover value-bearing spans only. Name spans may
	// legitimately overlap an alias mention (a sentence-initial token
	// absorbed into a PERSON candidate); the global merger resolves
	// those by precedence.
	var occupied []textspan.Span
	for _, sp := range out {
		switch sp.Label {
		case textspan.LabelPerson, textspan.LabelGenericOrg, textspan.LabelBankOrg, textspan.LabelLocation:
			continue
		}
		occupied = append(occupied, sp)
	}
	var synthesized []textspan.Span

	for _, def := range defs {
		stop := len(text)
		if def.nextSame >= 0 {
			stop = def.nextSame
		}
		for _, rng := range scanAliasMentions(text, def.alias, def.span.End, stop, occupied) {
			skip := keepRoles && def.isRole
			mention := textspan.Span{
				Start:      rng[0],
				End:        rng[1],
				Text:       text[rng[0]:rng[1]],
				Label:      textspan.LabelAliasLabel,
				Source:     "alias_resolver",
				Confidence: 0.96,
				ClusterID:  def.cluster,
				Attrs: map[string]string{
					textspan.AttrAlias:       def.alias,
					textspan.AttrRoleFlag:    boolString(def.isRole),
					textspan.AttrSkipReplace: boolString(skip),
				},
			}
			synthesized = append(synthesized, mention)
			occupied = append(occupied, mention)
		}
	}

	// When keepRoles is set, the definition spans of role aliases are
	// preserved too.
	if keepRoles {
		for _, def := range defs {
			if def.isRole {
				out[def.idx] = out[def.idx].WithAttr(textspan.AttrSkipReplace, "true")
			}
		}
	}

	out = append(out, synthesized...)
	textspan.SortSpans(out)
	return out, clusters
}

// findSubject locates the nearest preceding PERSON/ORG/BANK_ORG span
// within the same or previous line and at most 120 characters back.
// Falls back to the detector's textual subject hint.
func findSubject(text string, spans []textspan.Span, def textspan.Span) (string, int) {
	best := -1
	bestDist := 1 << 30
	for i, sp := range spans {
		switch sp.Label {
		case textspan.LabelPerson, textspan.LabelGenericOrg, textspan.LabelBankOrg:
		default:
			continue
		}
		if sp.Start >= def.Start {
			continue
		}
		dist := def.Start - sp.End
		if dist < 0 {
			dist = 0
		}
		if dist > 120 || strings.Count(text[min(sp.End, len(text)):min(def.Start, len(text))], "\n") > 1 {
			continue
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best >= 0 {
		return spans[best].Text, best
	}
	return def.Attr(textspan.AttrAliasSubject), -1
}

// scanAliasMentions returns whole-word, case-insensitive occurrences of
// alias in [from, to) that do not overlap occupied spans.
func scanAliasMentions(text, alias string, from, to int, occupied []textspan.Span) [][2]int {
	if from >= to || alias == "" {
		return nil
	}
	rx, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`)
	if err != nil {
		return nil
	}
	var out [][2]int
	for _, loc := range rx.FindAllStringIndex(text[from:to], -1) {
		start, end := from+loc[0], from+loc[1]
		probe := textspan.Span{Start: start, End: end}
		clash := false
		for _, sp := range occupied {
			if probe.Overlaps(sp) {
				clash = true
				break
			}
		}
		if !clash {
			out = append(out, [2]int{start, end})
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
