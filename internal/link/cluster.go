// Package link resolves relationships between detected spans: adjacent
// address lines become blocks, alias definitions bind nicknames to their
// subjects, and mentions of the same real-world entity are grouped into
// clusters with stable identifiers.
package link

import (
	"sort"
	"strings"

	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/textspan"
)

// Cluster kinds.
const (
	KindPerson  = "person"
	KindOrg     = "org"
	KindBank    = "bank"
	KindAddress = "address"
	KindOther   = "other"
)

// Cluster groups spans that refer to the same real-world subject.
// Clusters are immutable once linking completes.
type Cluster struct {
	ID        string   `json:"cluster_id"`
	Kind      string   `json:"kind"`
	Canonical string   `json:"canonical_form"`
	IsRole    bool     `json:"is_role"`
	Aliases   []string `json:"aliases,omitempty"`
}

// ClusterSet is the linker's output, keyed by cluster ID.
type ClusterSet map[string]*Cluster

// IDer derives deterministic, non-reversible identifiers. The pseudonym
// seeder implements it; tests may substitute a plain hasher.
type IDer interface {
	StableID(kind, key string) string
}

// unionFind with path compression, used to collapse cyclic alias graphs
// (A a/k/a B, B a/k/a A) into one cluster per connected component.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[string]string{}}
}

func (u *unionFind) find(x string) string {
	root, ok := u.parent[x]
	if !ok {
		u.parent[x] = x
		return x
	}
	if root == x {
		return x
	}
	r := u.find(root)
	u.parent[x] = r
	return r
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Smaller root wins so the merge order cannot change results.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// clusterKindForLabel maps a span label to its cluster kind.
func clusterKindForLabel(label textspan.Label) string {
	switch label {
	case textspan.LabelPerson:
		return KindPerson
	case textspan.LabelGenericOrg:
		return KindOrg
	case textspan.LabelBankOrg:
		return KindBank
	case textspan.LabelAddressBlock, textspan.LabelAddressLine:
		return KindAddress
	default:
		return KindOther
	}
}

// canonicalKey normalizes an entity surface for keying: trim, collapse
// whitespace, lowercase.
func canonicalKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// surnameOf returns the case-folded surname used to group person
// mentions.
func surnameOf(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	return strings.ToLower(strings.Trim(last, ".,"))
}

// titleClassOf returns the honorific class of a mention ("mr", "ms",
// "dr", ...) or "" when untitled. Mrs and Miss fold into the ms class.
func titleClassOf(name string) string {
	parsed := detect.ParsePersonName(name)
	if len(parsed.Honorifics) == 0 {
		return ""
	}
	class := strings.ToLower(strings.TrimRight(parsed.Honorifics[0], "."))
	switch class {
	case "mrs", "miss":
		return "ms"
	}
	return class
}

// personSubgroup is one same-surname cluster, split off when honorifics
// disambiguate mentions that would otherwise merge.
type personSubgroup struct {
	class string // "" until a titled mention claims the subgroup
	id    string
}

// headNounOf returns the case-folded first token of an org name, with
// leading articles dropped.
func headNounOf(name string) string {
	fields := strings.Fields(name)
	for _, f := range fields {
		t := strings.ToLower(strings.Trim(f, ".,"))
		if t == "the" {
			continue
		}
		return t
	}
	return ""
}

// ClusterMentions assigns a ClusterID to every span that does not already
// carry one, grouping person spans by surname and org/bank spans by head
// noun. Value-identity labels (email, phone, account, date, address
// block) cluster by their exact text. Returns the updated spans and the
// cluster set, including clusters created earlier by the alias resolver.
func ClusterMentions(spans []textspan.Span, seed ClusterSet, ider IDer) ([]textspan.Span, ClusterSet) {
	out := make([]textspan.Span, len(spans))
	copy(out, spans)

	clusters := ClusterSet{}
	for id, c := range seed {
		clusters[id] = c
	}

	uf := newUnionFind()
	// groupKey -> cluster id chosen for the group
	groups := map[string]string{}
	// surname -> subgroups; persons split by honorific class so
	// "Dr. Jane Smith" and "Mr. John Smith" stay distinct parties.
	personGroups := map[string][]*personSubgroup{}
	// Process in document order so the earliest mention anchors a group.
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return out[order[a]].Start < out[order[b]].Start })

	for _, i := range order {
		sp := out[i]
		kind := clusterKindForLabel(sp.Label)

		if sp.Label == textspan.LabelPerson {
			surname := surnameOf(sp.Text)
			class := titleClassOf(sp.Text)
			subs := personGroups[surname]
			var sub *personSubgroup
			for _, s := range subs {
				if s.class == class {
					sub = s
					break
				}
			}
			if sub == nil && class != "" {
				// A titled mention claims the untitled subgroup; a
				// later conflicting title then forms its own cluster.
				for _, s := range subs {
					if s.class == "" {
						sub = s
						s.class = class
						break
					}
				}
			}
			if sub == nil && class == "" && len(subs) > 0 {
				// Untitled mention among titled subgroups joins the
				// earliest one.
				sub = subs[0]
			}
			if sub == nil {
				id := sp.ClusterID
				if id == "" {
					id = ider.StableID("ENTITY_CLUSTER", "person:"+surname+"/"+class)
				}
				sub = &personSubgroup{class: class, id: id}
				personGroups[surname] = append(subs, sub)
			} else if sp.ClusterID != "" {
				uf.union(sub.id, sp.ClusterID)
			}
			if sp.ClusterID == "" {
				out[i].ClusterID = sub.id
			}
			if _, exists := clusters[sub.id]; !exists {
				clusters[sub.id] = &Cluster{ID: sub.id, Kind: kind, Canonical: sp.Text}
			}
			continue
		}

		var groupKey string
		switch sp.Label {
		case textspan.LabelGenericOrg, textspan.LabelBankOrg:
			groupKey = "org:" + headNounOf(sp.Text)
		case textspan.LabelEmail, textspan.LabelPhone, textspan.LabelAccountID,
			textspan.LabelAddressBlock, textspan.LabelDOB, textspan.LabelDateGeneric,
			textspan.LabelLocation:
			groupKey = string(sp.Label) + ":" + canonicalKey(sp.Text)
		default:
			continue
		}

		if sp.ClusterID != "" {
			// Alias resolver already bound this span; fold the group
			// into the existing cluster.
			if prev, ok := groups[groupKey]; ok {
				uf.union(prev, sp.ClusterID)
			} else {
				groups[groupKey] = sp.ClusterID
			}
			continue
		}

		id, ok := groups[groupKey]
		if !ok {
			id = ider.StableID("ENTITY_CLUSTER", groupKey)
			groups[groupKey] = id
		}
		out[i].ClusterID = id
		if _, exists := clusters[id]; !exists {
			clusters[id] = &Cluster{ID: id, Kind: kind, Canonical: sp.Text}
		}
	}

	// Collapse union-find components onto their root cluster and relabel
	// affected spans.
	remap := map[string]string{}
	for id := range clusters {
		root := uf.find(id)
		if root != id {
			remap[id] = root
		}
	}
	for from, to := range remap {
		src, dst := clusters[from], clusters[to]
		if src != nil && dst != nil {
			if len(src.Canonical) > len(dst.Canonical) {
				dst.Canonical = src.Canonical
			}
			dst.Aliases = append(dst.Aliases, src.Aliases...)
			dst.IsRole = dst.IsRole && src.IsRole
		}
		delete(clusters, from)
	}
	if len(remap) > 0 {
		for i := range out {
			if to, ok := remap[out[i].ClusterID]; ok {
				out[i].ClusterID = to
			}
		}
	}

	// Prefer the longest mention as the canonical form.
	for i := range out {
		if c, ok := clusters[out[i].ClusterID]; ok {
			if len(out[i].Text) > len(c.Canonical) {
				c.Canonical = out[i].Text
			}
		}
	}

	return out, clusters
}
