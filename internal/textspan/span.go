// Package textspan defines the span and label types shared by every
// pipeline stage. Spans use half-open [Start, End) character ranges over
// the normalized text.
package textspan

import "sort"

// Label is the closed taxonomy of entity labels.
type Label string

const (
	LabelEmail        Label = "EMAIL"
	LabelPhone        Label = "PHONE"
	LabelAccountID    Label = "ACCOUNT_ID"
	LabelBankOrg      Label = "BANK_ORG"
	LabelGenericOrg   Label = "GENERIC_ORG"
	LabelPerson       Label = "PERSON"
	LabelAddressLine  Label = "ADDRESS_LINE"
	LabelAddressBlock Label = "ADDRESS_BLOCK"
	LabelDateGeneric  Label = "DATE_GENERIC"
	LabelDOB          Label = "DOB"
	LabelAliasLabel   Label = "ALIAS_LABEL"
	LabelLocation     Label = "LOCATION"
)

// Account subtype attribute values.
const (
	SubtypeIBAN    = "iban"
	SubtypeCC      = "cc"
	SubtypeABA     = "aba"
	SubtypeSSN     = "ssn"
	SubtypeEIN     = "ein"
	SubtypeBIC     = "bic"
	SubtypeGeneric = "generic"
)

// Attribute keys used across detectors and the linker.
const (
	AttrSubtype       = "subtype"
	AttrDateFormat    = "date_format"
	AttrAlias         = "alias"
	AttrAliasSubject  = "alias_subject"
	AttrRoleFlag      = "role_flag"
	AttrSkipReplace   = "skip_replacement"
	AttrLineKind      = "line_kind"
	AttrScheme        = "scheme"
	AttrIssuerCountry = "issuer_or_country"
)

// Span is a labeled half-open character range over the normalized text.
type Span struct {
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Text       string            `json:"text"`
	Label      Label             `json:"label"`
	Source     string            `json:"source"`
	Confidence float64           `json:"confidence"`
	Attrs      map[string]string `json:"attrs,omitempty"`

	// ClusterID links the span to an entity cluster; empty until the
	// linker assigns one.
	ClusterID string `json:"cluster_id,omitempty"`
}

// Len returns the character length of the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two half-open ranges intersect. Spans touching
// at a boundary do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether s fully covers o.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Attr returns the named attribute or "".
func (s Span) Attr(key string) string {
	if s.Attrs == nil {
		return ""
	}
	return s.Attrs[key]
}

// WithAttr returns a copy of s with the attribute set.
func (s Span) WithAttr(key, val string) Span {
	attrs := make(map[string]string, len(s.Attrs)+1)
	for k, v := range s.Attrs {
		attrs[k] = v
	}
	attrs[key] = val
	s.Attrs = attrs
	return s
}

// SortSpans orders spans by (Start, End, Label, Source) so detector output
// is deterministic regardless of execution order.
func SortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Source < b.Source
	})
}
