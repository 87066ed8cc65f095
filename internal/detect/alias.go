package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
	"github.com/sdrasco/freedact/patterns"
)

// aliasTriggerRx matches alias definition markers. The captured term is
// either quoted or a title-cased token run following the trigger.
var aliasTriggerRx = regexp.MustCompile(
	`(?i)\b(hereinafter(?:,? referred to as)?|a/k/a|f/k/a|d/b/a|also known as)\b`)

var (
	quotedTermRx = regexp.MustCompile(`^[,:\s(]*(?:the\s+)?"([^"\n]{1,60})"`)
	plainTermRx  = regexp.MustCompile(`^[,:\s(]*(?:the\s+)?([A-Z][A-Za-z'-]*(?: [A-Z][A-Za-z'-]*){0,3})`)

	// subjectTailRx captures the capitalized run that most closely
	// precedes the trigger, used as the alias subject hint.
	subjectTailRx = regexp.MustCompile(
		`((?:[A-Z][A-Za-z&'.,-]*|of|and|&)(?: (?:[A-Z][A-Za-z&'.,-]*|of|and|&)){0,6})[\s,("]*$`)
)

// AliasDetector finds legal alias definitions such as
// `John Doe (the "Buyer")` written with hereinafter/a-k-a triggers, and
// the parenthetical quoted form.
type AliasDetector struct {
	roleTerms map[string]bool
}

// NewAliasDetector builds the detector with the configured role list.
func NewAliasDetector(lex *patterns.Lexicons) *AliasDetector {
	roles := make(map[string]bool, len(lex.RoleTerms))
	for _, r := range lex.RoleTerms {
		roles[strings.ToLower(r)] = true
	}
	return &AliasDetector{roleTerms: roles}
}

func (d *AliasDetector) Name() string { return "aliases" }

// parenAliasRx matches the parenthetical definition form with an optional
// leading article: (the "Buyer") or ("Morgan").
var parenAliasRx = regexp.MustCompile(`\((?:the\s+)?"([^"\n]{1,60})"\)`)

func (d *AliasDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	var spans []textspan.Span

	emit := func(start, end int, alias, subject string) {
		attrs := map[string]string{
			textspan.AttrAlias:    alias,
			textspan.AttrRoleFlag: boolAttr(d.roleTerms[strings.ToLower(alias)]),
		}
		if subject != "" {
			attrs[textspan.AttrAliasSubject] = subject
		}
		spans = append(spans, textspan.Span{
			Start:      start,
			End:        end,
			Text:       text[start:end],
			Label:      textspan.LabelAliasLabel,
			Source:     d.Name(),
			Confidence: 0.97,
			Attrs:      attrs,
		})
	}

	// Trigger-word definitions.
	for _, m := range aliasTriggerRx.FindAllStringIndex(text, -1) {
		rest := text[m[1]:]
		var alias string
		var aliasStart, aliasEnd int
		if qm := quotedTermRx.FindStringSubmatchIndex(rest); qm != nil {
			alias = rest[qm[2]:qm[3]]
			aliasStart, aliasEnd = m[1]+qm[2], m[1]+qm[3]
		} else if pm := plainTermRx.FindStringSubmatchIndex(rest); pm != nil {
			alias = rest[pm[2]:pm[3]]
			aliasStart, aliasEnd = m[1]+pm[2], m[1]+pm[3]
		} else {
			continue
		}
		subject := d.precedingSubject(text, m[0])
		emit(aliasStart, aliasEnd, alias, subject)
	}

	// Parenthetical quoted definitions.
	for _, m := range parenAliasRx.FindAllStringSubmatchIndex(text, -1) {
		alias := text[m[2]:m[3]]
		subject := d.precedingSubject(text, m[0])
		emit(m[2], m[3], alias, subject)
	}

	textspan.SortSpans(spans)
	return spans, nil
}

// precedingSubject returns the capitalized run immediately before pos, if
// any, bounded to the current sentence.
func (d *AliasDetector) precedingSubject(text string, pos int) string {
	start := pos - 120
	if start < 0 {
		start = 0
	}
	window := text[start:pos]
	if idx := strings.LastIndexAny(window, ".\n;"); idx >= 0 {
		window = window[idx+1:]
	}
	m := subjectTailRx.FindStringSubmatch(window)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], " ,.")
}
