package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
	"github.com/sdrasco/freedact/patterns"
)

// orgCandidateRx matches runs of capitalized tokens (allowing &, of, and)
// optionally ending in a legal suffix. The detector then classifies each
// run with the lexicon.
var orgCandidateRx = regexp.MustCompile(
	`\b[A-Z][A-Za-z&'.-]*(?:[ ](?:of|and|&|[A-Z][A-Za-z&'.-]*))*(?:,? (?:Inc\.?|LLC|LLP|Ltd\.?|PLC|N\.A\.|N\.V\.|GmbH|S\.A\.|Co\.?|Corp\.?|Corporation|Company))*`)

// BankOrgDetector is the lexicon-driven organization matcher. Proper-noun
// runs with a legal suffix become GENERIC_ORG; bank-indicative keywords
// promote the span to BANK_ORG.
type BankOrgDetector struct {
	suffixRx  *regexp.Regexp
	bankWords []string
}

// NewBankOrgDetector builds the detector from the embedded lexicons.
func NewBankOrgDetector(lex *patterns.Lexicons) *BankOrgDetector {
	var alts []string
	for _, s := range lex.OrgSuffixes {
		alts = append(alts, regexp.QuoteMeta(s))
	}
	// Optional trailing period for abbreviations like "Inc." and "Corp."
	suffixRx := regexp.MustCompile(`(?:,\s*|\s+)(?:` + strings.Join(alts, "|") + `)\.?\s*$`)
	return &BankOrgDetector{suffixRx: suffixRx, bankWords: lex.BankKeywords}
}

func (d *BankOrgDetector) Name() string { return "bank_org" }

func (d *BankOrgDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	var spans []textspan.Span
	for _, loc := range orgCandidateRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		// Trailing comma before a suffix match may leave punctuation.
		for end > start && (text[end-1] == ' ' || text[end-1] == ',') {
			end--
		}
		raw := text[start:end]
		if strings.Count(raw, " ") == 0 && !d.isBankName(raw) {
			// Single capitalized words need a suffix to count as an org.
			if !d.suffixRx.MatchString(raw) {
				continue
			}
		}
		hasSuffix := d.suffixRx.MatchString(raw)
		isBank := d.isBankName(raw)
		if !hasSuffix && !isBank {
			continue
		}
		label := textspan.LabelGenericOrg
		conf := 0.90
		if isBank {
			label = textspan.LabelBankOrg
			conf = 0.93
		}
		spans = append(spans, textspan.Span{
			Start:      start,
			End:        end,
			Text:       raw,
			Label:      label,
			Source:     d.Name(),
			Confidence: conf,
		})
	}
	return spans, nil
}

func (d *BankOrgDetector) isBankName(raw string) bool {
	for _, kw := range d.bankWords {
		if containsWord(raw, kw) {
			return true
		}
	}
	return false
}

// containsWord reports a case-sensitive whole-word match of kw in s.
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		beforeOK := i == 0 || !isWordByte(s[i-1])
		after := i + len(kw)
		afterOK := after == len(s) || !isWordByte(s[after])
		if beforeOK && afterOK {
			return true
		}
		idx = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
