package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// personScoreThreshold is the minimum heuristic score for a PERSON span.
const personScoreThreshold = 0.60

var particles = map[string]bool{
	"de": true, "del": true, "della": true, "di": true, "da": true,
	"van": true, "von": true, "der": true, "den": true, "dos": true,
	"das": true, "du": true, "la": true, "le": true, "of": true,
	"bin": true, "bint": true, "ibn": true,
}

var nameSuffixes = map[string]bool{
	"JR": true, "SR": true, "II": true, "III": true, "IV": true,
	"ESQ": true, "ESQUIRE": true, "PHD": true, "MD": true, "JD": true,
	"LLM": true, "CPA": true,
}

var honorifics = map[string]bool{
	"mr": true, "ms": true, "mrs": true, "mx": true, "dr": true,
	"prof": true, "hon": true, "sir": true, "dame": true, "lord": true,
	"lady": true, "rev": true, "fr": true, "judge": true, "justice": true,
}

var roleLexicon = map[string]bool{
	"buyer": true, "seller": true, "plaintiff": true, "defendant": true,
	"appellant": true, "appellee": true, "petitioner": true,
	"respondent": true,
}

var upperStopwords = map[string]bool{
	"BUYER": true, "SELLER": true, "PLAINTIFF": true, "DEFENDANT": true,
	"APPELLANT": true, "APPELLEE": true, "PETITIONER": true,
	"RESPONDENT": true, "UNITED": true, "STATES": true, "BANK": true,
	"SECTION": true, "OF": true, "AMERICA": true,
}

// orgStopwords disqualify a token from counting as a core name token.
var orgStopwords = map[string]bool{
	"bank": true, "company": true, "co": true, "corp": true,
	"corporation": true, "inc": true, "llc": true, "llp": true,
	"ltd": true, "plc": true, "university": true, "college": true,
	"hospital": true, "association": true, "agency": true,
	"department": true, "section": true, "trust": true,
}

// monthTokens keep date fragments like "July 4" out of name candidates.
var monthTokens = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true,
	"december": true,
}

var initialRx = regexp.MustCompile(`^[A-Za-z]\.?$`)

// personCandidateRx matches runs of 2-5 capitalized tokens or initials,
// optionally led by an honorific and followed by a suffix.
var personCandidateRx = regexp.MustCompile(
	`\b(?:(?:Mr|Ms|Mrs|Mx|Dr|Prof|Hon|Rev|Judge|Justice)\.? )?` +
		`(?:[A-Z][A-Za-z'’-]*\.?|[A-Z]\.)` +
		`(?: (?:de|del|della|di|da|van|von|der|den|dos|das|du|la|le|bin|bint|ibn|[A-Z][A-Za-z'’-]*\.?|[A-Z]\.)){1,4}` +
		`(?:,? (?:Jr\.?|Sr\.?|II|III|IV|Esq\.?|Ph\.D\.?|M\.D\.?|J\.D\.?))?`)

// PersonDetector finds probable person names with a deterministic
// lexical heuristic.
type PersonDetector struct{}

func (d *PersonDetector) Name() string { return "person" }

func (d *PersonDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	var spans []textspan.Span
	for _, loc := range personCandidateRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], textspan.RTrimIndex(text, loc[1])
		raw := text[start:end]
		if containsMonthToken(raw) {
			continue
		}
		score := ScorePersonName(raw)
		if score < personScoreThreshold {
			continue
		}
		spans = append(spans, textspan.Span{
			Start:      start,
			End:        end,
			Text:       raw,
			Label:      textspan.LabelPerson,
			Source:     d.Name(),
			Confidence: score,
		})
	}
	return spans, nil
}

func containsMonthToken(raw string) bool {
	for _, tok := range strings.Fields(raw) {
		if monthTokens[strings.ToLower(strings.Trim(tok, ".,"))] {
			return true
		}
	}
	return false
}

// TokenizeName splits text into tokens suitable for name analysis.
func TokenizeName(text string) []string {
	text = strings.Trim(text, "\"'[]{}()<>")
	var tokens []string
	for _, raw := range strings.Fields(text) {
		tok := strings.Trim(raw, "[]{}()\"'")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func isInitial(tok string) bool { return initialRx.MatchString(tok) }

func isParticle(tok string) bool { return particles[tok] }

func normalizeSuffix(tok string) string {
	return strings.ToUpper(strings.NewReplacer(".", "", "-", "").Replace(tok))
}

func isSuffix(tok string) bool { return nameSuffixes[normalizeSuffix(tok)] }

func isHonorific(tok string) bool {
	return honorifics[strings.ToLower(strings.TrimRight(tok, "."))]
}

var romanNumerals = map[string]bool{
	"I": true, "II": true, "III": true, "IV": true, "V": true,
	"VI": true, "VII": true, "VIII": true, "IX": true, "X": true,
}

func isRomanNumeral(tok string) bool {
	return romanNumerals[strings.ToUpper(strings.TrimRight(tok, "."))]
}

// isCoreNameToken reports whether tok can serve as a given name or
// surname: capitalized, alphabetic apart from interior apostrophes or
// hyphens, and not an organization stopword.
func isCoreNameToken(tok string) bool {
	if tok == "" || strings.ContainsAny(tok, "0123456789") {
		return false
	}
	if orgStopwords[strings.ToLower(tok)] {
		return false
	}
	letters := strings.NewReplacer("-", "", "'", "", ".", "").Replace(tok)
	if letters == "" {
		return false
	}
	for _, r := range letters {
		if !isLetter(r) {
			return false
		}
	}
	first := rune(tok[0])
	return isLetter(first) && first >= 'A' && first <= 'Z'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ScorePersonName returns a confidence in [0,1] that text is a personal
// name. Scores at or above 0.60 are treated as high confidence.
func ScorePersonName(text string) float64 {
	tokens := TokenizeName(text)
	if len(tokens) == 0 {
		return 0
	}

	var core, initials, parts, suffixes []string
	for _, t := range tokens {
		switch {
		case isInitial(t):
			initials = append(initials, t)
		case isParticle(t):
			parts = append(parts, t)
		case isSuffix(t):
			suffixes = append(suffixes, t)
		case isCoreNameToken(t):
			core = append(core, t)
		}
	}

	score := 0.0
	if len(core) >= 2 || (len(core) > 0 && len(initials) > 0) {
		score += 0.45
		if len(core) >= 2 {
			score += 0.15
			extra := len(core) - 2
			if extra > 2 {
				extra = 2
			}
			score += float64(extra) * 0.15
		}
	}
	if len(initials) >= 1 && len(initials) <= 2 && len(core) > 0 {
		score += 0.15
	}
	if len(parts) > 0 {
		score += 0.10
	}
	if len(suffixes) > 0 {
		score += 0.05
	}
	if strings.ContainsAny(text, "0123456789") {
		score -= 0.25
	}

	allUpper := true
	for _, t := range tokens {
		if t != strings.ToUpper(t) {
			allUpper = false
			break
		}
	}
	if allUpper && len(tokens) > 1 {
		for _, t := range tokens {
			if upperStopwords[t] {
				score -= 0.20
				break
			}
		}
	}
	if len(tokens) == 1 && roleLexicon[strings.ToLower(tokens[0])] {
		score -= 0.30
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ParsedName holds the structural pieces of a person name.
type ParsedName struct {
	Honorifics []string
	Given      []string
	Particles  []string
	Surname    []string
	Suffixes   []string
}

// ParsePersonName splits a name into honorifics, given tokens, particles,
// surname tokens, and suffixes.
func ParsePersonName(text string) ParsedName {
	tokens := TokenizeName(text)
	var p ParsedName

	i := 0
	for i < len(tokens) && isHonorific(tokens[i]) {
		p.Honorifics = append(p.Honorifics, tokens[i])
		i++
	}
	tokens = tokens[i:]

	j := len(tokens) - 1
	for j >= 0 && (isSuffix(tokens[j]) || isRomanNumeral(tokens[j])) {
		p.Suffixes = append([]string{tokens[j]}, p.Suffixes...)
		j--
	}
	main := tokens[:j+1]

	if len(main) == 0 {
		return p
	}
	firstParticle := -1
	for idx, t := range main {
		if isParticle(t) {
			firstParticle = idx
			break
		}
	}
	if firstParticle >= 0 {
		last := firstParticle
		for last+1 < len(main) && isParticle(main[last+1]) {
			last++
		}
		p.Given = main[:firstParticle]
		p.Particles = main[firstParticle : last+1]
		p.Surname = main[last+1:]
		return p
	}
	if len(main) >= 3 && isCoreNameToken(main[len(main)-1]) &&
		isCoreNameToken(main[len(main)-2]) && !isInitial(main[len(main)-2]) {
		p.Given = main[:len(main)-2]
		p.Surname = main[len(main)-2:]
		return p
	}
	p.Given = main[:len(main)-1]
	p.Surname = main[len(main)-1:]
	return p
}
