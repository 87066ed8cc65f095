// Package patterns provides the embedded fixture corpora used by the
// detectors and the pseudonym generators: name lists, street and city
// names, organization roots, and the lexicons.yaml keyword tables.
package patterns

import (
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed given_names.txt
var givenNamesRaw string

//go:embed surnames.txt
var surnamesRaw string

//go:embed org_roots.txt
var orgRootsRaw string

//go:embed street_names.txt
var streetNamesRaw string

//go:embed city_names.txt
var cityNamesRaw string

//go:embed lexicons.yaml
var lexiconsYAML []byte

// Lexicons holds the keyword tables shared by the bank/org detector, the
// alias resolver, and the address generator.
type Lexicons struct {
	OrgSuffixes    []string `yaml:"org_suffixes"`
	BankKeywords   []string `yaml:"bank_keywords"`
	RoleTerms      []string `yaml:"role_terms"`
	StreetSuffixes []string `yaml:"street_suffixes"`
	StateCodes     []string `yaml:"state_codes"`
	SafeDomains    []string `yaml:"safe_domains"`
}

func splitList(raw string) []string {
	var out []string
	for _, f := range strings.Fields(raw) {
		out = append(out, f)
	}
	return out
}

// GivenNames returns the embedded given-name corpus.
func GivenNames() []string { return splitList(givenNamesRaw) }

// Surnames returns the embedded surname corpus.
func Surnames() []string { return splitList(surnamesRaw) }

// OrgRoots returns the embedded organization root-word corpus.
func OrgRoots() []string { return splitList(orgRootsRaw) }

// StreetNames returns the embedded street-name corpus.
func StreetNames() []string { return splitList(streetNamesRaw) }

// CityNames returns the embedded city-name corpus. City names may contain
// spaces, so the file is line-delimited.
func CityNames() []string {
	var out []string
	for _, line := range strings.Split(cityNamesRaw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// LoadLexicons parses the embedded lexicons.yaml.
func LoadLexicons() (*Lexicons, error) {
	var lex Lexicons
	if err := yaml.Unmarshal(lexiconsYAML, &lex); err != nil {
		return nil, err
	}
	return &lex, nil
}
