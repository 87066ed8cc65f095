package detect

import "github.com/sdrasco/freedact/patterns"

func loadLexicons() (*patterns.Lexicons, error) {
	return patterns.LoadLexicons()
}
