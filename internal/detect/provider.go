package detect

import (
	"fmt"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// NEREntity is one model prediction from an external NER provider.
type NEREntity struct {
	Start      int
	End        int
	Label      string // PERSON, ORG, or LOC
	Confidence float64
}

// NERProvider is an optional external model. Probe reports whether the
// provider is usable; the pipeline functions without one.
type NERProvider interface {
	Probe() error
	Entities(text string) ([]NEREntity, error)
}

// Mention is a character range belonging to a coreference chain.
type Mention struct {
	Start int
	End   int
}

// CorefChain groups mentions of the same referent.
type CorefChain []Mention

// CorefProvider is an optional external coreference model.
type CorefProvider interface {
	Probe() error
	Chains(text string) ([]CorefChain, error)
}

// IngestNER converts provider entities into spans with the model's own
// confidence. Unknown labels are dropped.
func IngestNER(text string, entities []NEREntity) []textspan.Span {
	var spans []textspan.Span
	for _, e := range entities {
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			continue
		}
		var label textspan.Label
		switch e.Label {
		case "PERSON":
			label = textspan.LabelPerson
		case "ORG":
			label = textspan.LabelGenericOrg
		case "LOC":
			label = textspan.LabelLocation
		default:
			continue
		}
		spans = append(spans, textspan.Span{
			Start:      e.Start,
			End:        e.End,
			Text:       text[e.Start:e.End],
			Label:      label,
			Source:     "ner",
			Confidence: e.Confidence,
		})
	}
	textspan.SortSpans(spans)
	return spans
}

// RunNER probes and runs the provider per the config. The returned error
// is non-nil only when the provider is required.
func RunNER(p NERProvider, text string, cfg *config.Config) ([]textspan.Span, string, error) {
	if p == nil || !cfg.NEREnable {
		if cfg.NEREnable && cfg.NERRequire {
			return nil, "", fmt.Errorf("ner provider required but not configured")
		}
		return nil, "", nil
	}
	if err := p.Probe(); err != nil {
		if cfg.NERRequire {
			return nil, "", fmt.Errorf("ner provider required but unavailable: %w", err)
		}
		return nil, fmt.Sprintf("ner provider unavailable, skipping: %v", err), nil
	}
	entities, err := p.Entities(text)
	if err != nil {
		if cfg.NERRequire {
			return nil, "", fmt.Errorf("ner provider failed: %w", err)
		}
		return nil, fmt.Sprintf("ner provider failed, skipping: %v", err), nil
	}
	return IngestNER(text, entities), "", nil
}
