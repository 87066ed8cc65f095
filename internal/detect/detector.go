// Package detect implements the candidate span detectors.
//
// Every detector is pure over (normalized text, config) and may emit spans
// that overlap spans from other detectors; the global merger resolves
// conflicts later. Detectors are registered in a fixed order and can be
// executed concurrently; output is always sorted by (start, end, label,
// source) so parallelism never changes results.
package detect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/otel"
	"github.com/sdrasco/freedact/internal/textspan"
)

var tracer = otel.Tracer("github.com/sdrasco/freedact/internal/detect")

// Detector is the uniform contract every scanner implements.
type Detector interface {
	Name() string
	Detect(text string, cfg *config.Config) ([]textspan.Span, error)
}

// Registry holds the detectors for one pipeline instance.
type Registry struct {
	detectors []Detector
}

// NewRegistry builds the standard rule-detector set. Optional providers
// (NER, coref) are ingested separately by the pipeline.
func NewRegistry() (*Registry, error) {
	lex, err := loadLexicons()
	if err != nil {
		return nil, fmt.Errorf("loading lexicons: %w", err)
	}
	return &Registry{detectors: []Detector{
		&EmailDetector{},
		&PhoneDetector{},
		&AccountIDDetector{},
		&PersonDetector{},
		NewBankOrgDetector(lex),
		&AddressLineDetector{},
		&DateDetector{},
		NewAliasDetector(lex),
	}}, nil
}

// Detectors returns the registered detectors in order.
func (r *Registry) Detectors() []Detector { return r.detectors }

// RunAll executes every detector and returns the combined, sorted span
// list. Detectors run concurrently; a detector error skips that detector
// with a warning rather than failing the run, matching the recover-locally
// policy for non-required detectors.
func (r *Registry) RunAll(ctx context.Context, text string, cfg *config.Config) ([]textspan.Span, []string) {
	ctx, span := tracer.Start(ctx, "detect.run_all")
	defer span.End()

	results := make([][]textspan.Span, len(r.detectors))
	warnings := make([]string, len(r.detectors))

	g, _ := errgroup.WithContext(ctx)
	for i, d := range r.detectors {
		i, d := i, d
		g.Go(func() error {
			spans, err := d.Detect(text, cfg)
			if err != nil {
				warnings[i] = fmt.Sprintf("detector %s skipped: %v", d.Name(), err)
				log.Warn().Str("detector", d.Name()).Err(err).Msg("detector failed, skipping")
				return nil
			}
			results[i] = spans
			return nil
		})
	}
	_ = g.Wait()

	var all []textspan.Span
	for _, spans := range results {
		all = append(all, spans...)
	}
	textspan.SortSpans(all)

	var warns []string
	for _, w := range warnings {
		if w != "" {
			warns = append(warns, w)
		}
	}
	return all, warns
}
