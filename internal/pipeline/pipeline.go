// Package pipeline chains the sanitization stages: normalize, detect,
// link, merge, generate, guard, plan, apply, verify. The pipeline is a
// pure function of (raw text, config, secret); all I/O happens at the
// boundaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/guard"
	"github.com/sdrasco/freedact/internal/link"
	"github.com/sdrasco/freedact/internal/merge"
	"github.com/sdrasco/freedact/internal/normalize"
	"github.com/sdrasco/freedact/internal/otel"
	"github.com/sdrasco/freedact/internal/plan"
	"github.com/sdrasco/freedact/internal/pseudo"
	"github.com/sdrasco/freedact/internal/textspan"
	"github.com/sdrasco/freedact/internal/verify"
)

var tracer = otel.Tracer("github.com/sdrasco/freedact/internal/pipeline")

// Providers carries the optional external model hooks. The pipeline
// functions with both nil.
type Providers struct {
	NER   detect.NERProvider
	Coref detect.CorefProvider
}

// Result is everything a run produces. Audit assembly happens at the
// boundary from Plan + CharMap + Warnings.
type Result struct {
	Sanitized    string
	Plan         []plan.Entry
	CharMap      []int
	Warnings     []string
	Verification *verify.Report
	Clusters     link.ClusterSet
}

// Run sanitizes one document. Cancellation is cooperative at stage
// boundaries; there is no I/O inside.
func Run(ctx context.Context, rawText string, cfg *config.Config, secret []byte, providers Providers) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfig)
	}
	if cfg.RequireSecret && len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret required but absent", ErrConfig)
	}
	if rawText == "" {
		return &Result{Sanitized: "", Plan: nil, CharMap: []int{}, Clusters: link.ClusterSet{}}, nil
	}

	// Stage 1: preprocess.
	norm := normalize.Normalize(rawText)
	text := norm.Text

	// Stage 2: detectors.
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	reg, err := detect.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	spans, warnings := reg.RunAll(ctx, text, cfg)

	nerSpans, warn, err := detect.RunNER(providers.NER, text, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}
	if warn != "" {
		warnings = append(warnings, warn)
	}
	spans = append(spans, nerSpans...)
	textspan.SortSpans(spans)

	spans = detect.UpgradeDOB(text, spans)

	// Stage 3: address merging.
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	spans = link.MergeAddressLines(text, spans)

	// Stage 4: linking.
	scope := pseudo.DocScope(rawText, cfg.CrossDocConsistency)
	seeder, err := pseudo.NewSeeder(secret, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving master key: %v", ErrConfig, err)
	}
	defer seeder.Close()

	spans, aliasClusters := link.ResolveAliases(text, spans, cfg.KeepRoles(), seeder)
	spans, clusters := link.ClusterMentions(spans, aliasClusters, seeder)

	if cfg.CorefEnable && providers.Coref != nil {
		if probeErr := providers.Coref.Probe(); probeErr != nil {
			warnings = append(warnings, fmt.Sprintf("coref provider unavailable, skipping: %v", probeErr))
		} else if chains, chainErr := providers.Coref.Chains(text); chainErr != nil {
			warnings = append(warnings, fmt.Sprintf("coref provider failed, skipping: %v", chainErr))
		} else {
			spans = link.MergeCoref(spans, clusters, chains)
		}
	}

	// Stage 5: span-level guards, then the global merge.
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	headings := guard.FindHeadingRanges(text)
	spans = guard.FilterSpans(spans, headings, cfg.ProtectHeadings, cfg.LocationsOutsideAddresses)
	merged := merge.Merge(text, spans)

	// Stage 6-8: generate, guard, plan.
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	gen, err := pseudo.NewGenerator(seeder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	gd := guard.New(cfg.SensitiveValues)
	entries, err := plan.Build(merged, clusters, gen, gd, cfg)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrUnsafe):
			return nil, fmt.Errorf("%w: %v", ErrPseudonym, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrPlan, err)
		}
	}

	sanitized, err := plan.Apply(text, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlan, err)
	}

	// Stage 9: verification.
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	report, err := verify.Run(ctx, sanitized, entries, cfg, seeder.Seeded())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlan, err)
	}

	result := &Result{
		Sanitized:    sanitized,
		Plan:         entries,
		CharMap:      norm.CharMap,
		Warnings:     warnings,
		Verification: report,
		Clusters:     clusters,
	}

	if cfg.FailOnResidual && !report.Clean() {
		log.Warn().Int("leakage_score", report.LeakageScore).
			Int("residuals", len(report.Residuals)).
			Msg("residual PII in strict mode")
		return result, fmt.Errorf("%w: %d residual span(s), leakage score %d",
			ErrVerification, len(report.Residuals), report.LeakageScore)
	}

	log.Debug().
		Int("plan_entries", len(entries)).
		Int("clusters", len(clusters)).
		Int("warnings", len(warnings)).
		Msg("pipeline complete")

	return result, nil
}

func stageGate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
