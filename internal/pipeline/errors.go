package pipeline

import "errors"

// Error kinds. Only config, plan, and strict-mode failures abort a run;
// detector problems degrade to warnings in the audit bundle.
var (
	// ErrConfig marks invalid configuration or a missing required
	// secret. Fatal at startup.
	ErrConfig = errors.New("config error")

	// ErrDetector marks a required provider that is unavailable.
	ErrDetector = errors.New("detector error")

	// ErrPseudonym marks a span for which no safe replacement could be
	// generated in strict mode.
	ErrPseudonym = errors.New("pseudonym error")

	// ErrPlan marks overlapping plan entries after merge — a bug. No
	// output is written.
	ErrPlan = errors.New("plan error")

	// ErrVerification marks residual PII in strict mode.
	ErrVerification = errors.New("verification failure")
)
