package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/plan"
	"github.com/sdrasco/freedact/internal/textspan"
)

func TestRunCleanOutput(t *testing.T) {
	report, err := Run(context.Background(), "nothing sensitive here", nil, config.Default(), true)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Zero(t, report.LeakageScore)
	assert.True(t, report.SeedPresent)
}

func TestRunFindsPlantedResidual(t *testing.T) {
	sanitized := "leftover contact real.person@gmail.com in output"
	report, err := Run(context.Background(), sanitized, nil, config.Default(), false)
	require.NoError(t, err)
	require.False(t, report.Clean())
	assert.Equal(t, 1, report.CountsByLabel[textspan.LabelEmail])
	assert.Equal(t, 3, report.LeakageScore)
	assert.Equal(t, "real.person@gmail.com", report.Residuals[0].Text)
	assert.Contains(t, report.Residuals[0].Context, "leftover contact")
	assert.False(t, report.SeedPresent)
}

func TestRunIgnoresGeneratedPseudonyms(t *testing.T) {
	sanitized := "write to wxyz@example.org today"
	entries := []plan.Entry{{
		Start: 9, End: 25,
		Original:    "jane@acme.com",
		Replacement: "wxyz@example.org",
		Label:       textspan.LabelEmail,
	}}
	report, err := Run(context.Background(), sanitized, entries, config.Default(), true)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "residuals: %v", report.Residuals)
}

func TestRunWeights(t *testing.T) {
	sanitized := "ssn 123-45-6789 and jane real.person@gmail.com"
	report, err := Run(context.Background(), sanitized, nil, config.Default(), false)
	require.NoError(t, err)
	// One ACCOUNT_ID (3) plus one EMAIL (3).
	assert.GreaterOrEqual(t, report.LeakageScore, 6)
}
