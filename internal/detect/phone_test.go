package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/config"
)

func TestPhoneDetector(t *testing.T) {
	d := &PhoneDetector{}
	cfg := config.Default()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"nanp parens", "Call (212) 555-0173 now", []string{"(212) 555-0173"}},
		{"nanp dashes", "Fax: 212-555-0100", []string{"212-555-0100"}},
		{"nanp dots", "at 212.555.0100", []string{"212.555.0100"}},
		{"e164", "Mobile +14155550123", []string{"+14155550123"}},
		{"country prefix", "1-212-555-0100 works", []string{"1-212-555-0100"}},
		{"identical digits rejected", "1111111111 and 111-111-1111", nil},
		{"section symbol context", "see § 555-0100123", nil},
		{"none", "meeting at 3pm", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := d.Detect(tt.text, cfg)
			require.NoError(t, err)
			var got []string
			for _, sp := range spans {
				got = append(got, sp.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhoneDetectorSkipsCitations(t *testing.T) {
	d := &PhoneDetector{}
	spans, err := d.Detect("Case No. 212-555-0100", config.Default())
	require.NoError(t, err)
	assert.Empty(t, spans)
}
