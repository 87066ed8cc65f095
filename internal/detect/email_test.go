package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

func TestEmailDetector(t *testing.T) {
	d := &EmailDetector{}
	cfg := config.Default()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "Contact jane@acme.com today", []string{"jane@acme.com"}},
		{"trailing punctuation excluded", "Email: bob.smith@example.co.uk.", []string{"bob.smith@example.co.uk"}},
		{"plus tag", "dev+test@foo.io is fine", []string{"dev+test@foo.io"}},
		{"no dot in domain", "user@localhost is not detected", nil},
		{"two addresses", "a.b@x.org and c@y.net", []string{"a.b@x.org", "c@y.net"}},
		{"none", "plain text only", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := d.Detect(tt.text, cfg)
			require.NoError(t, err)
			var got []string
			for _, sp := range spans {
				assert.Equal(t, textspan.LabelEmail, sp.Label)
				assert.Equal(t, tt.text[sp.Start:sp.End], sp.Text)
				got = append(got, sp.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmailDetectorAttrs(t *testing.T) {
	d := &EmailDetector{}
	spans, err := d.Detect("Jane.Doe@Acme.COM", config.Default())
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "Jane.Doe", spans[0].Attr("local"))
	assert.Equal(t, "acme.com", spans[0].Attr("domain"))
}
