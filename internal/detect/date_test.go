package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

func TestDateDetector(t *testing.T) {
	d := &DateDetector{}
	cfg := config.Default()

	tests := []struct {
		name   string
		text   string
		want   string
		format string
	}{
		{"month name", "born on July 4, 1982 in Ohio", "July 4, 1982", DateFormatMonthName},
		{"day month", "dated 4 July 1982 at noon", "4 July 1982", DateFormatDayMonth},
		{"iso", "effective 2020-01-15 onward", "2020-01-15", DateFormatISO},
		{"numeric", "signed 1/2/2020 by both", "1/2/2020", DateFormatMDY},
		{"abbreviated month", "due Sept 30, 2021", "Sept 30, 2021", DateFormatMonthName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := d.Detect(tt.text, cfg)
			require.NoError(t, err)
			require.Len(t, spans, 1)
			assert.Equal(t, tt.want, spans[0].Text)
			assert.Equal(t, tt.format, spans[0].Attr(textspan.AttrDateFormat))
			assert.Equal(t, textspan.LabelDateGeneric, spans[0].Label)
		})
	}
}

func TestDateDetectorRejectsImpossibleDates(t *testing.T) {
	d := &DateDetector{}
	spans, err := d.Detect("meeting 13/45/2020 and 2020-02-30", config.Default())
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestParseDate(t *testing.T) {
	y, m, day, ok := ParseDate("July 4, 1982", DateFormatMonthName)
	require.True(t, ok)
	assert.Equal(t, 1982, y)
	assert.Equal(t, 7, m)
	assert.Equal(t, 4, day)

	_, _, _, ok = ParseDate("Feb 29, 2021", DateFormatMonthName)
	assert.False(t, ok)

	_, _, _, ok = ParseDate("Feb 29, 2020", DateFormatMonthName)
	assert.True(t, ok)
}

func TestUpgradeDOB(t *testing.T) {
	d := &DateDetector{}
	cfg := config.Default()

	text := "The witness was born on July 4, 1982."
	spans, err := d.Detect(text, cfg)
	require.NoError(t, err)
	require.Len(t, spans, 1)

	upgraded := UpgradeDOB(text, spans)
	assert.Equal(t, textspan.LabelDOB, upgraded[0].Label)
	// Input slice is untouched.
	assert.Equal(t, textspan.LabelDateGeneric, spans[0].Label)
}

func TestUpgradeDOBOutOfRange(t *testing.T) {
	d := &DateDetector{}
	text := "DOB was redacted earlier in this very long paragraph of filler text. The meeting happened on July 4, 1982."
	spans, err := d.Detect(text, config.Default())
	require.NoError(t, err)
	require.Len(t, spans, 1)

	upgraded := UpgradeDOB(text, spans)
	assert.Equal(t, textspan.LabelDateGeneric, upgraded[0].Label)
}
