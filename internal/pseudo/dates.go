package pseudo

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdrasco/freedact/internal/detect"
)

// maxDOBShiftDays bounds the cluster-deterministic date shift.
const maxDOBShiftDays = 3650

var monthFull = []string{"", "January", "February", "March", "April", "May",
	"June", "July", "August", "September", "October", "November", "December"}

var monthAbbr = []string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul",
	"Aug", "Sep", "Oct", "Nov", "Dec"}

// DateShifted shifts the date by a cluster-deterministic offset in
// [-3650, +3650] days (never zero) and renders it in the source format.
// Unparseable dates come back unchanged.
func (g *Generator) DateShifted(source, format string, clusterKey []byte, retry int) string {
	year, month, day, ok := detect.ParseDate(source, format)
	if !ok {
		return source
	}
	rng := StreamRNG(clusterKey, "date-shift", retry)
	offset := rng.Intn(2*maxDOBShiftDays+1) - maxDOBShiftDays
	if offset == 0 {
		offset = 1
	}
	shifted := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, offset)

	return renderDate(shifted, format, source)
}

func renderDate(d time.Time, format, source string) string {
	switch format {
	case detect.DateFormatISO:
		return d.Format("2006-01-02")
	case detect.DateFormatMDY:
		// Preserve zero padding when the source used it.
		parts := strings.Split(source, "/")
		mf, df := "%d", "%d"
		if len(parts) == 3 {
			if len(parts[0]) == 2 {
				mf = "%02d"
			}
			if len(parts[1]) == 2 {
				df = "%02d"
			}
		}
		return fmt.Sprintf(mf+"/"+df+"/%04d", int(d.Month()), d.Day(), d.Year())
	case detect.DateFormatMonthName:
		name := monthName(d, source)
		if strings.Contains(source, ",") {
			return fmt.Sprintf("%s %d, %d", name, d.Day(), d.Year())
		}
		return fmt.Sprintf("%s %d %d", name, d.Day(), d.Year())
	case detect.DateFormatDayMonth:
		return fmt.Sprintf("%d %s %d", d.Day(), monthName(d, source), d.Year())
	}
	return source
}

// monthName matches the source's month style: full names stay full,
// abbreviations stay abbreviated.
func monthName(d time.Time, source string) string {
	for _, tok := range strings.Fields(source) {
		t := strings.ToLower(strings.Trim(tok, ".,"))
		for m := 1; m <= 12; m++ {
			if t == strings.ToLower(monthFull[m]) {
				return monthFull[d.Month()]
			}
		}
		if len(t) >= 3 && len(t) <= 4 {
			for m := 1; m <= 12; m++ {
				if strings.HasPrefix(strings.ToLower(monthFull[m]), t) {
					return monthAbbr[d.Month()]
				}
			}
		}
	}
	return monthFull[d.Month()]
}
