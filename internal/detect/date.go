package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// Date format attribute values, reused verbatim by the date pseudonym
// generator when reformatting shifted dates.
const (
	DateFormatMDY       = "mdy_numeric"
	DateFormatISO       = "iso"
	DateFormatMonthName = "month_name"
	DateFormatDayMonth  = "day_month_name"
)

var monthNames = map[string]int{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10, "november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

const monthAlt = `(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)`

var (
	monthDayYearRx = regexp.MustCompile(`\b` + monthAlt + ` \d{1,2},? \d{4}\b`)
	dayMonthYearRx = regexp.MustCompile(`\b\d{1,2} ` + monthAlt + ` \d{4}\b`)
	isoDateRx      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	mdyDateRx      = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
)

// DateDetector finds generic dates in the four supported formats. The DOB
// upgrade is a separate pass over the combined span set.
type DateDetector struct{}

func (d *DateDetector) Name() string { return "date" }

func (d *DateDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	var spans []textspan.Span
	seen := map[[2]int]bool{}

	emit := func(start, end int, format string, conf float64) {
		if !validDateText(text[start:end], format) {
			return
		}
		key := [2]int{start, end}
		if seen[key] {
			return
		}
		seen[key] = true
		spans = append(spans, textspan.Span{
			Start:      start,
			End:        end,
			Text:       text[start:end],
			Label:      textspan.LabelDateGeneric,
			Source:     d.Name(),
			Confidence: conf,
			Attrs:      map[string]string{textspan.AttrDateFormat: format},
		})
	}

	for _, loc := range monthDayYearRx.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1], DateFormatMonthName, 0.97)
	}
	for _, loc := range dayMonthYearRx.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1], DateFormatDayMonth, 0.97)
	}
	for _, loc := range isoDateRx.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1], DateFormatISO, 0.94)
	}
	for _, loc := range mdyDateRx.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1], DateFormatMDY, 0.94)
	}

	textspan.SortSpans(spans)
	return spans, nil
}

// ParseDate extracts (year, month, day) from a detected date span.
// Returns ok=false for impossible calendar dates.
func ParseDate(text, format string) (year, month, day int, ok bool) {
	switch format {
	case DateFormatMDY:
		parts := strings.Split(text, "/")
		if len(parts) != 3 {
			return 0, 0, 0, false
		}
		month, day, year = atoi(parts[0]), atoi(parts[1]), atoi(parts[2])
	case DateFormatISO:
		parts := strings.Split(text, "-")
		if len(parts) != 3 {
			return 0, 0, 0, false
		}
		year, month, day = atoi(parts[0]), atoi(parts[1]), atoi(parts[2])
	case DateFormatMonthName:
		fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
		if len(fields) != 3 {
			return 0, 0, 0, false
		}
		month = monthNames[strings.ToLower(fields[0])]
		day, year = atoi(fields[1]), atoi(fields[2])
	case DateFormatDayMonth:
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return 0, 0, 0, false
		}
		day = atoi(fields[0])
		month = monthNames[strings.ToLower(fields[1])]
		year = atoi(fields[2])
	default:
		return 0, 0, 0, false
	}
	if month < 1 || month > 12 || day < 1 || day > daysInMonth(year, month) {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

func validDateText(text, format string) bool {
	_, _, _, ok := ParseDate(text, format)
	return ok
}

func atoi(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return -1
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	}
	return 0
}
