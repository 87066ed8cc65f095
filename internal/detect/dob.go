package detect

import (
	"regexp"

	"github.com/sdrasco/freedact/internal/textspan"
)

// dobTriggerRx matches birth-date triggers. A DATE_GENERIC span within
// dobWindow characters of a trigger is promoted to DOB.
var dobTriggerRx = regexp.MustCompile(`(?i)\b(?:DOB|D\.O\.B\.|Date of Birth|born on|born:)`)

const dobWindow = 40

// UpgradeDOB promotes DATE_GENERIC spans near a birth trigger to DOB.
// The input slice is not mutated.
func UpgradeDOB(text string, spans []textspan.Span) []textspan.Span {
	triggers := dobTriggerRx.FindAllStringIndex(text, -1)
	if len(triggers) == 0 {
		return spans
	}
	out := make([]textspan.Span, len(spans))
	copy(out, spans)
	for i, sp := range out {
		if sp.Label != textspan.LabelDateGeneric {
			continue
		}
		for _, tr := range triggers {
			if sp.Start-tr[1] <= dobWindow && tr[0]-sp.End <= dobWindow {
				out[i].Label = textspan.LabelDOB
				out[i].Confidence = 0.98
				break
			}
		}
	}
	return out
}
