package pseudo

import "strings"

// PhoneLike regenerates a phone number in the fictional 555 range,
// preserving the source formatting. Ten-digit numbers become
// (555) 555-01XX shaped digits; shorter forms keep 555-01XX.
func (g *Generator) PhoneLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "phone:"+Signature(source), retry)
	line := rng.Intn(100)
	digits := digitsOf(source)

	var newDigits string
	tail := "555" + "01" + twoPad(line, 2)
	switch {
	case strings.HasPrefix(strings.TrimSpace(source), "+"):
		// Keep a country code digit count of 1 and force the 555 area.
		newDigits = "1" + "555" + tail
	case len(digits) == 11:
		newDigits = "1" + "555" + tail
	case len(digits) >= 10:
		newDigits = "555" + tail
	default:
		newDigits = tail
	}
	return formatDigitsLike(source, newDigits)
}
