package pseudo

import (
	"math/rand"
	"strings"
)

// formatDigitsLike threads new digits through the source's formatting:
// every digit position takes the next new digit, everything else is kept.
func formatDigitsLike(source, digits string) string {
	out := make([]byte, 0, len(source))
	i := 0
	for _, ch := range []byte(source) {
		if ch >= '0' && ch <= '9' {
			if i < len(digits) {
				out = append(out, digits[i])
				i++
			} else {
				out = append(out, '0')
			}
			continue
		}
		out = append(out, ch)
	}
	return string(out)
}

func randDigits(n int, rng *rand.Rand) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('0' + rng.Intn(10))
	}
	return out
}

// luhnCheckDigit returns the digit that makes body+digit Luhn-valid.
func luhnCheckDigit(body string) byte {
	sum := 0
	alt := true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return byte('0' + (10-sum%10)%10)
}

// CCLike regenerates a Luhn-valid card number of the same digit count and
// formatting. The leading digit is forced to 9 so the prefix cannot match
// a real issuer range.
func (g *Generator) CCLike(source string, clusterKey []byte, retry int) string {
	digits := digitsOf(source)
	rng := StreamRNG(clusterKey, "cc:"+Signature(source), retry)
	body := randDigits(len(digits)-1, rng)
	body[0] = '9'
	full := string(body) + string(luhnCheckDigit(string(body)))
	return formatDigitsLike(source, full)
}

// ABALike regenerates a routing number satisfying the ABA checksum.
func (g *Generator) ABALike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "aba:"+Signature(source), retry)
	body := randDigits(8, rng)
	sum := 3*int(body[0]-'0') + 7*int(body[1]-'0') + int(body[2]-'0') +
		3*int(body[3]-'0') + 7*int(body[4]-'0') + int(body[5]-'0') +
		3*int(body[6]-'0') + 7*int(body[7]-'0')
	check := byte('0' + (10-sum%10)%10)
	return formatDigitsLike(source, string(body)+string(check))
}

// IBANLike regenerates an IBAN of the same country and length with valid
// mod-97 check digits. The BBAN keeps the source's letter/digit classes
// but every position is re-rolled, so the issuer prefix cannot survive.
func (g *Generator) IBANLike(source string, clusterKey []byte, retry int) string {
	compact := strings.ToUpper(strings.ReplaceAll(source, " ", ""))
	if len(compact) < 5 {
		return source
	}
	rng := StreamRNG(clusterKey, "iban:"+Signature(source), retry)
	country := compact[:2]
	bban := make([]byte, len(compact)-4)
	for i, ch := range []byte(compact[4:]) {
		if ch >= '0' && ch <= '9' {
			bban[i] = byte('0' + rng.Intn(10))
		} else {
			bban[i] = byte('A' + rng.Intn(26))
		}
	}
	check := ibanCheckDigits(country, string(bban))
	full := country + check + string(bban)

	// Re-flow through the source's spacing.
	out := make([]byte, 0, len(source))
	i := 0
	for _, ch := range []byte(source) {
		if ch == ' ' {
			out = append(out, ' ')
			continue
		}
		if i < len(full) {
			out = append(out, full[i])
			i++
		}
	}
	return string(out)
}

// ibanCheckDigits computes the two check digits for country+bban per
// ISO 13616: mod-97 of bban||country||"00" rearranged, check = 98 - r.
func ibanCheckDigits(country, bban string) string {
	rearranged := bban + country + "00"
	r := 0
	for _, ch := range rearranged {
		switch {
		case ch >= '0' && ch <= '9':
			r = (r*10 + int(ch-'0')) % 97
		case ch >= 'A' && ch <= 'Z':
			v := int(ch-'A') + 10
			r = (r*100 + v) % 97
		}
	}
	check := 98 - r
	return string([]byte{byte('0' + check/10), byte('0' + check%10)})
}

// SSNLike regenerates a syntactically valid SSN avoiding the forbidden
// 000/666/9xx areas, zero group, and zero serial.
func (g *Generator) SSNLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "ssn:"+Signature(source), retry)
	area := rng.Intn(898) + 1 // 001-898
	if area == 666 {
		area = 667
	}
	group := rng.Intn(99) + 1    // 01-99
	serial := rng.Intn(9999) + 1 // 0001-9999
	digits := twoPad(area, 3) + twoPad(group, 2) + twoPad(serial, 4)
	return formatDigitsLike(source, digits)
}

// EINLike regenerates an employer identification number.
func (g *Generator) EINLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "ein:"+Signature(source), retry)
	digits := string(randDigits(9, rng))
	if digits[0] == '0' && digits[1] == '0' {
		digits = "1" + digits[1:]
	}
	return formatDigitsLike(source, digits)
}

// GenericDigitsLike re-rolls every letter and digit of a generic account
// reference, preserving punctuation and casing classes.
func (g *Generator) GenericDigitsLike(source string, clusterKey []byte, retry int) string {
	rng := StreamRNG(clusterKey, "acct:"+Signature(source), retry)
	return replaceCharClasses(source, rng)
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func twoPad(v, width int) string {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte('0' + v%10)
		v /= 10
	}
	return string(out)
}
