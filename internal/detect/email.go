package detect

import (
	"regexp"
	"strings"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/textspan"
)

// emailRx accepts RFC 5322-compatible local parts and requires a dotted
// domain. Quoted local parts are intentionally out of scope.
var emailRx = regexp.MustCompile(
	`[A-Za-z0-9!#$%&'*+/=?^_` + "`" + `{|}~.-]+@[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)+`)

// EmailDetector finds email addresses.
type EmailDetector struct{}

func (d *EmailDetector) Name() string { return "email" }

func (d *EmailDetector) Detect(text string, _ *config.Config) ([]textspan.Span, error) {
	var spans []textspan.Span
	for _, loc := range emailRx.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		end = textspan.RTrimIndex(text, end)
		raw := text[start:end]
		at := strings.LastIndexByte(raw, '@')
		if at <= 0 || at == len(raw)-1 {
			continue
		}
		local, domain := raw[:at], raw[at+1:]
		if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
			continue
		}
		if !strings.Contains(domain, ".") {
			continue
		}
		spans = append(spans, textspan.Span{
			Start:      start,
			End:        end,
			Text:       raw,
			Label:      textspan.LabelEmail,
			Source:     d.Name(),
			Confidence: 0.99,
			Attrs: map[string]string{
				"local":  local,
				"domain": strings.ToLower(domain),
			},
		})
	}
	return spans, nil
}
