package audit

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
)

// Redact masks common high-risk PII before text reaches the audit trail.
// Card numbers are masked before phone numbers so a card is not half-matched
// as a phone.
func Redact(input string) string {
	out := emailPattern.ReplaceAllString(input, "[REDACTED_EMAIL]")
	out = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	out = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}
