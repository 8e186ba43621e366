package enrich

import "regexp"

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// RedactPII replaces email addresses and ten-digit phone numbers with placeholders.
func RedactPII(text string) string {
	text = emailPattern.ReplaceAllString(text, "[email removed]")
	return phonePattern.ReplaceAllString(text, "[phone removed]")
}
