package security

import (
	"regexp"
	"strings"
)

// cardNumberRe matches 13 to 16 digits, optionally grouped by spaces or dashes.
var cardNumberRe = regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`)

// PIIDetector flags text that should not be forwarded to an external model.
type PIIDetector struct {
	keywords []string
}

func NewPIIDetector(keywords []string) *PIIDetector {
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &PIIDetector{keywords: lower}
}

// Detect returns true and what matched when text carries a configured
// keyword or something shaped like a payment card number.
func (d *PIIDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true, kw
		}
	}
	if cardNumberRe.MatchString(text) {
		return true, "card number"
	}
	return false, ""
}
