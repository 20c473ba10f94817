package recognize

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Normalize collapses noisy whitespace in OCR output.
// Conservative: keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	// collapse too many blank lines
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}

var (
	reDate   = regexp.MustCompile(`\b\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}\b`)
	reCurr   = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
)

// HeuristicConfidence scores recognized text on receipt-like artifacts
// (date-ish, currency-ish, amount-ish substrings plus overall length).
func HeuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
