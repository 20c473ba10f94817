// Package fields turns a raw receipt text blob into a typed ReceiptData
// record. Each field runs its own ordered battery of patterns; fields are
// extracted independently and never cross-validated against each other.
package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Extractor is stateless and single-pass: each call is a pure function of the
// input text, aside from the date fallback reading the wall clock.
type Extractor struct {
	now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// Extract runs every field strategy over text and returns the assembled
// record. Extraction misses are silent; RawText is always set.
func (e *Extractor) Extract(text string) ReceiptData {
	return ReceiptData{
		Title:         e.ExtractTitle(text),
		Store:         e.ExtractStore(text),
		Price:         e.ExtractPrice(text),
		PurchaseDate:  e.ExtractPurchaseDate(text),
		TaxAmount:     e.ExtractTaxAmount(text),
		TotalAmount:   e.ExtractTotalAmount(text),
		PaymentMethod: e.ExtractPaymentMethod(text),
		WarrantyInfo:  e.ExtractWarrantyInfo(text),
		RawText:       text,
	}
}

// matchAmount applies an ordered amount table. Once a pattern matches, its
// first match is final: a failed numeric parse yields nil rather than falling
// through to the next pattern.
func matchAmount(text string, patterns []amountPattern) *float64 {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(m[1], "$"), ",", ""))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil
		}
		return &v
	}
	return nil
}

// ExtractPrice returns the primary transaction amount.
func (e *Extractor) ExtractPrice(text string) *float64 {
	return matchAmount(text, pricePatterns)
}

// ExtractTaxAmount returns the sales/VAT/GST amount.
func (e *Extractor) ExtractTaxAmount(text string) *float64 {
	return matchAmount(text, taxPatterns)
}

// ExtractTotalAmount returns the grand total. Extracted independently of
// price: the two may legitimately differ.
func (e *Extractor) ExtractTotalAmount(text string) *float64 {
	return matchAmount(text, totalPatterns)
}

// ExtractPurchaseDate tries each date pattern in order; the first that both
// matches and parses under its paired layout wins. When nothing matches it
// falls back to today's date so downstream warranty math always has one.
func (e *Extractor) ExtractPurchaseDate(text string) *time.Time {
	for _, p := range datePatterns {
		m := p.re.FindString(text)
		if m == "" {
			continue
		}
		if t, err := time.Parse(p.layout, normalizeMonthCase(m)); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return &today
}

// normalizeMonthCase rewrites "MARCH 15, 2024" to the capitalization
// time.Parse expects.
func normalizeMonthCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 && unicode.IsLetter(r[0]) {
			r[0] = unicode.ToUpper(r[0])
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}

// ExtractStore tries explicit labels first, then falls back to a positional
// heuristic: store names tend to sit in the header lines, before any totals
// or dates appear.
func (e *Extractor) ExtractStore(text string) *string {
	if v := matchLabeledLine(text, storeLabelPatterns); v != nil {
		return v
	}
	lines := strings.Split(text, "\n")
	limit := len(lines)
	if limit > 8 {
		limit = 8
	}
	return pickCandidateLine(lines[:limit], storeRejectWords)
}

// ExtractTitle mirrors the store strategy but scans the middle third of the
// lines: item descriptions sit between the store header and the totals
// footer.
func (e *Extractor) ExtractTitle(text string) *string {
	if v := matchLabeledLine(text, titleLabelPatterns); v != nil {
		return v
	}
	lines := strings.Split(text, "\n")
	lo := len(lines) / 3
	hi := 2 * len(lines) / 3
	if lo >= hi {
		return nil
	}
	return pickCandidateLine(lines[lo:hi], titleRejectWords)
}

func matchLabeledLine(text string, patterns []*regexp.Regexp) *string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := m[1]
		if len(v) > 50 {
			v = v[:50]
		}
		v = strings.TrimSpace(v)
		if len(v) <= 2 {
			continue
		}
		return &v
	}
	return nil
}

func pickCandidateLine(lines []string, rejectWords []string) *string {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 3 || len(line) > 50 {
			continue
		}
		if strings.Contains(line, "$") {
			continue
		}
		lower := strings.ToLower(line)
		rejected := false
		for _, w := range rejectWords {
			if strings.Contains(lower, w) {
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}
		return &line
	}
	return nil
}

// ExtractWarrantyInfo returns a trimmed text window around the first warranty
// keyword: 30 characters of leading context, 80 trailing. The window is
// returned verbatim, intentionally unstructured.
func (e *Extractor) ExtractWarrantyInfo(text string) *string {
	lower := strings.ToLower(text)
	for _, kw := range warrantyKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		start := idx - 30
		if start < 0 {
			start = 0
		}
		end := idx + 80
		if end > len(text) {
			end = len(text)
		}
		window := strings.TrimSpace(text[start:end])
		if window == "" {
			continue
		}
		return &window
	}
	return nil
}

// ExtractPaymentMethod scans the payment vocabulary in order and returns the
// first term present anywhere in the text, title-cased from the vocabulary
// term rather than the text's own casing.
func (e *Extractor) ExtractPaymentMethod(text string) *string {
	for _, term := range paymentVocabulary {
		if paymentRes[term].MatchString(text) {
			v := titleCase(term)
			return &v
		}
	}
	return nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
