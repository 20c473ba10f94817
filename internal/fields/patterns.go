package fields

import "regexp"

// amountPattern anchors a monetary value to a label. Tables are ordered most
// specific first; the first pattern that matches anywhere in the text wins.
type amountPattern struct {
	name string
	re   *regexp.Regexp
}

func labeled(name, label string) amountPattern {
	return amountPattern{
		name: name,
		re:   regexp.MustCompile(`(?i)\b` + label + `\s*:?\s*\$?\s*(\d[\d,]*\.?\d*)`),
	}
}

// pricePatterns covers the primary transaction amount: labeled totals first,
// bare currency forms next, any decimal number as last resort.
var pricePatterns = []amountPattern{
	labeled("grand-total", `grand\s*total`),
	labeled("final-total", `final\s*total`),
	labeled("amount-due", `amount\s*due`),
	labeled("balance-due", `balance\s*due`),
	labeled("total-due", `total\s*due`),
	labeled("total-amount", `total\s*amount`),
	labeled("total", `total`),
	labeled("amount", `amount`),
	labeled("subtotal", `sub\s*total`),
	labeled("balance", `balance`),
	labeled("due", `due`),
	{"dollar-prefix", regexp.MustCompile(`\$\s*(\d[\d,]*\.?\d*)`)},
	{"dollar-suffix", regexp.MustCompile(`(\d[\d,]*\.?\d*)\s*\$`)},
	{"bare-decimal", regexp.MustCompile(`\b(\d[\d,]*\.\d{1,2})\b`)},
}

// totalPatterns covers the grand total. Subtotal sits last: it only stands in
// for the total when nothing better is labeled.
var totalPatterns = []amountPattern{
	labeled("grand-total", `grand\s*total`),
	labeled("final-total", `final\s*total`),
	labeled("total-amount", `total\s*amount`),
	labeled("amount-due", `amount\s*due`),
	labeled("balance-due", `balance\s*due`),
	labeled("total-due", `total\s*due`),
	labeled("total", `total`),
	labeled("subtotal", `sub\s*total`),
}

var taxPatterns = []amountPattern{
	labeled("sales-tax", `sales\s*tax`),
	labeled("tax-amount", `tax\s*amount`),
	labeled("vat", `vat`),
	labeled("gst", `gst`),
	labeled("hst", `hst`),
	labeled("tax", `tax`),
}

// datePattern pairs a shape regex with the layout used to parse its match.
// Unlike amounts, date extraction falls through: the first pattern that both
// matches and parses wins.
type datePattern struct {
	re     *regexp.Regexp
	layout string
}

var (
	reSlash4 = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	reDash4  = regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`)
	reDot4   = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`)
	reSlash2 = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2}\b`)
	reDash2  = regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2}\b`)
	reISO    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	reMonDay = regexp.MustCompile(`(?i)\b[a-z]{3,9}\.?\s+\d{1,2},?\s+\d{4}\b`)
	reDayMon = regexp.MustCompile(`(?i)\b\d{1,2}\s+[a-z]{3,9}\.?\s+\d{4}\b`)
)

// US month-first forms lead; day-first forms pick up values the US layouts
// reject (months > 12), then ISO and month-name formats.
var datePatterns = []datePattern{
	{reSlash4, "1/2/2006"},
	{reDash4, "1-2-2006"},
	{reDot4, "1.2.2006"},
	{reSlash2, "1/2/06"},
	{reDash2, "1-2-06"},
	{reSlash4, "2/1/2006"},
	{reDash4, "2-1-2006"},
	{reDot4, "2.1.2006"},
	{reISO, "2006-01-02"},
	{reMonDay, "January 2, 2006"},
	{reMonDay, "January 2 2006"},
	{reMonDay, "Jan 2, 2006"},
	{reMonDay, "Jan 2 2006"},
	{reDayMon, "2 January 2006"},
	{reDayMon, "2 Jan 2006"},
}

// Label patterns capture up to the end of the line; the extractor truncates to
// 50 characters and rejects results of 2 characters or fewer.
var storeLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bstore\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bshop\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bretailer\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bmerchant\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bpurchased\s+at\s*:?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bsold\s+by\s*:?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bfrom\s*:\s*([^\n]+)`),
}

var titleLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bitem\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bproduct\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\bdescription\s*:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\btitle\s*:\s*([^\n]+)`),
}

// Words that disqualify a line from the positional store heuristic.
var storeRejectWords = []string{"total", "date", "time", "receipt", "subtotal", "tax"}

// The title heuristic additionally rejects footer vocabulary.
var titleRejectWords = []string{"total", "date", "time", "receipt", "subtotal", "tax", "change", "cash"}

var warrantyKeywords = []string{
	"warranty",
	"guarantee",
	"guaranteed",
	"coverage",
	"protection plan",
	"return policy",
}

// paymentVocabulary is scanned in order; multi-word brands precede the generic
// terms they contain.
var paymentVocabulary = []string{
	"apple pay",
	"google pay",
	"paypal",
	"credit card",
	"debit card",
	"american express",
	"mastercard",
	"amex",
	"visa",
	"discover",
	"gift card",
	"check",
	"cash",
}

var paymentRes = buildPaymentRes()

func buildPaymentRes() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(paymentVocabulary))
	for _, term := range paymentVocabulary {
		m[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return m
}
