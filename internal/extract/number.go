package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keyword sets for the keyword-anchored pass. The Arabic entries cover the
// common invoice labels for total/sum/amount and price/unit price.
var (
	amountKeywords = []string{"total", "amount", "المجموع", "الإجمالي", "المبلغ"}
	priceKeywords  = []string{"unit price", "price", "سعر الوحدة", "السعر"}
)

var (
	// A numeric token: integer or decimal, grouping commas allowed.
	numberToken = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)
	// Characters irrelevant to numeric scanning; everything except digits,
	// decimal points, grouping commas and whitespace is dropped before the
	// fallback token scan.
	nonNumeric = regexp.MustCompile(`[^\d.,\s]`)
)

// ExtractAmount finds the total/revenue figure in normalized text. A
// keyword-anchored match wins; otherwise the largest numeric token in the
// text is taken, on the heuristic that the invoice total is typically the
// largest number present. The second value is false only when the text
// contains no numeric token at all.
func ExtractAmount(text string) (float64, bool) {
	if v, ok := keywordNumber(text, amountKeywords); ok {
		return v, true
	}
	return scanTokens(text, func(best, v float64) bool { return v > best })
}

// ExtractPrice finds the unit price in normalized text. A keyword-anchored
// match wins; otherwise the smallest numeric token is taken, since per-unit
// prices are typically smaller than totals and quantity aggregates.
func ExtractPrice(text string) (float64, bool) {
	if v, ok := keywordNumber(text, priceKeywords); ok {
		return v, true
	}
	return scanTokens(text, func(best, v float64) bool { return v < best })
}

// keywordNumber returns the first number that follows one of the keywords
// within a window of at most 10 non-digit characters. Keyword matching is
// case-insensitive for the Latin entries. Both the keyword search and the
// window scan run over the same lowercased string, so the offsets stay
// aligned even when case folding changes byte lengths; digits and separators
// are unaffected by folding.
func keywordNumber(text string, keywords []string) (float64, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		idx := strings.Index(lower, kw)
		for idx >= 0 {
			rest := lower[idx+len(kw):]
			if v, ok := numberInWindow(rest); ok {
				return v, true
			}
			next := strings.Index(rest, kw)
			if next < 0 {
				break
			}
			idx += len(kw) + next
		}
	}
	return 0, false
}

// numberInWindow parses the leading number of s if it starts within 10
// non-digit characters. The window is measured in characters, not bytes, so
// Arabic filler words do not exhaust it early.
func numberInWindow(s string) (float64, bool) {
	loc := numberToken.FindStringIndex(s)
	if loc == nil {
		return 0, false
	}
	if utf8.RuneCountInString(s[:loc[0]]) > 10 {
		return 0, false
	}
	return parseNumber(s[loc[0]:loc[1]])
}

// scanTokens walks every numeric token in the text and keeps the one
// preferred by better.
func scanTokens(text string, better func(best, v float64) bool) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(text, " ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	var best float64
	found := false
	for _, tok := range numberToken.FindAllString(cleaned, -1) {
		v, ok := parseNumber(tok)
		if !ok {
			continue
		}
		if !found || better(best, v) {
			best = v
			found = true
		}
	}
	return best, found
}

// parseNumber strips grouping commas and parses a token as float64.
func parseNumber(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
