package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxProductLen bounds the extracted product label.
const maxProductLen = 60

var productKeywords = []string{"product", "item", "المنتج", "الصنف"}

// numericLine matches lines made up entirely of digits, separators and
// whitespace. Such lines are never product labels.
var numericLine = regexp.MustCompile(`^[\d.,\s]+$`)

// ExtractProduct finds a short product label in normalized text. Lines
// containing a product-label keyword are tried first: the line after the
// keyword line is taken when it exists and is not purely numeric. Failing
// that, the longest non-numeric line wins, ties broken by first occurrence.
// An empty result means no plausible label was found.
func ExtractProduct(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	for i, line := range lines {
		if !containsKeyword(line, productKeywords) {
			continue
		}
		if i+1 >= len(lines) {
			continue
		}
		next := lines[i+1]
		if numericLine.MatchString(next) {
			continue
		}
		return truncateLabel(next)
	}

	// Line length is compared in characters so multi-byte script does not
	// outweigh longer Latin lines.
	longest := ""
	longestLen := 0
	for _, line := range lines {
		if numericLine.MatchString(line) {
			continue
		}
		if n := utf8.RuneCountInString(line); n > longestLen {
			longest = line
			longestLen = n
		}
	}
	if longest == "" {
		return ""
	}
	return truncateLabel(longest)
}

func containsKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// truncateLabel strips a leading colon and bounds the label length without
// splitting a multi-byte rune.
func truncateLabel(label string) string {
	label = strings.TrimSpace(strings.TrimPrefix(label, ":"))
	runes := []rune(label)
	if len(runes) > maxProductLen {
		label = string(runes[:maxProductLen])
	}
	return label
}
