package extract

// Normalize canonicalizes recognized text before field extraction. Eastern
// Arabic-Indic digits are mapped to their ASCII digits and Arabic comma,
// thousands and decimal separators are mapped to their ASCII equivalents.
// The function is pure, total and idempotent; everything else passes through
// unchanged, so an empty input yields an empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	mapped := make([]rune, 0, len(text))
	for _, r := range text {
		switch {
		case r >= '٠' && r <= '٩':
			// U+0660..U+0669 are in codepoint order, so the offset to
			// ASCII '0'..'9' is constant.
			mapped = append(mapped, '0'+(r-'٠'))
		case r == '،' || r == '٬':
			mapped = append(mapped, ',')
		case r == '٫':
			mapped = append(mapped, '.')
		default:
			mapped = append(mapped, r)
		}
	}
	return string(mapped)
}
