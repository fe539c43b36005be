package recognize

import "strings"

// cleanTranscript strips the decoration vision models sometimes wrap around
// a transcription despite the prompt: markdown code fences and surrounding
// whitespace. The text itself is left untouched.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	return text
}
