package llm

import "strings"

// StripJSONFence removes a leading "```json" marker and a trailing "```" marker.
// Only exact prefix/suffix matches are stripped; fences elsewhere in the text
// are left alone.
func StripJSONFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "\n")
	}
	return strings.TrimSuffix(text, "```")
}
