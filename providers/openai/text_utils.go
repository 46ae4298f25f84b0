package openai

import "strings"

// stripCodeFences removes a markdown code fence wrapper some models add
// around JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// splitChunks splits text into chunks of at most maxRunes runes, breaking
// on sentence boundaries where possible. A single sentence longer than
// maxRunes is split mid-sentence.
func splitChunks(text string, maxRunes int) []string {
	if maxRunes < 1 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxRunes
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Walk back to the latest sentence boundary inside the window.
		cut := end
		for cut > start {
			if isSentenceEnd(runes[cut-1]) {
				break
			}
			cut--
		}
		if cut == start {
			cut = end
		}

		chunks = append(chunks, string(runes[start:cut]))
		start = cut
	}
	return chunks
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// truncateRunes caps text at maxRunes runes.
func truncateRunes(text string, maxRunes int) string {
	if maxRunes < 1 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
