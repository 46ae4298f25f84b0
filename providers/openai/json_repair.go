// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"strings"
	"unicode"
)

// repairJSON fixes a malformation some models produce: object keys missing
// their opening quote (for example `, relevance": 0.8` instead of
// `, "relevance": 0.8`). Anything else passes through unchanged.
func repairJSON(s string) string {
	runes := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 16)

	i := 0
	for i < len(runes) {
		ch := runes[i]
		out.WriteRune(ch)
		i++

		// Keys only appear after an object opener or a separator.
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(runes) && unicode.IsSpace(runes[i]) {
			out.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isKeyRune(runes[i]) {
			continue
		}

		start := i
		for i < len(runes) && (isKeyRune(runes[i]) || runes[i] == ' ') {
			i++
		}

		// A bare word ending in `":` is a key missing its opening quote.
		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			out.WriteRune('"')
			out.WriteString(strings.TrimSpace(string(runes[start:i])))
		} else {
			out.WriteString(string(runes[start:i]))
		}
	}

	return out.String()
}

// isKeyRune reports whether the rune can start or continue a JSON key name.
func isKeyRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
