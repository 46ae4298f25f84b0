package mock

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/poiesic/notectx/core"
)

// MockEntityExtractor is a test double for providers.EntityExtractor.
// It allows custom behavior injection via function fields.
type MockEntityExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, uses default simple word extraction.
	ExtractFunc func(ctx context.Context, text string) ([]core.Candidate, error)

	callCount atomic.Int64
}

// NewMockEntityExtractor creates a mock entity extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// Extract extracts simple mock candidates from text.
// Default behavior: capitalized words and standalone numbers become
// candidates with descending confidence, in order of first appearance.
func (m *MockEntityExtractor) Extract(ctx context.Context, text string) ([]core.Candidate, error) {
	m.callCount.Add(1)

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text)
	}

	seen := make(map[string]bool)
	candidates := make([]core.Candidate, 0, 8)
	confidence := 0.95

	byteOff := 0
	for _, word := range strings.Fields(text) {
		start := byteOff + strings.Index(text[byteOff:], word)
		byteOff = start + len(word)

		cleaned := strings.Trim(word, ".,!?;:\"'()[]{}")
		if cleaned == "" || !looksSalient(cleaned) {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true

		candidates = append(candidates, core.Candidate{
			Term:       cleaned,
			Confidence: confidence,
			Offset:     utf8.RuneCountInString(text[:start]),
		})
		if confidence > 0.1 {
			confidence -= 0.05
		}
		if len(candidates) >= 8 {
			break
		}
	}

	return candidates, nil
}

// looksSalient reports whether a cleaned word resembles an entity: it starts
// with an uppercase letter or is entirely digits.
func looksSalient(word string) bool {
	r := []rune(word)[0]
	if r >= 'A' && r <= 'Z' {
		return true
	}
	for _, d := range word {
		if d < '0' || d > '9' {
			return false
		}
	}
	return true
}

// CallCount returns the number of times Extract was called.
func (m *MockEntityExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockEntityExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractFunc = nil
}
