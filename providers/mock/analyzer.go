package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/notectx/core"
)

// MockAnalysisEngine is a test double for providers.AnalysisEngine.
// It allows custom behavior injection via function fields.
type MockAnalysisEngine struct {
	// AnalyzeFunc is called by Analyze if set.
	// If nil, returns one suggestion per document.
	AnalyzeFunc func(ctx context.Context, noteText string, document *core.FetchedDocument) ([]core.Suggestion, error)

	callCount atomic.Int64
}

// NewMockAnalysisEngine creates a mock analysis engine with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockAnalysisEngine() *MockAnalysisEngine {
	return &MockAnalysisEngine{}
}

// Analyze returns one mid-scored suggestion derived from the document.
func (m *MockAnalysisEngine) Analyze(ctx context.Context, noteText string, document *core.FetchedDocument) ([]core.Suggestion, error) {
	m.callCount.Add(1)

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, noteText, document)
	}

	if document == nil || document.Text == "" {
		return []core.Suggestion{}, nil
	}

	return []core.Suggestion{
		{
			Text:      document.Text,
			SourceURL: document.URL,
			Score:     0.5,
			Origins:   []core.SuggestionOrigin{core.OriginAnalysis},
			FetchedAt: document.FetchedAt,
		},
	}, nil
}

// CallCount returns the number of times Analyze was called.
func (m *MockAnalysisEngine) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockAnalysisEngine) Reset() {
	m.callCount.Store(0)
	m.AnalyzeFunc = nil
}
