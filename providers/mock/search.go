package mock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/poiesic/notectx/core"
)

// MockSearchClient is a test double for providers.WebSearchClient.
// It allows custom behavior injection via function fields.
type MockSearchClient struct {
	// SearchFunc is called by Search if set.
	// If nil, fabricates deterministic results for the query.
	SearchFunc func(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error)

	callCount atomic.Int64
}

// NewMockSearchClient creates a mock search client with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSearchClient() *MockSearchClient {
	return &MockSearchClient{}
}

// Search fabricates maxResults deterministic hits for the query.
func (m *MockSearchClient) Search(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error) {
	m.callCount.Add(1)

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, maxResults)
	}

	if maxResults < 1 {
		maxResults = 1
	}
	slug := strings.ReplaceAll(core.NormalizeText(query), " ", "-")
	results := make([]core.SearchResult, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		results = append(results, core.SearchResult{
			Term:    query,
			URL:     fmt.Sprintf("https://example.com/%s/%d", slug, i),
			Title:   fmt.Sprintf("Result %d for %s", i, query),
			Snippet: fmt.Sprintf("Snippet %d about %s.", i, query),
			Rank:    i,
		})
	}
	return results, nil
}

// CallCount returns the number of times Search was called.
func (m *MockSearchClient) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockSearchClient) Reset() {
	m.callCount.Store(0)
	m.SearchFunc = nil
}
