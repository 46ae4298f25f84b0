package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/poiesic/notectx/core"
)

// MockFetcher is a test double for providers.ContentFetcher.
// It allows custom behavior injection via function fields.
type MockFetcher struct {
	// FetchFunc is called by Fetch if set.
	// If nil, fabricates a small document for the URL.
	FetchFunc func(ctx context.Context, url string) (*core.FetchedDocument, error)

	callCount atomic.Int64
}

// NewMockFetcher creates a mock content fetcher with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// Fetch fabricates a sanitized document for the URL.
func (m *MockFetcher) Fetch(ctx context.Context, url string) (*core.FetchedDocument, error) {
	m.callCount.Add(1)

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}

	return &core.FetchedDocument{
		URL:       url,
		Title:     "Mock page",
		Text:      "Mock page content fetched from " + url + ".",
		FetchedAt: time.Now().UTC(),
		Status:    core.FetchOk,
	}, nil
}

// CallCount returns the number of times Fetch was called.
func (m *MockFetcher) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockFetcher) Reset() {
	m.callCount.Store(0)
	m.FetchFunc = nil
}
