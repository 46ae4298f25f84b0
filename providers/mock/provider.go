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

package mock

import "github.com/poiesic/notectx/providers"

// MockProvider is a test double for providers.Provider.
// It aggregates mock instances of all four capability services.
type MockProvider struct {
	extractor *MockEntityExtractor
	search    *MockSearchClient
	fetcher   *MockFetcher
	analyzer  *MockAnalysisEngine
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns providers.Provider interface for consistency with production
// constructors. Use the GetMock* accessors for test assertions.
func NewMockProvider() providers.Provider {
	return &MockProvider{
		extractor: NewMockEntityExtractor(),
		search:    NewMockSearchClient(),
		fetcher:   NewMockFetcher(),
		analyzer:  NewMockAnalysisEngine(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock
// services, allowing full control over the behavior of each one.
func NewMockProviderWithServices(
	extractor *MockEntityExtractor,
	search *MockSearchClient,
	fetcher *MockFetcher,
	analyzer *MockAnalysisEngine,
) providers.Provider {
	return &MockProvider{
		extractor: extractor,
		search:    search,
		fetcher:   fetcher,
		analyzer:  analyzer,
	}
}

// EntityExtractor returns the mock entity extractor.
func (p *MockProvider) EntityExtractor() providers.EntityExtractor {
	return p.extractor
}

// SearchClient returns the mock search client.
func (p *MockProvider) SearchClient() providers.WebSearchClient {
	return p.search
}

// Fetcher returns the mock content fetcher.
func (p *MockProvider) Fetcher() providers.ContentFetcher {
	return p.fetcher
}

// AnalysisEngine returns the mock analysis engine.
func (p *MockProvider) AnalysisEngine() providers.AnalysisEngine {
	return p.analyzer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockExtractor returns the underlying mock extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockEntityExtractor {
	return p.extractor
}

// GetMockSearchClient returns the underlying mock search client for test assertions.
func (p *MockProvider) GetMockSearchClient() *MockSearchClient {
	return p.search
}

// GetMockFetcher returns the underlying mock fetcher for test assertions.
func (p *MockProvider) GetMockFetcher() *MockFetcher {
	return p.fetcher
}

// GetMockAnalysisEngine returns the underlying mock analysis engine for test assertions.
func (p *MockProvider) GetMockAnalysisEngine() *MockAnalysisEngine {
	return p.analyzer
}
