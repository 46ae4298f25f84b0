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

package providers

import (
	"errors"
	"io"
	"log/slog"
)

// composite assembles the four capability services into one Provider.
type composite struct {
	extractor EntityExtractor
	search    WebSearchClient
	fetcher   ContentFetcher
	analyzer  AnalysisEngine
	logger    *slog.Logger
}

// NewProvider bundles independently constructed capability services into a
// Provider. All four services are required.
//
// Returns Provider interface to enforce abstraction.
func NewProvider(extractor EntityExtractor, search WebSearchClient, fetcher ContentFetcher, analyzer AnalysisEngine) (Provider, error) {
	if extractor == nil || search == nil || fetcher == nil || analyzer == nil {
		return nil, ErrMissingService
	}
	return &composite{
		extractor: extractor,
		search:    search,
		fetcher:   fetcher,
		analyzer:  analyzer,
		logger:    slog.Default().With("component", "provider"),
	}, nil
}

// EntityExtractor returns the entity extraction service.
func (p *composite) EntityExtractor() EntityExtractor {
	return p.extractor
}

// SearchClient returns the web search service.
func (p *composite) SearchClient() WebSearchClient {
	return p.search
}

// Fetcher returns the content fetching service.
func (p *composite) Fetcher() ContentFetcher {
	return p.fetcher
}

// AnalysisEngine returns the document analysis service.
func (p *composite) AnalysisEngine() AnalysisEngine {
	return p.analyzer
}

// Close releases every service that holds resources.
func (p *composite) Close() error {
	p.logger.Debug("closing provider")

	var errs []error
	for _, service := range []any{p.extractor, p.search, p.fetcher, p.analyzer} {
		if closer, ok := service.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
