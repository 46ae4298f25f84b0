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


// Package providers defines the capability contracts consumed by the
// enhancement pipeline.
//
// The pipeline never talks to a model, search engine, or web page directly;
// it calls one of four narrow interfaces:
//
//   - EntityExtractor: salient terms from note text
//   - WebSearchClient: web hits per query
//   - ContentFetcher: sanitized page content per URL
//   - AnalysisEngine: relevant passages per fetched document
//
// Provider aggregates the four for convenient construction and lifecycle
// management. Concrete implementations live in subpackages:
//
//   - providers/openai: EntityExtractor and AnalysisEngine over an
//     OpenAI-compatible chat API
//   - providers/duckduckgo: WebSearchClient over the DuckDuckGo HTML endpoint
//   - providers/web: ContentFetcher over plain HTTP
//   - providers/mock: test doubles for all four contracts
//
// Public constructors in the implementation packages return INTERFACE types
// to enforce abstraction; mock constructors return CONCRETE types so tests
// can inject behavior and assert call counts.
//
// Swapping a backend is a construction-time decision. The orchestrator holds
// a Provider and selects nothing by conditional branching.
package providers
