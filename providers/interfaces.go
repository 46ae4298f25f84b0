package providers

import (
	"context"

	"github.com/poiesic/notectx/core"
)

// EntityExtractor extracts salient terms and entities from note text.
// Implementations must tolerate arbitrarily long input via internal chunking
// and must be thread-safe for concurrent use.
type EntityExtractor interface {
	// Extract analyzes text and returns candidate terms with confidence
	// scores in [0,1] and rune offsets into the input. Output ordering is
	// deterministic: confidence descending, then source offset ascending.
	// Returns an empty slice if no candidates are found.
	Extract(ctx context.Context, text string) ([]core.Candidate, error)
}

// WebSearchClient searches the web for a query.
// Implementations apply their own retry/backoff for transient errors and
// their own politeness and identification policy, and must be thread-safe.
type WebSearchClient interface {
	// Search returns up to maxResults hits ordered by relevance.
	// The Rank field reflects the engine-reported order.
	Search(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error)
}

// ContentFetcher fetches one web page and returns its sanitized main content.
// Implementations enforce a response-size cap and a fetch timeout, and must
// be thread-safe for concurrent use.
type ContentFetcher interface {
	// Fetch retrieves the page at url with boilerplate removed.
	// A non-nil error means no usable document was produced.
	Fetch(ctx context.Context, url string) (*core.FetchedDocument, error)
}

// AnalysisEngine mines a fetched document for passages relevant to the note.
// Implementations must fail soft: when the underlying model is unavailable
// they return an empty slice and log the error rather than propagate it.
type AnalysisEngine interface {
	// Analyze returns zero or more suggestions extracted from the document,
	// scored for relevance to noteText.
	Analyze(ctx context.Context, noteText string, document *core.FetchedDocument) ([]core.Suggestion, error)
}

// Provider aggregates the four capability services for convenient
// initialization and lifecycle management. Each service is independently
// swappable; the orchestrator only ever sees these interfaces.
type Provider interface {
	// EntityExtractor returns the entity extraction service.
	EntityExtractor() EntityExtractor

	// SearchClient returns the web search service.
	SearchClient() WebSearchClient

	// Fetcher returns the content fetching service.
	Fetcher() ContentFetcher

	// AnalysisEngine returns the passage analysis service.
	AnalysisEngine() AnalysisEngine

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
