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

package duckduckgo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

// Default client behavior. The HTML endpoint needs no API key, which is
// why it is used instead of an official search API.
const (
	DefaultBaseURL     = "https://html.duckduckgo.com/html/"
	DefaultUserAgent   = "notectx/1.0 (note enrichment; +https://github.com/poiesic/notectx)"
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
	defaultHTTPTimeout = 10 * time.Second
)

// Client implements providers.WebSearchClient by scraping the DuckDuckGo
// HTML endpoint.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithBaseURL replaces the endpoint URL. Intended for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithUserAgent replaces the User-Agent header sent with each request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		if userAgent == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
		c.userAgent = userAgent
		return nil
	}
}

// WithMaxAttempts sets how many times a query is tried before giving up.
func WithMaxAttempts(attempts int) Option {
	return func(c *Client) error {
		if attempts < 1 {
			return fmt.Errorf("max attempts must be at least 1, got %d", attempts)
		}
		c.maxAttempts = attempts
		return nil
	}
}

// WithRetryDelay sets the fixed pause between attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) error {
		if delay < 0 {
			return fmt.Errorf("retry delay cannot be negative, got %v", delay)
		}
		c.retryDelay = delay
		return nil
	}
}

// NewClient creates a search client for the DuckDuckGo HTML endpoint.
//
// Returns providers.WebSearchClient interface to enforce abstraction.
func NewClient(opts ...Option) (providers.WebSearchClient, error) {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:     DefaultBaseURL,
		userAgent:   DefaultUserAgent,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default().With("component", "duckduckgo"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid search client option: %w", err)
		}
	}
	return c, nil
}

// Search runs one query and returns up to maxResults hits in relevance
// order. Transient failures are retried with a fixed delay.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxResults < 1 {
		maxResults = 1
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		results, err := c.searchOnce(ctx, query, maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.Warn("search attempt failed",
				"query", query,
				"attempt", attempt,
				"err", err)
			continue
		}

		c.logger.Debug("search complete",
			"query", query,
			"results", len(results),
			"attempt", attempt)
		return results, nil
	}

	return nil, fmt.Errorf("%w: %q after %d attempts: %w", ErrSearchFailed, query, c.maxAttempts, lastErr)
}

func (c *Client) searchOnce(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error) {
	endpoint := c.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return c.parseResults(doc, query, maxResults), nil
}

// parseResults walks the document for organic result blocks. Each block is
// a div carrying the "result" class; ads carry "result--ad" and are
// skipped.
func (c *Client) parseResults(doc *html.Node, query string, maxResults int) []core.SearchResult {
	var results []core.SearchResult
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" &&
			hasClass(n, "result") && !hasClass(n, "result--ad") {
			if r, ok := c.parseResult(n, query); ok {
				if _, dup := seen[r.URL]; !dup {
					seen[r.URL] = struct{}{}
					r.Rank = len(results)
					results = append(results, r)
				}
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return results
}

// parseResult extracts title, link, and snippet from one result block.
func (c *Client) parseResult(block *html.Node, query string) (core.SearchResult, bool) {
	link := findByClass(block, "a", "result__a")
	if link == nil {
		return core.SearchResult{}, false
	}

	target := resolveResultURL(attrValue(link, "href"))
	if target == "" {
		return core.SearchResult{}, false
	}

	snippet := ""
	if node := findByClass(block, "a", "result__snippet"); node != nil {
		snippet = collapseSpace(innerText(node))
	}

	return core.SearchResult{
		Term:    query,
		URL:     target,
		Title:   collapseSpace(innerText(link)),
		Snippet: snippet,
	}, true
}

// resolveResultURL normalizes a result href. The HTML endpoint wraps
// targets in a redirect of the form //duckduckgo.com/l/?uddg=<encoded>.
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if strings.HasSuffix(parsed.Hostname(), "duckduckgo.com") && strings.HasPrefix(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			href = target
			if parsed, err = url.Parse(href); err != nil {
				return ""
			}
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return href
}
