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

package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

const (
	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 2 << 20

	// DefaultUserAgent identifies the fetcher to origin servers.
	DefaultUserAgent = "notectx/1.0 (note enrichment; +https://github.com/poiesic/notectx)"

	defaultHTTPTimeout = 10 * time.Second
)

// Fetcher implements providers.ContentFetcher over plain HTTP. It honors
// robots.txt, caps response sizes, and reduces pages to their readable
// main content.
type Fetcher struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
	robots       *robotsChecker
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher) error

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Fetcher) error {
		if httpClient == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		f.httpClient = httpClient
		return nil
	}
}

// WithUserAgent replaces the User-Agent header sent with each request.
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) error {
		if userAgent == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
		f.userAgent = userAgent
		return nil
	}
}

// WithMaxBodyBytes sets the response size cap.
func WithMaxBodyBytes(limit int64) Option {
	return func(f *Fetcher) error {
		if limit < 1 {
			return fmt.Errorf("body limit must be positive, got %d", limit)
		}
		f.maxBodyBytes = limit
		return nil
	}
}

// WithoutRobots disables robots.txt checks. Intended for tests.
func WithoutRobots() Option {
	return func(f *Fetcher) error {
		f.robots = nil
		return nil
	}
}

// NewFetcher creates a content fetcher.
//
// Returns providers.ContentFetcher interface to enforce abstraction.
func NewFetcher(opts ...Option) (providers.ContentFetcher, error) {
	f := &Fetcher{
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default().With("component", "web-fetcher"),
	}
	f.robots = newRobotsChecker(f)

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid fetcher option: %w", err)
		}
	}
	return f, nil
}

// Fetch retrieves one page and reduces it to readable text. Disallowed and
// unusable pages return an error; robots.txt being unreachable counts as
// permission.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchedDocument, error) {
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if f.robots != nil && !f.robots.allowed(ctx, target) {
		f.logger.Debug("fetch disallowed by robots.txt", "url", rawURL)
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "text/plain") {
		return nil, fmt.Errorf("%w: %s served %s", ErrUnsupportedContent, rawURL, contentType)
	}

	// Oversized bodies are truncated at the cap rather than rejected.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFetchFailed, rawURL, err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrFetchFailed, rawURL, err)
	}

	title, text := extractContent(doc)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, rawURL)
	}

	f.logger.Debug("page fetched",
		"url", rawURL,
		"title", title,
		"text_length", len(text))

	return &core.FetchedDocument{
		URL:       rawURL,
		Title:     title,
		Text:      text,
		FetchedAt: time.Now().UTC(),
		Status:    core.FetchOk,
	}, nil
}
