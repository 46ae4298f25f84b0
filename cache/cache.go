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

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

// DefaultTTL is how long cached documents stay valid.
const DefaultTTL = 24 * time.Hour

// FetchCache decorates a providers.ContentFetcher with a BadgerDB cache.
// Only successfully fetched documents are stored; entries expire through
// badger's native TTL. Cache faults fall through to the wrapped fetcher.
type FetchCache struct {
	fetcher providers.ContentFetcher
	backend *Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures a FetchCache.
type Option func(*FetchCache) error

// WithTTL sets how long cached documents stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(c *FetchCache) error {
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive, got %v", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// New creates a caching decorator around the given fetcher, backed by the
// given backend. The caller keeps ownership of the backend; Close on the
// cache closes it.
//
// Returns the concrete type so callers can reach Close.
func New(fetcher providers.ContentFetcher, backend *Backend, opts ...Option) (*FetchCache, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if backend == nil {
		return nil, ErrBackendRequired
	}

	c := &FetchCache{
		fetcher: fetcher,
		backend: backend,
		ttl:     DefaultTTL,
		logger:  slog.Default().With("component", "fetch-cache"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid cache option: %w", err)
		}
	}
	return c, nil
}

var _ providers.ContentFetcher = (*FetchCache)(nil)

// Fetch returns the cached document for the URL when present, delegating
// to the wrapped fetcher otherwise. Fresh documents with Status Ok are
// stored with the configured TTL.
func (c *FetchCache) Fetch(ctx context.Context, url string) (*core.FetchedDocument, error) {
	key := makeDocumentKey(url)

	if document, ok := c.lookup(key); ok {
		c.logger.Debug("cache hit", "url", url)
		return document, nil
	}

	document, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if document != nil && document.Status == core.FetchOk {
		c.store(key, document)
	}
	return document, nil
}

// Close closes the underlying backend.
func (c *FetchCache) Close() error {
	return c.backend.Close()
}

func (c *FetchCache) lookup(key []byte) (*core.FetchedDocument, bool) {
	var document *core.FetchedDocument
	err := c.backend.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			document, err = UnmarshalDocument(value)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("cache lookup failed", "err", err)
		}
		return nil, false
	}
	return document, true
}

func (c *FetchCache) store(key []byte, document *core.FetchedDocument) {
	err := c.backend.db.Update(func(tx *badger.Txn) error {
		entry := badger.NewEntry(key, MarshalDocument(document)).WithTTL(c.ttl)
		return tx.SetEntry(entry)
	})
	if err != nil {
		// A failed store only costs a refetch later.
		c.logger.Warn("cache store failed", "url", document.URL, "err", err)
	}
}
