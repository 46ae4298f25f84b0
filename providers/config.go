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
	"strings"
)

// Config holds configuration for the LLM-backed capability services.
type Config struct {
	// Host is the base URL for the OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// ExtractorModel is the model identifier used for entity extraction.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ExtractorModel string

	// AnalysisModel is the model identifier used for passage analysis and
	// summarization. Defaults to ExtractorModel when empty.
	AnalysisModel string

	// MinConfidence is the minimum confidence score in [0,1] for extracted
	// candidates. Candidates below this threshold are filtered out.
	// Default: 0.5
	MinConfidence float64

	// ChunkSize is the maximum extractor input size in runes. Longer notes
	// are chunked on sentence boundaries and the results merged.
	// Default: 6000
	ChunkSize int

	// MaxPassages caps the relevant passages requested per document.
	// Default: 3
	MaxPassages int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API base URL for both models.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithExtractorModel sets the entity extraction model identifier.
func WithExtractorModel(model string) ConfigOption {
	return func(c *Config) {
		c.ExtractorModel = model
	}
}

// WithAnalysisModel sets the passage analysis model identifier.
func WithAnalysisModel(model string) ConfigOption {
	return func(c *Config) {
		c.AnalysisModel = model
	}
}

// WithMinConfidence sets the minimum candidate confidence threshold.
func WithMinConfidence(min float64) ConfigOption {
	return func(c *Config) {
		c.MinConfidence = min
	}
}

// WithChunkSize sets the maximum extractor input size in runes.
func WithChunkSize(size int) ConfigOption {
	return func(c *Config) {
		c.ChunkSize = size
	}
}

// WithMaxPassages sets the passage cap per analyzed document.
func WithMaxPassages(max int) ConfigOption {
	return func(c *Config) {
		c.MaxPassages = max
	}
}

// NewConfig creates a Config with defaults applied, then applies options.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		MinConfidence: 0.5,
		ChunkSize:     6000,
		MaxPassages:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the configuration and normalizes derived fields.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("host is required")
	}
	if strings.TrimSpace(c.ExtractorModel) == "" {
		return errors.New("extractor model is required")
	}
	if c.AnalysisModel == "" {
		c.AnalysisModel = c.ExtractorModel
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("min confidence must be in [0,1]")
	}
	if c.ChunkSize < 1 {
		return errors.New("chunk size must be positive")
	}
	if c.MaxPassages < 1 {
		return errors.New("max passages must be positive")
	}
	return nil
}
