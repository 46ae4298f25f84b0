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

package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

// EntityExtractor implements providers.EntityExtractor using
// OpenAI-compatible chat APIs.
type EntityExtractor struct {
	client        llms.Model
	minConfidence float64
	chunkSize     int
	logger        *slog.Logger
}

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type entity struct {
	Term       string `json:"term"`
	Type       string `json:"type"`
	Importance int    `json:"importance"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Entities []entity `json:"entities"`
}

// newEntityExtractor is an internal constructor that returns the concrete type.
func newEntityExtractor(config *providers.Config) (*EntityExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &EntityExtractor{
		client:        client,
		minConfidence: config.MinConfidence,
		chunkSize:     config.ChunkSize,
		logger:        slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewEntityExtractor creates a new entity extractor using the provided
// configuration.
//
// Returns providers.EntityExtractor interface to enforce abstraction.
func NewEntityExtractor(config *providers.Config) (providers.EntityExtractor, error) {
	return newEntityExtractor(config)
}

// Extract identifies searchable terms in the note using an LLM. Long notes
// are processed in sentence-aligned chunks; per-term results are merged
// keeping the highest confidence, then ordered by confidence with earlier
// note positions breaking ties.
func (e *EntityExtractor) Extract(ctx context.Context, text string) ([]core.Candidate, error) {
	chunks := splitChunks(text, e.chunkSize)

	merged := make(map[string]core.Candidate)
	for _, chunk := range chunks {
		entities, err := e.extractChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}

		for _, ent := range entities {
			confidence := float64(ent.Importance) / 10.0
			if confidence < e.minConfidence {
				continue
			}
			key := core.NormalizeText(ent.Term)
			if key == "" {
				continue
			}

			offset := termOffset(text, ent.Term)
			existing, ok := merged[key]
			if !ok {
				merged[key] = core.Candidate{
					Term:       ent.Term,
					Confidence: core.ClampScore(confidence),
					Offset:     offset,
				}
				continue
			}
			if confidence > existing.Confidence {
				existing.Confidence = core.ClampScore(confidence)
				existing.Term = ent.Term
			}
			if offset >= 0 && (existing.Offset < 0 || offset < existing.Offset) {
				existing.Offset = offset
			}
			merged[key] = existing
		}
	}

	candidates := make([]core.Candidate, 0, len(merged))
	for _, c := range merged {
		candidates = append(candidates, c)
	}
	slices.SortFunc(candidates, func(a, b core.Candidate) int {
		if a.Confidence != b.Confidence {
			if a.Confidence > b.Confidence {
				return -1
			}
			return 1
		}
		if sortOffset(a.Offset) != sortOffset(b.Offset) {
			if sortOffset(a.Offset) < sortOffset(b.Offset) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Term, b.Term)
	})

	e.logger.Debug("entities extracted",
		"chunks", len(chunks),
		"candidates", len(candidates))

	return candidates, nil
}

// extractChunk runs the extraction prompt on one chunk of the note.
// Malformed JSON responses are retried up to 3 times.
func (e *EntityExtractor) extractChunk(ctx context.Context, chunk string) ([]entity, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildExtractionPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(chunk),
			},
		},
	}

	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return []entity{}, nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, lastErr
	}

	return result.Entities, nil
}

// termOffset returns the rune offset of the term's first case-insensitive
// occurrence in the note, or -1 when the term does not occur verbatim.
func termOffset(text, term string) int {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(term))
	if idx < 0 {
		return -1
	}
	return utf8.RuneCountInString(text[:idx])
}

// sortOffset orders unknown offsets last.
func sortOffset(offset int) int {
	if offset < 0 {
		return math.MaxInt
	}
	return offset
}
