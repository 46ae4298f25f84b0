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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

// AnalysisEngine implements providers.AnalysisEngine using OpenAI-compatible
// chat APIs. It extracts note-relevant passages from a fetched page and a
// short summary of the page as a whole.
type AnalysisEngine struct {
	client      llms.Model
	maxPassages int
	chunkSize   int
	logger      *slog.Logger
}

// passage is an internal type used for JSON unmarshaling.
type passage struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// pageAnalysis is the wrapper structure for the LLM's JSON response.
type pageAnalysis struct {
	Passages []passage `json:"passages"`
	Summary  passage   `json:"summary"`
}

// newAnalysisEngine is an internal constructor that returns the concrete type.
func newAnalysisEngine(config *providers.Config) (*AnalysisEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.AnalysisModel),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisEngine{
		client:      client,
		maxPassages: config.MaxPassages,
		chunkSize:   config.ChunkSize,
		logger:      slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewAnalysisEngine creates a new analysis engine using the provided
// configuration.
//
// Returns providers.AnalysisEngine interface to enforce abstraction.
func NewAnalysisEngine(config *providers.Config) (providers.AnalysisEngine, error) {
	return newAnalysisEngine(config)
}

// Analyze scores the document against the note and returns suggestions for
// the most relevant passages plus one page summary. Model unavailability
// and unparseable responses degrade to an empty result; only cancellation
// and deadline errors propagate.
func (a *AnalysisEngine) Analyze(ctx context.Context, noteText string, document *core.FetchedDocument) ([]core.Suggestion, error) {
	if document == nil || strings.TrimSpace(document.Text) == "" {
		return []core.Suggestion{}, nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnalysisPrompt(a.maxPassages)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Note:\n%s\n\nPage content:\n%s",
					noteText, truncateRunes(document.Text, a.chunkSize))),
			},
		},
	}

	var result pageAnalysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			// Model unavailable: the document just contributes nothing.
			a.logger.Warn("analysis call failed", "url", document.URL, "err", err)
			return []core.Suggestion{}, nil
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model", "url", document.URL)
			return []core.Suggestion{}, nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analyzer response",
				"attempt", attempt+1,
				"url", document.URL,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Warn("failed to parse analyzer response after retries",
			"url", document.URL, "err", lastErr)
		return []core.Suggestion{}, nil
	}

	suggestions := make([]core.Suggestion, 0, len(result.Passages)+1)
	for i, p := range result.Passages {
		if i >= a.maxPassages {
			break
		}
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		suggestions = append(suggestions, core.Suggestion{
			Text:      strings.TrimSpace(p.Text),
			SourceURL: document.URL,
			Score:     core.ClampScore(p.Relevance),
			Origins:   []core.SuggestionOrigin{core.OriginAnalysis},
			FetchedAt: document.FetchedAt,
		})
	}

	if strings.TrimSpace(result.Summary.Text) != "" {
		suggestions = append(suggestions, core.Suggestion{
			Text:      strings.TrimSpace(result.Summary.Text),
			SourceURL: document.URL,
			Score:     core.ClampScore(result.Summary.Relevance),
			Origins:   []core.SuggestionOrigin{core.OriginSummary},
			FetchedAt: document.FetchedAt,
		})
	}

	a.logger.Debug("document analyzed",
		"url", document.URL,
		"suggestions", len(suggestions))

	return suggestions, nil
}
