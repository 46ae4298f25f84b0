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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/notectx/cache"
	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/enhance"
	"github.com/poiesic/notectx/providers"
	"github.com/poiesic/notectx/providers/duckduckgo"
	"github.com/poiesic/notectx/providers/openai"
	"github.com/poiesic/notectx/providers/web"
)

func main() {
	app := &cli.App{
		Name:  "notectx",
		Usage: "Enrich notes with suggestions gathered from the web",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "enhance",
				Usage:     "Enhance a note file and print the suggestions",
				ArgsUsage: "NOTE_FILE",
				Action:    enhanceCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "llm-host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "extractor-model",
						Usage:    "Model used for entity extraction",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "analysis-model",
						Usage: "Model used for document analysis (defaults to extractor-model)",
					},
					&cli.StringFlag{
						Name:    "cache-dir",
						Aliases: []string{"c"},
						Usage:   "Path to the BadgerDB fetch cache directory (empty disables caching)",
					},
					&cli.DurationFlag{
						Name:  "cache-ttl",
						Usage: "How long cached pages stay valid",
						Value: cache.DefaultTTL,
					},
					&cli.IntFlag{
						Name:  "max-suggestions",
						Usage: "Maximum number of suggestions to print",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "max-candidates",
						Usage: "Maximum number of terms to search for",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum search results per term",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "fetch-concurrency",
						Usage: "Simultaneous page fetches",
						Value: 4,
					},
					&cli.DurationFlag{
						Name:  "stage-timeout",
						Usage: "Deadline for each pipeline stage",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "allow-degraded",
						Usage: "Return partial results instead of failing when a stage yields nothing",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func enhanceCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one note file argument")
	}

	noteText, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read note: %w", err)
	}

	provider, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	orchestrator, err := enhance.New(provider)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Close()

	request := &core.EnhancementRequest{
		NoteText: string(noteText),
		Options: core.Options{
			MaxSuggestions:         c.Int("max-suggestions"),
			MaxCandidates:          c.Int("max-candidates"),
			MaxResultsPerCandidate: c.Int("max-results"),
			FetchConcurrency:       c.Int("fetch-concurrency"),
			StageTimeout:           c.Duration("stage-timeout"),
			AllowDegraded:          c.Bool("allow-degraded"),
		},
	}

	jobID, err := orchestrator.Submit(context.Background(), request)
	if err != nil {
		return fmt.Errorf("failed to submit note: %w", err)
	}

	events, stop, err := orchestrator.Subscribe(jobID)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer stop()

	var result *core.EnhancementResult
	for event := range events {
		if event.Terminal {
			result = event.Result
			break
		}
		if !event.Replay {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", event.PercentComplete, event.Stage)
		}
	}
	if result == nil {
		return fmt.Errorf("job %s ended without a result", jobID)
	}

	printResult(result)

	if result.Status == core.StageFailed {
		return fmt.Errorf("enhancement failed")
	}
	return nil
}

// buildProvider assembles the production capability services, wrapping the
// fetcher in a cache when a cache directory is configured.
func buildProvider(c *cli.Context) (providers.Provider, error) {
	config := providers.NewConfig(
		providers.WithHost(c.String("llm-host")),
		providers.WithExtractorModel(c.String("extractor-model")),
		providers.WithAnalysisModel(c.String("analysis-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	extractor, err := openai.NewEntityExtractor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	analyzer, err := openai.NewAnalysisEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	search, err := duckduckgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	fetcher, err := web.NewFetcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	if cacheDir := c.String("cache-dir"); cacheDir != "" {
		backend, err := cache.OpenBackend(cacheDir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		cached, err := cache.New(fetcher, backend, cache.WithTTL(c.Duration("cache-ttl")))
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		fetcher = cached
	}

	return providers.NewProvider(extractor, search, fetcher, analyzer)
}

func printResult(result *core.EnhancementResult) {
	fmt.Printf("Status: %s\n", result.Status)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d unit(s) failed:\n", len(result.Errors))
		for _, ue := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", ue.Error())
		}
	}

	if len(result.Suggestions) == 0 {
		fmt.Println("\nNo suggestions.")
		return
	}

	fmt.Printf("\n%d suggestion(s):\n", len(result.Suggestions))
	for i, s := range result.Suggestions {
		origins := make([]string, 0, len(s.Origins))
		for _, origin := range s.Origins {
			origins = append(origins, origin.String())
		}
		fmt.Printf("\n%d. [%.2f] %s\n", i+1, s.Score, s.Text)
		fmt.Printf("   source: %s (%s)\n", s.SourceURL, strings.Join(origins, ", "))
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
