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

// Package openai provides the LLM-backed capability services using
// OpenAI-compatible APIs.
//
// This package implements providers.EntityExtractor and
// providers.AnalysisEngine using the langchaingo library to communicate
// with OpenAI or OpenAI-compatible services (such as Ollama, LocalAI, or
// vLLM).
//
// # Usage
//
//	config := providers.NewConfig(
//	    providers.WithHost("http://localhost:11434/v1"),
//	    providers.WithExtractorModel("qwen2.5:3b"),
//	)
//
//	extractor, err := openai.NewEntityExtractor(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	candidates, err := extractor.Extract(ctx, "The Eiffel Tower was completed in 1889.")
package openai
