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


package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNoteLength is the maximum accepted note length in runes.
const MaxNoteLength = 100_000

// ValidateRequest validates an EnhancementRequest according to domain rules.
//
// Validation rules:
//   - NoteText must contain at least one non-whitespace character
//   - NoteText must not exceed MaxNoteLength runes
//   - No explicitly-set option may be negative
//
// Zero-valued options are NOT rejected; they are backfilled with defaults
// at submission.
func ValidateRequest(request *EnhancementRequest) error {
	if request == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	if strings.TrimSpace(request.NoteText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyNote)
	}

	if utf8.RuneCountInString(request.NoteText) > MaxNoteLength {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrNoteTooLong)
	}

	if err := validateOptions(request.Options); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return nil
}

func validateOptions(opts Options) error {
	if opts.MaxSuggestions < 0 {
		return fmt.Errorf("%w: max suggestions %d", ErrInvalidOptions, opts.MaxSuggestions)
	}
	if opts.MaxCandidates < 0 {
		return fmt.Errorf("%w: max candidates %d", ErrInvalidOptions, opts.MaxCandidates)
	}
	if opts.MaxResultsPerCandidate < 0 {
		return fmt.Errorf("%w: max results per candidate %d", ErrInvalidOptions, opts.MaxResultsPerCandidate)
	}
	if opts.FetchConcurrency < 0 {
		return fmt.Errorf("%w: fetch concurrency %d", ErrInvalidOptions, opts.FetchConcurrency)
	}
	if opts.AnalysisConcurrency < 0 {
		return fmt.Errorf("%w: analysis concurrency %d", ErrInvalidOptions, opts.AnalysisConcurrency)
	}
	if opts.StageTimeout < 0 {
		return fmt.Errorf("%w: stage timeout %s", ErrInvalidOptions, opts.StageTimeout)
	}
	if opts.UnitTimeout < 0 {
		return fmt.Errorf("%w: unit timeout %s", ErrInvalidOptions, opts.UnitTimeout)
	}
	return nil
}

// ValidateSuggestion validates a Suggestion according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - SourceURL must not be empty
//   - Score must already be in [0,1]
func ValidateSuggestion(suggestion *Suggestion) error {
	if suggestion == nil {
		return fmt.Errorf("suggestion is nil")
	}
	if suggestion.Text == "" {
		return fmt.Errorf("suggestion text cannot be empty")
	}
	if suggestion.SourceURL == "" {
		return fmt.Errorf("suggestion source URL cannot be empty")
	}
	if suggestion.Score < 0 || suggestion.Score > 1 {
		return fmt.Errorf("suggestion score %f out of range", suggestion.Score)
	}
	return nil
}
