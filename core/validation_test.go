package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		request := &EnhancementRequest{NoteText: "The Eiffel Tower was completed in 1889 in Paris."}
		assert.NoError(t, ValidateRequest(request))
	})

	t.Run("nil request", func(t *testing.T) {
		err := ValidateRequest(nil)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("empty note", func(t *testing.T) {
		err := ValidateRequest(&EnhancementRequest{NoteText: ""})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.ErrorIs(t, err, ErrEmptyNote)
	})

	t.Run("whitespace only note", func(t *testing.T) {
		err := ValidateRequest(&EnhancementRequest{NoteText: " \n\t "})
		assert.ErrorIs(t, err, ErrEmptyNote)
	})

	t.Run("note too long", func(t *testing.T) {
		request := &EnhancementRequest{NoteText: strings.Repeat("a", MaxNoteLength+1)}
		err := ValidateRequest(request)
		assert.ErrorIs(t, err, ErrNoteTooLong)
	})

	t.Run("note at max length is valid", func(t *testing.T) {
		request := &EnhancementRequest{NoteText: strings.Repeat("a", MaxNoteLength)}
		assert.NoError(t, ValidateRequest(request))
	})

	t.Run("negative option rejected", func(t *testing.T) {
		request := &EnhancementRequest{
			NoteText: "some note",
			Options:  Options{MaxSuggestions: -1},
		}
		err := ValidateRequest(request)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("negative concurrency rejected", func(t *testing.T) {
		request := &EnhancementRequest{
			NoteText: "some note",
			Options:  Options{FetchConcurrency: -2},
		}
		err := ValidateRequest(request)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("zero options are valid", func(t *testing.T) {
		request := &EnhancementRequest{NoteText: "some note"}
		assert.NoError(t, ValidateRequest(request))
	})
}

func TestValidateSuggestion(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := &Suggestion{Text: "The tower is 330m tall.", SourceURL: "https://example.com", Score: 0.8}
		assert.NoError(t, ValidateSuggestion(s))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Error(t, ValidateSuggestion(nil))
	})

	t.Run("empty text", func(t *testing.T) {
		s := &Suggestion{SourceURL: "https://example.com", Score: 0.5}
		assert.Error(t, ValidateSuggestion(s))
	})

	t.Run("empty URL", func(t *testing.T) {
		s := &Suggestion{Text: "text", Score: 0.5}
		assert.Error(t, ValidateSuggestion(s))
	})

	t.Run("score out of range", func(t *testing.T) {
		s := &Suggestion{Text: "text", SourceURL: "https://example.com", Score: 1.2}
		assert.Error(t, ValidateSuggestion(s))
	})
}
