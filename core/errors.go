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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRequest indicates an EnhancementRequest failed validation.
	ErrInvalidRequest = errors.New("invalid enhancement request")

	// ErrEmptyNote indicates the note text is empty or whitespace only.
	ErrEmptyNote = errors.New("note text cannot be empty")

	// ErrNoteTooLong indicates the note text exceeds the maximum length.
	ErrNoteTooLong = errors.New("note text exceeds maximum length")

	// ErrInvalidOptions indicates an option value is out of range.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrNotFound indicates a job ID is unknown or expired.
	ErrNotFound = errors.New("job not found")
)
