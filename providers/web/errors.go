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

import "errors"

var (
	// ErrInvalidURL indicates the URL is not a fetchable http(s) address.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrRobotsDisallowed indicates robots.txt forbids fetching the URL.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

	// ErrFetchFailed indicates the page could not be retrieved.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUnsupportedContent indicates the page is not text content.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrNoContent indicates the page yielded no readable text.
	ErrNoContent = errors.New("no readable content")
)
