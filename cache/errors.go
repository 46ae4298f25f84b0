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

import "errors"

var (
	// ErrFetcherRequired indicates the cache was created without a
	// fetcher to wrap.
	ErrFetcherRequired = errors.New("content fetcher is required")

	// ErrBackendRequired indicates the cache was created without a
	// storage backend.
	ErrBackendRequired = errors.New("storage backend is required")
)
