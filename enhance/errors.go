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

package enhance

import "errors"

var (
	// ErrProviderRequired indicates the orchestrator was constructed
	// without a capability provider.
	ErrProviderRequired = errors.New("capability provider is required")

	// ErrJobRunning indicates a result was requested before the job
	// reached a terminal stage.
	ErrJobRunning = errors.New("job has not finished")

	// ErrClosed indicates the orchestrator has been closed.
	ErrClosed = errors.New("orchestrator is closed")
)
