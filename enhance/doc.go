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

// Package enhance orchestrates note enrichment jobs.
//
// The Orchestrator accepts a note via Submit and drives it through a fixed
// stage pipeline: entity extraction, web search, content fetching,
// analysis, and aggregation. Each fan-out stage runs on a bounded worker
// pool; unit failures are recorded without ending the job, while a
// mandatory stage that yields nothing ends it. Jobs are observable through
// Status snapshots and Subscribe progress streams, and cancellable at any
// point before a terminal stage.
//
// Terminal jobs stay queryable until their result is retrieved or a
// retention window elapses; a janitor goroutine sweeps them afterwards.
package enhance
