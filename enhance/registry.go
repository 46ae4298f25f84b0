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

import (
	"sync"
	"time"
)

// registry holds live and recently finished jobs keyed by ID.
// Terminal jobs are retained until their result is retrieved or the
// retention window elapses, whichever comes first.
type registry struct {
	mu   sync.RWMutex
	jobs map[string]*job
}

func newRegistry() *registry {
	return &registry{jobs: make(map[string]*job)}
}

func (r *registry) add(j *job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.id] = j
}

func (r *registry) get(id string) (*job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// sweep removes terminal jobs whose result has been retrieved or whose
// retention window has elapsed. Returns the number removed.
func (r *registry) sweep(now time.Time, retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, j := range r.jobs {
		terminal, at, seen := j.terminalInfo()
		if !terminal {
			continue
		}
		if seen || now.Sub(at) >= retention {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}
