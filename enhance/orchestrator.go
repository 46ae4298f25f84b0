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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

const (
	// DefaultRetention is how long a terminal job stays queryable when
	// nobody retrieves its result.
	DefaultRetention = 15 * time.Minute

	defaultSweepInterval = time.Minute
)

// Orchestrator runs note enrichment jobs: it validates requests, drives
// each job through the stage pipeline on its own goroutine, and serves
// status queries, progress subscriptions, and cancellation.
type Orchestrator struct {
	provider  providers.Provider
	registry  *registry
	logger    *slog.Logger
	retention time.Duration
	sweepEach time.Duration
	now       func() time.Time

	closed      atomic.Bool
	stopJanitor chan struct{}
	janitorDone chan struct{}
	running     sync.WaitGroup
	closeOnce   sync.Once
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets the logger used by the orchestrator and its jobs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithRetention sets how long terminal jobs remain queryable.
func WithRetention(retention time.Duration) Option {
	return func(o *Orchestrator) error {
		if retention <= 0 {
			return fmt.Errorf("retention must be positive, got %v", retention)
		}
		o.retention = retention
		return nil
	}
}

// WithSweepInterval sets how often the registry janitor runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *Orchestrator) error {
		if interval <= 0 {
			return fmt.Errorf("sweep interval must be positive, got %v", interval)
		}
		o.sweepEach = interval
		return nil
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// New creates an Orchestrator backed by the given capability provider.
func New(provider providers.Provider, opts ...Option) (*Orchestrator, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	o := &Orchestrator{
		provider:    provider,
		registry:    newRegistry(),
		logger:      slog.Default().With("component", "enhance"),
		retention:   DefaultRetention,
		sweepEach:   defaultSweepInterval,
		now:         time.Now,
		stopJanitor: make(chan struct{}),
		janitorDone: make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("invalid orchestrator option: %w", err)
		}
	}

	go o.janitor()

	return o, nil
}

// Submit validates the request, registers a new job in the Pending stage,
// and starts its pipeline. It returns the job ID without waiting for any
// stage to run.
func (o *Orchestrator) Submit(ctx context.Context, request *core.EnhancementRequest) (string, error) {
	if o.closed.Load() {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := core.ValidateRequest(request); err != nil {
		return "", err
	}

	j := newJob(uuid.New().String(), *request, request.Options.WithDefaults(), o.now().UTC())
	o.registry.add(j)

	o.running.Add(1)
	go o.run(j)

	o.logger.Debug("job submitted",
		"job_id", j.id,
		"note_length", len(request.NoteText))

	return j.id, nil
}

// Cancel requests cancellation of the job. It is idempotent and a no-op
// once the job is terminal. In-flight units finish; not-yet-started units
// are abandoned.
func (o *Orchestrator) Cancel(jobID string) error {
	j, ok := o.registry.get(jobID)
	if !ok {
		return fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
	}
	j.cancel()
	o.logger.Debug("job cancellation requested", "job_id", jobID)
	return nil
}

// Status returns a consistent snapshot of the job's state.
func (o *Orchestrator) Status(jobID string) (JobSnapshot, error) {
	j, ok := o.registry.get(jobID)
	if !ok {
		return JobSnapshot{}, fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
	}
	return j.snapshot(), nil
}

// Subscribe returns a channel of progress events for the job and a stop
// function. The first event replays the current snapshot; the stream ends
// with exactly one terminal event, after which the channel is closed.
// The stop function releases the subscription early and is safe to call
// more than once.
func (o *Orchestrator) Subscribe(jobID string) (<-chan ProgressEvent, func(), error) {
	j, ok := o.registry.get(jobID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
	}

	sub, _ := j.subscribe()
	stop := func() {
		sub.unsubscribe()
		j.removeSubscriber(sub)
	}
	return sub.events, stop, nil
}

// Result returns the terminal result of the job. It returns ErrJobRunning
// while the job is still in flight. Retrieving the result marks the job
// removable by the registry janitor.
func (o *Orchestrator) Result(jobID string) (*core.EnhancementResult, error) {
	j, ok := o.registry.get(jobID)
	if !ok {
		return nil, fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
	}
	result, ok := j.takeResult()
	if !ok {
		return nil, fmt.Errorf("%w: job %s", ErrJobRunning, jobID)
	}
	return result, nil
}

// Close stops accepting new jobs, waits for in-flight jobs to reach a
// terminal stage, and stops the registry janitor. It does not cancel
// running jobs.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		o.running.Wait()
		close(o.stopJanitor)
		<-o.janitorDone
	})
	return nil
}

func (o *Orchestrator) janitor() {
	defer close(o.janitorDone)

	ticker := time.NewTicker(o.sweepEach)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopJanitor:
			return
		case <-ticker.C:
			if removed := o.registry.sweep(o.now().UTC(), o.retention); removed > 0 {
				o.logger.Debug("swept finished jobs", "removed", removed)
			}
		}
	}
}
