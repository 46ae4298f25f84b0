package pool

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Default values for RunAll options.
const (
	DefaultLimit        = 4
	defaultPollInterval = 50 * time.Millisecond
)

// Worker executes one unit of work identified by its submission index.
// The supplied context carries the per-unit deadline and is cancelled when
// cancellation is requested; workers are never force-terminated.
type Worker[T any] func(ctx context.Context, index int) (T, error)

// UnitResult holds the outcome of one unit of work.
// Exactly one of the three shapes applies: a value (Err nil, not Abandoned),
// an error, or Abandoned (the unit never started).
type UnitResult[T any] struct {
	Value     T
	Err       error
	Abandoned bool
}

// Options configures a RunAll call.
type Options struct {
	// Limit is the hard upper bound on simultaneously active units.
	// Default: DefaultLimit.
	Limit int

	// UnitTimeout bounds each unit of work. Zero means no per-unit deadline
	// beyond the caller's context.
	UnitTimeout time.Duration

	// CancelRequested is consulted before each unit starts and periodically
	// while units run. Once it returns true, not-yet-started units are
	// abandoned and running units have their context cancelled.
	CancelRequested func() bool

	// PollInterval is how often CancelRequested is re-checked for
	// long-running units. Default: 50ms.
	PollInterval time.Duration
}

// RunAll executes n independent units of work with bounded concurrency and
// collects each unit's result or error without one unit's failure affecting
// the others.
//
// The returned slice preserves submission order: results[i] belongs to unit
// i regardless of completion order, so downstream aggregation stays
// deterministic. The only error return is a pool construction failure;
// unit-level failures are reported per element.
func RunAll[T any](ctx context.Context, n int, worker Worker[T], opts Options) ([]UnitResult[T], error) {
	if n == 0 {
		return []UnitResult[T]{}, nil
	}
	if worker == nil {
		return nil, ErrWorkerRequired
	}

	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	p, err := ants.NewPool(limit)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	// Derived context cancelled either by the caller or by the cancellation
	// predicate turning true. In-flight workers observe it and may return
	// early; they are never killed.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	cancelled := func() bool {
		if runCtx.Err() != nil {
			return true
		}
		return opts.CancelRequested != nil && opts.CancelRequested()
	}

	if opts.CancelRequested != nil {
		interval := opts.PollInterval
		if interval <= 0 {
			interval = defaultPollInterval
		}
		stopWatch := make(chan struct{})
		defer close(stopWatch)
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-stopWatch:
					return
				case <-runCtx.Done():
					return
				case <-ticker.C:
					if opts.CancelRequested() {
						cancelRun()
						return
					}
				}
			}
		}()
	}

	results := make([]UnitResult[T], n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		// Unit-start boundary: abandoned units are marked, never started.
		if cancelled() {
			results[i].Abandoned = true
			continue
		}

		index := i
		wg.Add(1)
		submitErr := p.Submit(func() {
			defer wg.Done()

			// Re-check after waiting in the pool queue.
			if cancelled() {
				results[index].Abandoned = true
				return
			}

			unitCtx := runCtx
			if opts.UnitTimeout > 0 {
				var cancelUnit context.CancelFunc
				unitCtx, cancelUnit = context.WithTimeout(runCtx, opts.UnitTimeout)
				defer cancelUnit()
			}

			value, err := worker(unitCtx, index)
			if err != nil {
				results[index].Err = err
				return
			}
			results[index].Value = value
		})
		if submitErr != nil {
			wg.Done()
			results[i].Err = submitErr
		}
	}

	wg.Wait()
	return results, nil
}

// Succeeded counts the results that produced a value.
func Succeeded[T any](results []UnitResult[T]) int {
	count := 0
	for _, r := range results {
		if r.Err == nil && !r.Abandoned {
			count++
		}
	}
	return count
}
