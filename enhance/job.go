package enhance

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/notectx/core"
)

// ProgressEvent is one update on a job's progress stream.
// The stream ends with exactly one terminal event carrying the result.
type ProgressEvent struct {
	JobID           string
	Stage           core.Stage
	PercentComplete int
	// NewSuggestions holds suggestions produced since the previous event.
	NewSuggestions []core.Suggestion
	// NewErrors holds unit failures recorded since the previous event.
	NewErrors []core.UnitError
	// Replay marks the synthetic snapshot event a late subscriber receives
	// before live events.
	Replay bool
	// Terminal marks the final event; Result is set iff Terminal.
	Terminal bool
	Result   *core.EnhancementResult
}

// JobSnapshot is a read-only copy of a job's state at one instant.
type JobSnapshot struct {
	ID              string
	Stage           core.Stage
	Cancelled       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PercentComplete int
	Candidates      int
	SearchResults   int
	Documents       int
	Suggestions     int
	Errors          []core.UnitError
	Result          *core.EnhancementResult // Set once terminal
}

// subscriber is one progress stream consumer. Non-terminal events are
// dropped when its buffer is full; the terminal event is always delivered
// unless the consumer unsubscribes first.
type subscriber struct {
	events chan ProgressEvent
	done   chan struct{}

	closeDone sync.Once
}

func (s *subscriber) unsubscribe() {
	s.closeDone.Do(func() { close(s.done) })
}

const subscriberBuffer = 64

// job is the mutable state of one enrichment run. It is owned exclusively
// by the orchestrator goroutine driving it; external callers only set the
// cancellation flag or read snapshots under the job mutex.
type job struct {
	id      string
	request core.EnhancementRequest
	opts    core.Options

	// cancelled is monotonic: false to true only.
	cancelled atomic.Bool

	mu            sync.Mutex
	stage         core.Stage
	percent       int
	createdAt     time.Time
	updatedAt     time.Time
	terminalAt    time.Time
	candidates    []core.Candidate
	searchResults []core.SearchResult
	documents     []*core.FetchedDocument
	suggestions   []core.Suggestion
	unitErrors    []core.UnitError
	result        *core.EnhancementResult
	resultSeen    bool
	subscribers   map[int]*subscriber
	nextSubID     int
}

func newJob(id string, request core.EnhancementRequest, opts core.Options, now time.Time) *job {
	return &job{
		id:          id,
		request:     request,
		opts:        opts,
		stage:       core.StagePending,
		createdAt:   now,
		updatedAt:   now,
		subscribers: make(map[int]*subscriber),
	}
}

// cancel sets the cancellation flag. Idempotent; a no-op once terminal.
// The flag is set under the job mutex so a cancel racing finish cannot
// mark a job that already reached a terminal stage.
func (j *job) cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stage.Terminal() {
		return
	}
	j.cancelled.Store(true)
}

func (j *job) cancelRequested() bool {
	return j.cancelled.Load()
}

// snapshot returns a consistent copy of the job state.
func (j *job) snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:              j.id,
		Stage:           j.stage,
		Cancelled:       j.cancelled.Load(),
		CreatedAt:       j.createdAt,
		UpdatedAt:       j.updatedAt,
		PercentComplete: j.percent,
		Candidates:      len(j.candidates),
		SearchResults:   len(j.searchResults),
		Documents:       len(j.documents),
		Suggestions:     len(j.suggestions),
		Errors:          append([]core.UnitError(nil), j.unitErrors...),
		Result:          j.result,
	}
}

// subscribe registers a new progress consumer. If the job is already
// terminal, the returned channel carries a single terminal event and is
// closed. Otherwise the consumer first receives a synthetic replay of the
// current snapshot, then live events.
func (j *job) subscribe() (*subscriber, ProgressEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	sub := &subscriber{
		events: make(chan ProgressEvent, subscriberBuffer),
		done:   make(chan struct{}),
	}

	replay := ProgressEvent{
		JobID:           j.id,
		Stage:           j.stage,
		PercentComplete: j.percent,
		NewSuggestions:  append([]core.Suggestion(nil), j.suggestions...),
		NewErrors:       append([]core.UnitError(nil), j.unitErrors...),
		Replay:          true,
	}

	if j.stage.Terminal() {
		replay.Terminal = true
		replay.Result = j.result
		replay.PercentComplete = 100
		sub.events <- replay
		close(sub.events)
		return sub, replay
	}

	j.subscribers[j.nextSubID] = sub
	j.nextSubID++
	sub.events <- replay
	return sub, replay
}

func (j *job) removeSubscriber(target *subscriber) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for id, sub := range j.subscribers {
		if sub == target {
			delete(j.subscribers, id)
			return
		}
	}
}

// publishLocked delivers a non-terminal event to all subscribers. Slow
// consumers lose intermediate events rather than blocking the pipeline.
func (j *job) publishLocked(event ProgressEvent) {
	for _, sub := range j.subscribers {
		select {
		case <-sub.done:
		case sub.events <- event:
		default:
			// Buffer full; the subscriber catches up via later events
			// and is guaranteed the terminal one.
		}
	}
}

// setStage advances the job to the given stage and notifies subscribers.
// Transitions are strictly forward; terminal stages go through finish.
func (j *job) setStage(stage core.Stage, percent int, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stage = stage
	j.percent = percent
	j.updatedAt = now
	j.publishLocked(ProgressEvent{
		JobID:           j.id,
		Stage:           stage,
		PercentComplete: percent,
	})
}

// progress records unit-level results mid-stage and notifies subscribers.
func (j *job) progress(percent int, newSuggestions []core.Suggestion, newErrors []core.UnitError, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.percent = percent
	j.updatedAt = now
	j.suggestions = append(j.suggestions, newSuggestions...)
	j.unitErrors = append(j.unitErrors, newErrors...)
	if len(newSuggestions) == 0 && len(newErrors) == 0 {
		return
	}
	j.publishLocked(ProgressEvent{
		JobID:           j.id,
		Stage:           j.stage,
		PercentComplete: percent,
		NewSuggestions:  newSuggestions,
		NewErrors:       newErrors,
	})
}

func (j *job) setCandidates(candidates []core.Candidate) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.candidates = candidates
}

func (j *job) getCandidates() []core.Candidate {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.Candidate(nil), j.candidates...)
}

func (j *job) setSearchResults(results []core.SearchResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.searchResults = results
}

func (j *job) getSearchResults() []core.SearchResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.SearchResult(nil), j.searchResults...)
}

func (j *job) setDocuments(documents []*core.FetchedDocument) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.documents = documents
}

func (j *job) getDocuments() []*core.FetchedDocument {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*core.FetchedDocument(nil), j.documents...)
}

// collected returns copies of the suggestions and unit errors gathered so
// far, for building a terminal result.
func (j *job) collected() ([]core.Suggestion, []core.UnitError) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.Suggestion(nil), j.suggestions...),
		append([]core.UnitError(nil), j.unitErrors...)
}

// finish moves the job to a terminal stage, stores the result, and
// guarantees every remaining subscriber a terminal event before its
// channel closes.
func (j *job) finish(result *core.EnhancementResult, now time.Time) {
	j.mu.Lock()
	if j.stage.Terminal() {
		j.mu.Unlock()
		return
	}
	j.stage = result.Status
	j.percent = 100
	j.updatedAt = now
	j.terminalAt = now
	j.result = result

	event := ProgressEvent{
		JobID:           j.id,
		Stage:           result.Status,
		PercentComplete: 100,
		Terminal:        true,
		Result:          result,
	}

	subs := j.subscribers
	j.subscribers = make(map[int]*subscriber)
	j.mu.Unlock()

	for _, sub := range subs {
		go func(sub *subscriber) {
			select {
			case sub.events <- event:
			case <-sub.done:
			}
			close(sub.events)
		}(sub)
	}
}

// terminalInfo reports the terminal state for registry sweeping.
func (j *job) terminalInfo() (terminal bool, at time.Time, seen bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stage.Terminal(), j.terminalAt, j.resultSeen
}

// takeResult returns the terminal result, marking it retrieved so the
// registry may drop the job.
func (j *job) takeResult() (*core.EnhancementResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == nil {
		return nil, false
	}
	j.resultSeen = true
	return j.result, true
}
