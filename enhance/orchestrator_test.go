package enhance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
	"github.com/poiesic/notectx/providers/mock"
)

func newTestOrchestrator(t *testing.T, provider providers.Provider, opts ...Option) *Orchestrator {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o, err := New(provider, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

// collectEvents drains a progress stream until the channel closes,
// asserting the stream carried exactly one terminal event.
func collectEvents(t *testing.T, events <-chan ProgressEvent) ([]ProgressEvent, ProgressEvent) {
	t.Helper()

	var all []ProgressEvent
	var terminal ProgressEvent
	terminals := 0
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				require.Equal(t, 1, terminals, "expected exactly one terminal event")
				return all, terminal
			}
			all = append(all, ev)
			if ev.Terminal {
				terminals++
				terminal = ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for progress events")
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("requires a provider", func(t *testing.T) {
		_, err := New(nil)
		require.ErrorIs(t, err, ErrProviderRequired)
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		_, err := New(mock.NewMockProvider(), WithRetention(0))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retention")
	})
}

func TestSubmitValidation(t *testing.T) {
	o := newTestOrchestrator(t, mock.NewMockProvider())

	t.Run("nil request", func(t *testing.T) {
		_, err := o.Submit(context.Background(), nil)
		require.ErrorIs(t, err, core.ErrInvalidRequest)
	})

	t.Run("empty note", func(t *testing.T) {
		_, err := o.Submit(context.Background(), &core.EnhancementRequest{NoteText: "   \n\t "})
		require.ErrorIs(t, err, core.ErrEmptyNote)
	})

	t.Run("negative option", func(t *testing.T) {
		_, err := o.Submit(context.Background(), &core.EnhancementRequest{
			NoteText: "valid note",
			Options:  core.Options{MaxSuggestions: -1},
		})
		require.ErrorIs(t, err, core.ErrInvalidOptions)
	})
}

func TestSubmitReturnsBeforeStagesRun(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)

	started := make(chan struct{})
	release := make(chan struct{})
	provider.GetMockExtractor().ExtractFunc = func(ctx context.Context, text string) ([]core.Candidate, error) {
		close(started)
		<-release
		return []core.Candidate{{Term: "Paris", Confidence: 0.9}}, nil
	}

	o := newTestOrchestrator(t, provider)

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{NoteText: "A note about Paris."})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The extractor has not been released, so the job cannot be terminal.
	snapshot, err := o.Status(id)
	require.NoError(t, err)
	assert.False(t, snapshot.Stage.Terminal())

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()

	<-started
	close(release)

	_, terminal := collectEvents(t, events)
	assert.Equal(t, core.StageCompleted, terminal.Result.Status)
}

func TestHappyPath(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	o := newTestOrchestrator(t, provider)

	request := &core.EnhancementRequest{
		NoteText: "The Eiffel Tower was completed in 1889 and remains the tallest structure in Paris.",
		Options:  core.Options{MaxSuggestions: 5},
	}

	id, err := o.Submit(context.Background(), request)
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()

	all, terminal := collectEvents(t, events)
	require.NotNil(t, terminal.Result)

	result := terminal.Result
	assert.Equal(t, core.StageCompleted, result.Status)
	assert.Empty(t, result.Errors)
	require.NotEmpty(t, result.Suggestions)
	assert.LessOrEqual(t, len(result.Suggestions), 5)

	for i := 1; i < len(result.Suggestions); i++ {
		assert.GreaterOrEqual(t, result.Suggestions[i-1].Score, result.Suggestions[i].Score)
	}
	for _, s := range result.Suggestions {
		assert.NotEmpty(t, s.SourceURL)
		assert.NotEmpty(t, s.Origins)
	}

	// The first event is the subscription replay.
	require.NotEmpty(t, all)
	assert.True(t, all[0].Replay)

	// Stages observed in the stream never move backwards.
	order := map[core.Stage]int{
		core.StagePending:            0,
		core.StageExtractingEntities: 1,
		core.StageSearchingWeb:       2,
		core.StageFetchingContent:    3,
		core.StageAnalyzing:          4,
		core.StageAggregating:        5,
		core.StageCompleted:          6,
	}
	last := -1
	for _, ev := range all {
		rank, ok := order[ev.Stage]
		require.True(t, ok, "unexpected stage %s", ev.Stage)
		assert.GreaterOrEqual(t, rank, last)
		last = rank
	}

	assert.Positive(t, provider.GetMockExtractor().CallCount())
	assert.Positive(t, provider.GetMockSearchClient().CallCount())
	assert.Positive(t, provider.GetMockFetcher().CallCount())
	assert.Positive(t, provider.GetMockAnalysisEngine().CallCount())
}

func TestAllSearchesFail(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockSearchClient().SearchFunc = func(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error) {
		return nil, errors.New("search backend unavailable")
	}

	o := newTestOrchestrator(t, provider)

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{
		NoteText: "Einstein taught at Princeton after leaving Berlin.",
		Options:  core.Options{MaxCandidates: 2},
	})
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()

	_, terminal := collectEvents(t, events)
	result := terminal.Result

	assert.Equal(t, core.StageFailed, result.Status)
	assert.Empty(t, result.Suggestions)
	require.Len(t, result.Errors, 2, "one error per attempted query")
	for _, ue := range result.Errors {
		assert.Equal(t, core.StageSearchingWeb, ue.Stage)
		assert.Equal(t, core.ErrorKindProvider, ue.Kind)
		assert.NotEmpty(t, ue.Unit)
	}

	assert.Zero(t, provider.GetMockFetcher().CallCount())
	assert.Zero(t, provider.GetMockAnalysisEngine().CallCount())
}

func TestExtractionFailure(t *testing.T) {
	t.Run("provider error fails the job", func(t *testing.T) {
		provider := mock.NewMockProvider().(*mock.MockProvider)
		provider.GetMockExtractor().ExtractFunc = func(ctx context.Context, text string) ([]core.Candidate, error) {
			return nil, errors.New("model unavailable")
		}

		o := newTestOrchestrator(t, provider)
		id, err := o.Submit(context.Background(), &core.EnhancementRequest{NoteText: "some note text"})
		require.NoError(t, err)

		events, stop, err := o.Subscribe(id)
		require.NoError(t, err)
		defer stop()

		_, terminal := collectEvents(t, events)
		assert.Equal(t, core.StageFailed, terminal.Result.Status)
		require.Len(t, terminal.Result.Errors, 1)
		assert.Equal(t, core.StageExtractingEntities, terminal.Result.Errors[0].Stage)
	})

	t.Run("degraded opt-in yields partial instead", func(t *testing.T) {
		provider := mock.NewMockProvider().(*mock.MockProvider)
		provider.GetMockExtractor().ExtractFunc = func(ctx context.Context, text string) ([]core.Candidate, error) {
			return []core.Candidate{}, nil
		}

		o := newTestOrchestrator(t, provider)
		id, err := o.Submit(context.Background(), &core.EnhancementRequest{
			NoteText: "some note text",
			Options:  core.Options{AllowDegraded: true},
		})
		require.NoError(t, err)

		events, stop, err := o.Subscribe(id)
		require.NoError(t, err)
		defer stop()

		_, terminal := collectEvents(t, events)
		assert.Equal(t, core.StagePartiallyCompleted, terminal.Result.Status)
		assert.Empty(t, terminal.Result.Suggestions)
	})
}

func TestPartialFetchFailures(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)

	provider.GetMockFetcher().FetchFunc = func(ctx context.Context, url string) (*core.FetchedDocument, error) {
		if url[len(url)-1] == '0' {
			return nil, errors.New("connection refused")
		}
		return &core.FetchedDocument{
			URL:       url,
			Title:     "Page",
			Text:      "Readable content for " + url + ".",
			FetchedAt: time.Now().UTC(),
			Status:    core.FetchOk,
		}, nil
	}

	o := newTestOrchestrator(t, provider)

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{
		NoteText: "Marie Curie pioneered radioactivity research.",
		Options:  core.Options{MaxCandidates: 1, MaxResultsPerCandidate: 3},
	})
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()

	_, terminal := collectEvents(t, events)
	result := terminal.Result

	// One of the three fetches failed; analysis still ran on the rest.
	assert.Equal(t, core.StagePartiallyCompleted, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, core.StageFetchingContent, result.Errors[0].Stage)
	assert.NotEmpty(t, result.Suggestions)
	assert.Equal(t, 2, provider.GetMockAnalysisEngine().CallCount())
}

func TestCancelDuringFetch(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)

	fetchStarted := make(chan struct{})
	var once sync.Once
	provider.GetMockFetcher().FetchFunc = func(ctx context.Context, url string) (*core.FetchedDocument, error) {
		var gated bool
		once.Do(func() {
			gated = true
			close(fetchStarted)
		})
		if gated {
			// Block until cancellation reaches the unit context.
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &core.FetchedDocument{
			URL:       url,
			Text:      "content",
			FetchedAt: time.Now().UTC(),
			Status:    core.FetchOk,
		}, nil
	}

	o := newTestOrchestrator(t, provider)

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{
		NoteText: "Ada Lovelace wrote the first program.",
		Options:  core.Options{MaxCandidates: 1, MaxResultsPerCandidate: 4, FetchConcurrency: 1},
	})
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()

	<-fetchStarted
	require.NoError(t, o.Cancel(id))

	_, terminal := collectEvents(t, events)
	result := terminal.Result

	assert.Equal(t, core.StageCancelled, result.Status)
	assert.Empty(t, result.Suggestions, "partial data dropped without opt-in")
	assert.Zero(t, provider.GetMockAnalysisEngine().CallCount(), "no analysis after cancellation")

	abandoned := 0
	for _, ue := range result.Errors {
		assert.NotEqual(t, core.ErrorKindProvider, ue.Kind,
			"cancellation is not a provider failure")
		if ue.Kind == core.ErrorKindAbandoned {
			abandoned++
			assert.Equal(t, core.StageFetchingContent, ue.Stage)
		}
	}
	assert.Positive(t, abandoned, "interrupted and unstarted fetch units are abandoned")

	// Cancelling a terminal job stays a no-op.
	require.NoError(t, o.Cancel(id))
	snapshot, err := o.Status(id)
	require.NoError(t, err)
	assert.Equal(t, core.StageCancelled, snapshot.Stage)
}

func TestCancelKeepsPartialsWhenOptedIn(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)

	analyzed := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	provider.GetMockAnalysisEngine().AnalyzeFunc = func(ctx context.Context, noteText string, doc *core.FetchedDocument) ([]core.Suggestion, error) {
		suggestions := []core.Suggestion{{
			Text:      "Insight from " + doc.URL,
			SourceURL: doc.URL,
			Score:     0.9,
			Origins:   []core.SuggestionOrigin{core.OriginAnalysis},
			FetchedAt: doc.FetchedAt,
		}}
		once.Do(func() {
			close(analyzed)
			<-proceed
		})
		return suggestions, nil
	}

	o := newTestOrchestrator(t, provider)

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{
		NoteText: "Grace Hopper invented the compiler.",
		Options: core.Options{
			MaxCandidates:          1,
			MaxResultsPerCandidate: 3,
			AnalysisConcurrency:    1,
			KeepPartialOnCancel:    true,
		},
	})
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()

	<-analyzed
	require.NoError(t, o.Cancel(id))
	close(proceed)

	_, terminal := collectEvents(t, events)
	result := terminal.Result

	assert.Equal(t, core.StageCancelled, result.Status)
	require.NotEmpty(t, result.Suggestions, "opt-in keeps partial suggestions")
}

func TestStatusAndResult(t *testing.T) {
	o := newTestOrchestrator(t, mock.NewMockProvider())

	t.Run("unknown job", func(t *testing.T) {
		_, err := o.Status("no-such-job")
		require.ErrorIs(t, err, core.ErrNotFound)

		err = o.Cancel("no-such-job")
		require.ErrorIs(t, err, core.ErrNotFound)

		_, _, err = o.Subscribe("no-such-job")
		require.ErrorIs(t, err, core.ErrNotFound)

		_, err = o.Result("no-such-job")
		require.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("result after terminal", func(t *testing.T) {
		id, err := o.Submit(context.Background(), &core.EnhancementRequest{
			NoteText: "Alan Turing worked at Bletchley Park.",
		})
		require.NoError(t, err)

		events, stop, err := o.Subscribe(id)
		require.NoError(t, err)
		defer stop()
		_, terminal := collectEvents(t, events)

		result, err := o.Result(id)
		require.NoError(t, err)
		assert.Equal(t, terminal.Result.Status, result.Status)
	})

	t.Run("cancel after completion leaves the job unmarked", func(t *testing.T) {
		id, err := o.Submit(context.Background(), &core.EnhancementRequest{
			NoteText: "Grace Hopper wrote the first compiler.",
		})
		require.NoError(t, err)

		events, stop, err := o.Subscribe(id)
		require.NoError(t, err)
		defer stop()
		collectEvents(t, events)

		require.NoError(t, o.Cancel(id))
		snapshot, err := o.Status(id)
		require.NoError(t, err)
		assert.Equal(t, core.StageCompleted, snapshot.Stage)
		assert.False(t, snapshot.Cancelled, "late cancel cannot mark a finished job")
	})
}

func TestLateSubscriberGetsTerminalReplay(t *testing.T) {
	o := newTestOrchestrator(t, mock.NewMockProvider())

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{
		NoteText: "Isaac Newton formulated the laws of motion.",
	})
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()
	collectEvents(t, events)

	late, lateStop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer lateStop()

	all, terminal := collectEvents(t, late)
	require.Len(t, all, 1, "terminal jobs replay a single event")
	assert.True(t, all[0].Replay)
	assert.Equal(t, 100, all[0].PercentComplete)
	require.NotNil(t, terminal.Result)
}

func TestRegistrySweep(t *testing.T) {
	o := newTestOrchestrator(t, mock.NewMockProvider(),
		WithRetention(10*time.Millisecond),
		WithSweepInterval(10*time.Millisecond))

	id, err := o.Submit(context.Background(), &core.EnhancementRequest{
		NoteText: "Nikola Tesla experimented with alternating current.",
	})
	require.NoError(t, err)

	events, stop, err := o.Subscribe(id)
	require.NoError(t, err)
	defer stop()
	collectEvents(t, events)

	_, err = o.Result(id)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := o.Status(id)
		return errors.Is(err, core.ErrNotFound)
	}, 5*time.Second, 10*time.Millisecond, "terminal job swept after result retrieval")
}

func TestSubmitAfterClose(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o, err := New(mock.NewMockProvider(), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, o.Close())

	_, err = o.Submit(context.Background(), &core.EnhancementRequest{NoteText: "a note"})
	require.ErrorIs(t, err, ErrClosed)
}
