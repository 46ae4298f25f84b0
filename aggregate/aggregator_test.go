package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/poiesic/notectx/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func suggestion(text, url string, score float64, fetchedAt time.Time, origins ...core.SuggestionOrigin) core.Suggestion {
	if len(origins) == 0 {
		origins = []core.SuggestionOrigin{core.OriginAnalysis}
	}
	return core.Suggestion{
		Text:      text,
		SourceURL: url,
		Score:     score,
		Origins:   origins,
		FetchedAt: fetchedAt,
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, 5))
	assert.Empty(t, Aggregate([]core.Suggestion{}, 5))
	assert.Empty(t, Aggregate([]core.Suggestion{suggestion("a", "https://a", 0.5, baseTime)}, 0))
}

func TestAggregate_SortsByScoreDescending(t *testing.T) {
	input := []core.Suggestion{
		suggestion("low", "https://a.example", 0.2, baseTime),
		suggestion("high", "https://b.example", 0.9, baseTime),
		suggestion("mid", "https://c.example", 0.5, baseTime),
	}

	out := Aggregate(input, 10)
	require.Len(t, out, 3)
	assert.Equal(t, "high", out[0].Text)
	assert.Equal(t, "mid", out[1].Text)
	assert.Equal(t, "low", out[2].Text)
}

func TestAggregate_DuplicateMergeKeepsMaxScore(t *testing.T) {
	input := []core.Suggestion{
		suggestion("The Eiffel Tower is 330m tall.", "https://example.com/tower", 0.4, baseTime),
		suggestion("the  eiffel tower is 330M tall.", "https://example.com/tower", 0.8, baseTime),
	}

	out := Aggregate(input, 10)
	require.Len(t, out, 1)
	assert.Equal(t, 0.8, out[0].Score)
	// Snippet text of the better-scored variant survives.
	assert.Equal(t, "the  eiffel tower is 330M tall.", out[0].Text)
}

func TestAggregate_DuplicateMergeUnionsOrigins(t *testing.T) {
	input := []core.Suggestion{
		suggestion("same text", "https://example.com", 0.5, baseTime, core.OriginAnalysis),
		suggestion("Same Text", "https://example.com", 0.3, baseTime.Add(time.Hour), core.OriginSummary),
	}

	out := Aggregate(input, 10)
	require.Len(t, out, 1)
	assert.ElementsMatch(t, []core.SuggestionOrigin{core.OriginAnalysis, core.OriginSummary}, out[0].Origins)
	// Most recent fetch timestamp survives the merge.
	assert.Equal(t, baseTime.Add(time.Hour), out[0].FetchedAt)
}

func TestAggregate_SameTextDifferentURLNotMerged(t *testing.T) {
	input := []core.Suggestion{
		suggestion("same text", "https://a.example", 0.5, baseTime),
		suggestion("same text", "https://b.example", 0.5, baseTime),
	}
	out := Aggregate(input, 10)
	assert.Len(t, out, 2)
}

func TestAggregate_ClampsScores(t *testing.T) {
	input := []core.Suggestion{
		suggestion("over", "https://a.example", 1.7, baseTime),
		suggestion("under", "https://b.example", -0.3, baseTime),
	}

	out := Aggregate(input, 10)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Score)
	assert.Equal(t, 0.0, out[1].Score)
}

func TestAggregate_TieBreaks(t *testing.T) {
	t.Run("fetch recency before URL", func(t *testing.T) {
		input := []core.Suggestion{
			suggestion("older", "https://a.example", 0.5, baseTime),
			suggestion("newer", "https://z.example", 0.5, baseTime.Add(time.Minute)),
		}
		out := Aggregate(input, 10)
		require.Len(t, out, 2)
		assert.Equal(t, "newer", out[0].Text)
	})

	t.Run("URL lexical order", func(t *testing.T) {
		input := []core.Suggestion{
			suggestion("from b", "https://b.example", 0.5, baseTime),
			suggestion("from a", "https://a.example", 0.5, baseTime),
		}
		out := Aggregate(input, 10)
		require.Len(t, out, 2)
		assert.Equal(t, "from a", out[0].Text)
	})
}

func TestAggregate_Truncates(t *testing.T) {
	input := []core.Suggestion{
		suggestion("a", "https://a.example", 0.9, baseTime),
		suggestion("b", "https://b.example", 0.8, baseTime),
		suggestion("c", "https://c.example", 0.7, baseTime),
	}
	out := Aggregate(input, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Text)
	assert.Equal(t, "b", out[1].Text)
}

func TestAggregate_DropsBlankAndUnattributed(t *testing.T) {
	input := []core.Suggestion{
		suggestion("   ", "https://a.example", 0.9, baseTime),
		suggestion("no source", "", 0.9, baseTime),
		suggestion("kept", "https://b.example", 0.5, baseTime),
	}
	out := Aggregate(input, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Text)
}

func TestAggregate_Idempotent(t *testing.T) {
	input := []core.Suggestion{
		suggestion("The Eiffel Tower is 330m tall.", "https://example.com/tower", 0.4, baseTime),
		suggestion("the eiffel tower is 330m tall.", "https://example.com/tower", 0.8, baseTime),
		suggestion("Paris is the capital of France.", "https://example.com/paris", 0.8, baseTime.Add(time.Hour)),
		suggestion("Built for the 1889 World's Fair.", "https://example.com/fair", 0.6, baseTime),
	}

	once := Aggregate(input, 3)
	twice := Aggregate(once, 3)
	assert.Equal(t, once, twice)
}

func TestAggregate_DeterministicUnderReordering(t *testing.T) {
	input := []core.Suggestion{
		suggestion("alpha", "https://a.example", 0.5, baseTime),
		suggestion("beta", "https://b.example", 0.5, baseTime),
		suggestion("gamma", "https://c.example", 0.9, baseTime),
		suggestion("delta", "https://d.example", 0.5, baseTime.Add(time.Minute)),
		suggestion("ALPHA", "https://a.example", 0.3, baseTime),
	}

	expected := Aggregate(input, 10)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]core.Suggestion, len(input))
		copy(shuffled, input)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, expected, Aggregate(shuffled, 10))
	}
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	input := []core.Suggestion{
		suggestion("b", "https://b.example", 0.5, baseTime),
		suggestion("a", "https://a.example", 0.9, baseTime),
	}
	Aggregate(input, 10)
	assert.Equal(t, "b", input[0].Text)
	assert.Equal(t, "a", input[1].Text)
}
