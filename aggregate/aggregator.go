package aggregate

import (
	"slices"
	"strings"

	"github.com/poiesic/notectx/core"
)

// mergeKey identifies duplicate suggestions: same normalized snippet text
// from the same source URL.
type mergeKey struct {
	text string
	url  string
}

// Aggregate merges, deduplicates, ranks, and truncates suggestions.
//
// Duplicates (equal normalized text and source URL) are merged keeping the
// maximum score, the union of origin tags, and the most recent fetch
// timestamp. The result is ordered by score descending, then most-recent
// fetch timestamp, then lexical source URL, so the ordering is fully
// reproducible regardless of input order. Scores are clamped to [0,1].
//
// Aggregate is a pure function of its input: it holds no state, never
// mutates its arguments, and is idempotent.
func Aggregate(suggestions []core.Suggestion, maxCount int) []core.Suggestion {
	if maxCount <= 0 || len(suggestions) == 0 {
		return []core.Suggestion{}
	}

	merged := make(map[mergeKey]core.Suggestion, len(suggestions))
	for _, s := range suggestions {
		normalized := core.NormalizeText(s.Text)
		if normalized == "" || s.SourceURL == "" {
			continue
		}

		candidate := core.Suggestion{
			Text:      s.Text,
			SourceURL: s.SourceURL,
			Score:     core.ClampScore(s.Score),
			Origins:   slices.Clone(s.Origins),
			FetchedAt: s.FetchedAt,
		}

		key := mergeKey{text: normalized, url: s.SourceURL}
		existing, ok := merged[key]
		if !ok {
			merged[key] = candidate
			continue
		}
		merged[key] = merge(existing, candidate)
	}

	ranked := make([]core.Suggestion, 0, len(merged))
	for _, s := range merged {
		ranked = append(ranked, s)
	}

	slices.SortFunc(ranked, compare)

	if len(ranked) > maxCount {
		ranked = ranked[:maxCount]
	}
	return ranked
}

// merge combines two duplicate suggestions. The surviving snippet text is
// the one with the higher score (lexically smaller text on equal scores,
// to stay independent of input order).
func merge(a, b core.Suggestion) core.Suggestion {
	out := a
	if b.Score > a.Score || (b.Score == a.Score && b.Text < a.Text) {
		out = b
	}
	out.Origins = unionOrigins(a.Origins, b.Origins)
	if b.FetchedAt.After(a.FetchedAt) {
		out.FetchedAt = b.FetchedAt
	} else {
		out.FetchedAt = a.FetchedAt
	}
	return out
}

func unionOrigins(a, b []core.SuggestionOrigin) []core.SuggestionOrigin {
	seen := make(map[core.SuggestionOrigin]bool, len(a)+len(b))
	out := make([]core.SuggestionOrigin, 0, len(a)+len(b))
	for _, origin := range a {
		if !seen[origin] {
			seen[origin] = true
			out = append(out, origin)
		}
	}
	for _, origin := range b {
		if !seen[origin] {
			seen[origin] = true
			out = append(out, origin)
		}
	}
	slices.Sort(out)
	return out
}

// compare orders suggestions by score descending, then fetch recency
// descending, then source URL ascending. Normalized text is the last
// tie-break so the order is total and independent of input order.
func compare(a, b core.Suggestion) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if !a.FetchedAt.Equal(b.FetchedAt) {
		if a.FetchedAt.After(b.FetchedAt) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.SourceURL, b.SourceURL); c != 0 {
		return c
	}
	return strings.Compare(core.NormalizeText(a.Text), core.NormalizeText(b.Text))
}
