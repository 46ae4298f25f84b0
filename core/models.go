package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier derived from content.
// It is used for cache keys and URL deduplication.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Stage identifies a phase of the enrichment pipeline.
// The first six stages are traversed strictly forward; the last four are
// terminal and reachable from any non-terminal stage.
type Stage int

const (
	// StagePending means the job has been accepted but not started.
	StagePending Stage = iota + 1
	// StageExtractingEntities runs the single entity extraction call.
	StageExtractingEntities
	// StageSearchingWeb fans out one search query per top candidate.
	StageSearchingWeb
	// StageFetchingContent fans out one fetch per deduplicated URL.
	StageFetchingContent
	// StageAnalyzing fans out one analysis call per fetched document.
	StageAnalyzing
	// StageAggregating merges and ranks the accumulated suggestions.
	StageAggregating
	// StageCompleted is terminal: every unit of work succeeded.
	StageCompleted
	// StagePartiallyCompleted is terminal: usable output exists but some
	// units failed, timed out, or were abandoned.
	StagePartiallyCompleted
	// StageFailed is terminal: a required stage produced zero usable units.
	StageFailed
	// StageCancelled is terminal: the caller cancelled the job.
	StageCancelled
)

// Terminal reports whether the stage is one of the four terminal states.
func (s Stage) Terminal() bool {
	switch s {
	case StageCompleted, StagePartiallyCompleted, StageFailed, StageCancelled:
		return true
	}
	return false
}

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageExtractingEntities:
		return "extracting_entities"
	case StageSearchingWeb:
		return "searching_web"
	case StageFetchingContent:
		return "fetching_content"
	case StageAnalyzing:
		return "analyzing"
	case StageAggregating:
		return "aggregating"
	case StageCompleted:
		return "completed"
	case StagePartiallyCompleted:
		return "partially_completed"
	case StageFailed:
		return "failed"
	case StageCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Candidate is a term or entity extracted from note text.
type Candidate struct {
	Term       string
	Confidence float64 // In [0,1]
	Offset     int     // Rune offset of the first occurrence in the note
}

// NormalizedTerm returns the candidate's term case-folded with whitespace
// collapsed, for merging equivalent terms across extraction chunks.
func (c Candidate) NormalizedTerm() string {
	return NormalizeText(c.Term)
}

// SearchResult is one web search hit for a candidate's query.
type SearchResult struct {
	Term    string // Originating candidate term
	URL     string
	Title   string
	Snippet string
	Rank    int // Search-engine-reported order, 0 is best
}

// FetchStatus describes the outcome of a content fetch.
type FetchStatus int

const (
	// FetchOk means the page was fetched and sanitized successfully.
	FetchOk FetchStatus = iota + 1
	// FetchFailed means the fetch failed with a network or parse error.
	FetchFailed
	// FetchTimedOut means the fetch exceeded its deadline.
	FetchTimedOut
)

// FetchedDocument is the sanitized main content of one web page.
type FetchedDocument struct {
	URL       string
	Title     string
	Text      string // Sanitized main content, boilerplate removed
	FetchedAt time.Time
	Status    FetchStatus
}

// SuggestionOrigin identifies the analysis step that produced a suggestion.
type SuggestionOrigin int

const (
	// OriginAnalysis marks passages mined by relevance analysis.
	OriginAnalysis SuggestionOrigin = iota + 1
	// OriginSummary marks document-level summaries.
	OriginSummary
)

func (o SuggestionOrigin) String() string {
	switch o {
	case OriginAnalysis:
		return "analysis"
	case OriginSummary:
		return "summary"
	}
	return "unknown"
}

// Suggestion is a candidate snippet of web-sourced text with a relevance
// score and source attribution. It is the pipeline's final output unit.
type Suggestion struct {
	Text      string
	SourceURL string
	Score     float64 // In [0,1], clamped on aggregation
	Origins   []SuggestionOrigin
	FetchedAt time.Time // Fetch time of the source document, for tie-breaks
}

// ErrorKind classifies a unit-of-work failure.
type ErrorKind int

const (
	// ErrorKindProvider is a transient provider failure (network, HTTP, parse).
	ErrorKindProvider ErrorKind = iota + 1
	// ErrorKindTimeout means the unit exceeded its per-unit deadline.
	ErrorKindTimeout
	// ErrorKindAbandoned means the unit never started because the job was
	// cancelled or the stage timed out. Reported distinctly from errors.
	ErrorKindAbandoned
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindProvider:
		return "provider"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// UnitError records one non-fatal unit-of-work failure.
type UnitError struct {
	Stage   Stage
	Unit    string // The query, URL, or document the unit was processing
	Kind    ErrorKind
	Message string
}

func (e UnitError) Error() string {
	return e.Stage.String() + " " + e.Kind.String() + " (" + e.Unit + "): " + e.Message
}

// Options tunes a single enhancement run. Zero values are backfilled with
// defaults at submission.
type Options struct {
	// MaxSuggestions caps the final ranked suggestion list.
	MaxSuggestions int
	// MaxCandidates caps how many top extracted candidates are searched.
	MaxCandidates int
	// MaxResultsPerCandidate caps search results per candidate query.
	MaxResultsPerCandidate int
	// FetchConcurrency bounds simultaneous content fetches.
	FetchConcurrency int
	// AnalysisConcurrency bounds simultaneous analysis calls.
	AnalysisConcurrency int
	// StageTimeout bounds each fan-out stage overall.
	StageTimeout time.Duration
	// UnitTimeout bounds each individual unit of work.
	UnitTimeout time.Duration
	// KeepPartialOnCancel includes already-computed suggestions in the
	// result of a cancelled job.
	KeepPartialOnCancel bool
	// AllowDegraded completes a job as PartiallyCompleted instead of
	// Failed when a required stage produces zero usable units.
	AllowDegraded bool
}

// Default option values.
const (
	DefaultMaxSuggestions         = 5
	DefaultMaxCandidates          = 5
	DefaultMaxResultsPerCandidate = 5
	DefaultFetchConcurrency       = 4
	DefaultAnalysisConcurrency    = 4
	DefaultStageTimeout           = 2 * time.Minute
	DefaultUnitTimeout            = 10 * time.Second
)

// DefaultOptions returns the default run options.
func DefaultOptions() Options {
	return Options{
		MaxSuggestions:         DefaultMaxSuggestions,
		MaxCandidates:          DefaultMaxCandidates,
		MaxResultsPerCandidate: DefaultMaxResultsPerCandidate,
		FetchConcurrency:       DefaultFetchConcurrency,
		AnalysisConcurrency:    DefaultAnalysisConcurrency,
		StageTimeout:           DefaultStageTimeout,
		UnitTimeout:            DefaultUnitTimeout,
	}
}

// WithDefaults returns a copy of o with zero-valued fields backfilled.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.MaxSuggestions > 0 {
		d.MaxSuggestions = o.MaxSuggestions
	}
	if o.MaxCandidates > 0 {
		d.MaxCandidates = o.MaxCandidates
	}
	if o.MaxResultsPerCandidate > 0 {
		d.MaxResultsPerCandidate = o.MaxResultsPerCandidate
	}
	if o.FetchConcurrency > 0 {
		d.FetchConcurrency = o.FetchConcurrency
	}
	if o.AnalysisConcurrency > 0 {
		d.AnalysisConcurrency = o.AnalysisConcurrency
	}
	if o.StageTimeout > 0 {
		d.StageTimeout = o.StageTimeout
	}
	if o.UnitTimeout > 0 {
		d.UnitTimeout = o.UnitTimeout
	}
	d.KeepPartialOnCancel = o.KeepPartialOnCancel
	d.AllowDegraded = o.AllowDegraded
	return d
}

// EnhancementRequest is the input of one enrichment run.
// It is immutable once submitted.
type EnhancementRequest struct {
	NoteText string
	Options  Options
}

// EnhancementResult is the terminal output of one enrichment run.
type EnhancementResult struct {
	Suggestions []Suggestion
	Errors      []UnitError
	Status      Stage // One of the four terminal stages
}

// ClampScore clamps a relevance score to [0,1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// NormalizeText case-folds text and collapses runs of whitespace to a single
// space. Two suggestions are duplicates iff their normalized text and source
// URL match.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
