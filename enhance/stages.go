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
	"errors"
	"sort"

	"github.com/poiesic/notectx/aggregate"
	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/pool"
)

// Progress anchors for each pipeline stage. Terminal stages report 100.
const (
	percentExtracting  = 5
	percentSearching   = 20
	percentFetching    = 45
	percentAnalyzing   = 70
	percentAggregating = 95
)

// run drives a job through the full pipeline. Each stage driver returns
// false when it finished the job (terminal stage reached), at which point
// the pipeline stops.
func (o *Orchestrator) run(j *job) {
	defer o.running.Done()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("enhancement job panicked", "job_id", j.id, "panic", r)
			_, unitErrors := j.collected()
			j.finish(&core.EnhancementResult{
				Suggestions: []core.Suggestion{},
				Errors:      unitErrors,
				Status:      core.StageFailed,
			}, o.now().UTC())
		}
	}()

	ctx := context.Background()

	if !o.runExtraction(ctx, j) {
		return
	}
	if !o.runSearch(ctx, j) {
		return
	}
	if !o.runFetch(ctx, j) {
		return
	}
	if !o.runAnalysis(ctx, j) {
		return
	}
	o.runAggregation(j)
}

// runExtraction asks the extractor for candidate terms. Extraction is
// mandatory: a provider failure or an empty candidate set ends the job.
func (o *Orchestrator) runExtraction(ctx context.Context, j *job) bool {
	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}
	j.setStage(core.StageExtractingEntities, percentExtracting, o.now().UTC())

	stageCtx, cancel := context.WithTimeout(ctx, j.opts.StageTimeout)
	defer cancel()

	candidates, err := o.provider.EntityExtractor().Extract(stageCtx, j.request.NoteText)
	if err != nil {
		o.logger.Warn("entity extraction failed", "job_id", j.id, "error", err)
		o.recordErrors(j, percentExtracting, unitError(core.StageExtractingEntities, "note", err))
		return o.failRequiredStage(j)
	}
	if len(candidates) == 0 {
		o.logger.Info("no candidate terms extracted", "job_id", j.id)
		o.recordErrors(j, percentExtracting,
			providerError(core.StageExtractingEntities, "note", "no candidate terms extracted"))
		return o.failRequiredStage(j)
	}

	j.setCandidates(candidates)
	o.logger.Debug("candidates extracted", "job_id", j.id, "count", len(candidates))
	return true
}

// runSearch fans out one query per top candidate. The stage is mandatory
// in aggregate: the job fails only when every query fails.
func (o *Orchestrator) runSearch(ctx context.Context, j *job) bool {
	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}
	j.setStage(core.StageSearchingWeb, percentSearching, o.now().UTC())

	candidates := topCandidates(j.getCandidates(), j.opts.MaxCandidates)

	stageCtx, cancel := context.WithTimeout(ctx, j.opts.StageTimeout)
	defer cancel()

	results, err := pool.RunAll(stageCtx, len(candidates),
		func(unitCtx context.Context, i int) ([]core.SearchResult, error) {
			return o.provider.SearchClient().Search(unitCtx, candidates[i].Term, j.opts.MaxResultsPerCandidate)
		},
		pool.Options{
			Limit:           j.opts.FetchConcurrency,
			UnitTimeout:     j.opts.UnitTimeout,
			CancelRequested: j.cancelRequested,
		})
	if err != nil {
		o.recordErrors(j, percentSearching,
			providerError(core.StageSearchingWeb, "pool", err.Error()))
		return o.failRequiredStage(j)
	}

	var hits []core.SearchResult
	var unitErrors []core.UnitError
	failed := 0
	for i, r := range results {
		switch {
		case r.Abandoned:
			failed++
			unitErrors = append(unitErrors, abandonedError(core.StageSearchingWeb, candidates[i].Term))
		case r.Err != nil:
			failed++
			unitErrors = append(unitErrors, unitError(core.StageSearchingWeb, candidates[i].Term, r.Err))
		default:
			hits = append(hits, r.Value...)
		}
	}
	o.recordErrors(j, percentSearching, unitErrors...)

	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}
	if len(candidates) > 0 && failed == len(candidates) {
		o.logger.Warn("all search queries failed", "job_id", j.id, "queries", len(candidates))
		return o.failRequiredStage(j)
	}

	j.setSearchResults(hits)
	o.logger.Debug("search complete", "job_id", j.id,
		"queries", len(candidates), "hits", len(hits), "failed", failed)
	return true
}

// runFetch retrieves each distinct result URL. Individual fetch failures
// are recorded and do not end the job.
func (o *Orchestrator) runFetch(ctx context.Context, j *job) bool {
	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}
	j.setStage(core.StageFetchingContent, percentFetching, o.now().UTC())

	urls := dedupeURLs(j.getSearchResults())

	stageCtx, cancel := context.WithTimeout(ctx, j.opts.StageTimeout)
	defer cancel()

	results, err := pool.RunAll(stageCtx, len(urls),
		func(unitCtx context.Context, i int) (*core.FetchedDocument, error) {
			return o.provider.Fetcher().Fetch(unitCtx, urls[i])
		},
		pool.Options{
			Limit:           j.opts.FetchConcurrency,
			UnitTimeout:     j.opts.UnitTimeout,
			CancelRequested: j.cancelRequested,
		})
	if err != nil {
		o.recordErrors(j, percentFetching,
			providerError(core.StageFetchingContent, "pool", err.Error()))
		return o.failRequiredStage(j)
	}

	var documents []*core.FetchedDocument
	var unitErrors []core.UnitError
	for i, r := range results {
		switch {
		case r.Abandoned:
			unitErrors = append(unitErrors, abandonedError(core.StageFetchingContent, urls[i]))
		case r.Err != nil:
			unitErrors = append(unitErrors, unitError(core.StageFetchingContent, urls[i], r.Err))
		case r.Value == nil || r.Value.Status != core.FetchOk || r.Value.Text == "":
			unitErrors = append(unitErrors,
				providerError(core.StageFetchingContent, urls[i], "no usable content"))
		default:
			documents = append(documents, r.Value)
		}
	}
	o.recordErrors(j, percentFetching, unitErrors...)

	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}

	j.setDocuments(documents)
	o.logger.Debug("fetch complete", "job_id", j.id,
		"urls", len(urls), "documents", len(documents), "failed", len(unitErrors))
	return true
}

// runAnalysis scores each fetched document against the note. Failures are
// recorded per document and do not end the job.
func (o *Orchestrator) runAnalysis(ctx context.Context, j *job) bool {
	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}
	j.setStage(core.StageAnalyzing, percentAnalyzing, o.now().UTC())

	documents := j.getDocuments()

	stageCtx, cancel := context.WithTimeout(ctx, j.opts.StageTimeout)
	defer cancel()

	results, err := pool.RunAll(stageCtx, len(documents),
		func(unitCtx context.Context, i int) ([]core.Suggestion, error) {
			return o.provider.AnalysisEngine().Analyze(unitCtx, j.request.NoteText, documents[i])
		},
		pool.Options{
			Limit:           j.opts.AnalysisConcurrency,
			UnitTimeout:     j.opts.UnitTimeout,
			CancelRequested: j.cancelRequested,
		})
	if err != nil {
		o.recordErrors(j, percentAnalyzing,
			providerError(core.StageAnalyzing, "pool", err.Error()))
		return o.failRequiredStage(j)
	}

	var suggestions []core.Suggestion
	var unitErrors []core.UnitError
	for i, r := range results {
		switch {
		case r.Abandoned:
			unitErrors = append(unitErrors, abandonedError(core.StageAnalyzing, documents[i].URL))
		case r.Err != nil:
			unitErrors = append(unitErrors, unitError(core.StageAnalyzing, documents[i].URL, r.Err))
		default:
			suggestions = append(suggestions, r.Value...)
		}
	}
	j.progress(percentAnalyzing, suggestions, unitErrors, o.now().UTC())

	if j.cancelRequested() {
		o.finishCancelled(j)
		return false
	}

	o.logger.Debug("analysis complete", "job_id", j.id,
		"documents", len(documents), "suggestions", len(suggestions), "failed", len(unitErrors))
	return true
}

// runAggregation merges, ranks, and truncates the accumulated suggestions
// and finishes the job.
func (o *Orchestrator) runAggregation(j *job) {
	if j.cancelRequested() {
		o.finishCancelled(j)
		return
	}
	j.setStage(core.StageAggregating, percentAggregating, o.now().UTC())

	suggestions, unitErrors := j.collected()
	final := aggregate.Aggregate(suggestions, j.opts.MaxSuggestions)

	status := core.StageCompleted
	if len(unitErrors) > 0 {
		if len(final) > 0 || j.opts.AllowDegraded {
			status = core.StagePartiallyCompleted
		} else {
			status = core.StageFailed
		}
	}

	j.finish(&core.EnhancementResult{
		Suggestions: final,
		Errors:      unitErrors,
		Status:      status,
	}, o.now().UTC())
	o.logger.Info("job finished", "job_id", j.id,
		"status", status.String(), "suggestions", len(final), "errors", len(unitErrors))
}

// failRequiredStage ends the job after a mandatory stage produced zero
// usable units. With AllowDegraded the job still surfaces whatever was
// gathered as a partial result; otherwise it fails. Always returns false.
func (o *Orchestrator) failRequiredStage(j *job) bool {
	suggestions, unitErrors := j.collected()

	status := core.StageFailed
	final := []core.Suggestion{}
	if j.opts.AllowDegraded {
		status = core.StagePartiallyCompleted
		final = aggregate.Aggregate(suggestions, j.opts.MaxSuggestions)
	}

	j.finish(&core.EnhancementResult{
		Suggestions: final,
		Errors:      unitErrors,
		Status:      status,
	}, o.now().UTC())
	o.logger.Info("job finished", "job_id", j.id,
		"status", status.String(), "errors", len(unitErrors))
	return false
}

// finishCancelled ends the job in the Cancelled stage. Partial suggestions
// survive only when the request opted in.
func (o *Orchestrator) finishCancelled(j *job) {
	suggestions, unitErrors := j.collected()

	final := []core.Suggestion{}
	if j.opts.KeepPartialOnCancel {
		final = aggregate.Aggregate(suggestions, j.opts.MaxSuggestions)
	}

	j.finish(&core.EnhancementResult{
		Suggestions: final,
		Errors:      unitErrors,
		Status:      core.StageCancelled,
	}, o.now().UTC())
	o.logger.Info("job cancelled", "job_id", j.id, "kept_suggestions", len(final))
}

// recordErrors appends unit errors to the job and notifies subscribers.
func (o *Orchestrator) recordErrors(j *job, percent int, unitErrors ...core.UnitError) {
	if len(unitErrors) == 0 {
		return
	}
	j.progress(percent, nil, unitErrors, o.now().UTC())
}

// topCandidates returns up to max candidates ordered by confidence,
// breaking ties by note offset.
func topCandidates(candidates []core.Candidate, max int) []core.Candidate {
	sorted := append([]core.Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Confidence != sorted[b].Confidence {
			return sorted[a].Confidence > sorted[b].Confidence
		}
		return sorted[a].Offset < sorted[b].Offset
	})
	if max > 0 && len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// dedupeURLs returns the distinct result URLs in first-occurrence order.
func dedupeURLs(results []core.SearchResult) []string {
	seen := make(map[string]struct{}, len(results))
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		urls = append(urls, r.URL)
	}
	return urls
}

func unitError(stage core.Stage, unit string, err error) core.UnitError {
	kind := core.ErrorKindProvider
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = core.ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		// Units interrupted mid-flight by cancellation are abandoned,
		// not provider failures.
		kind = core.ErrorKindAbandoned
	}
	return core.UnitError{
		Stage:   stage,
		Unit:    unit,
		Kind:    kind,
		Message: err.Error(),
	}
}

func providerError(stage core.Stage, unit, message string) core.UnitError {
	return core.UnitError{
		Stage:   stage,
		Unit:    unit,
		Kind:    core.ErrorKindProvider,
		Message: message,
	}
}

func abandonedError(stage core.Stage, unit string) core.UnitError {
	return core.UnitError{
		Stage:   stage,
		Unit:    unit,
		Kind:    core.ErrorKindAbandoned,
		Message: "abandoned before start",
	}
}
