// Package aggregate merges, deduplicates, and ranks enrichment suggestions
// into the final ordered list. Aggregation is a pure function so it can be
// tested in isolation from the pipeline that feeds it.
package aggregate
