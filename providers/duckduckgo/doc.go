// Package duckduckgo implements web search against the DuckDuckGo HTML
// endpoint.
//
// The endpoint serves plain HTML and needs no API key; the client scrapes
// the organic result blocks, unwraps the redirect links, and preserves the
// page order as result rank. Requests identify themselves with a custom
// User-Agent and failed queries are retried a fixed number of times.
package duckduckgo
