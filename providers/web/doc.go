// Package web implements content fetching over plain HTTP.
//
// The fetcher honors robots.txt (treating unreachable or broken robots
// files as permission), caps response bodies at a configurable size, and
// reduces pages to readable text: a main-content container is located by a
// fixed selector list, substantial paragraphs are harvested from it, and
// whitespace is collapsed.
package web
