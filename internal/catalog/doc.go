// Package catalog resolves free-text movie queries to a single best candidate.
//
// A Resolver issues one TMDB search per query, ranks the results by vote
// count, and derives the release year from the release date. Successful
// answers (including "no such movie") are cached for a while and concurrent
// identical lookups share one request. Failures are never cached.
package catalog
