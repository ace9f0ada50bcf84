// Package tmdb provides the minimal TMDB API client used for movie lookups.
//
// Requests authenticate with a v4 read access token sent as a bearer header.
// Only movie search is exposed; ranking and year derivation live in the
// catalog package. Options allow tests to supply custom HTTP clients without
// modifying production code.
package tmdb
