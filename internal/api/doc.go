// Package api defines wire-format types for the daemon's read-only HTTP API.
//
// It translates queue models into transport-friendly DTOs so consumers never
// couple to internal types. DTOs use camelCase JSON tags and timestamps are
// RFC 3339 with milliseconds in UTC.
package api
