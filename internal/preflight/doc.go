// Package preflight provides readiness checks for the services and paths
// reelbot depends on.
//
// The CLI "reelbot status" command runs them before an operator starts the
// daemon; each check reports a pass/fail line rather than an error so one
// failure does not hide the rest. Checks whose credentials are not configured
// report as failed with a hint instead of being skipped.
package preflight
