// Package config loads, normalizes, and validates reelbot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SLACK_BOT_TOKEN, SLACK_SIGNING_SECRET, TMDB_API_TOKEN, and PORT. The Config
// type centralizes every knob the daemon and CLI need so the queue location,
// Slack credentials, and catalog settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
