// Package services defines shared utilities consumed by the chat handlers and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, intent kinds,
//     channels, and users for logging.
//   - Structured error markers plus the Wrap helper so catalog and persistence
//     failures can be classified without string matching.
package services
