// Package notifications pushes queue events to ntfy.
//
// The ntfy implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Queue changes and
// persistence failures can be switched off independently. Callers depend only
// on the Service interface.
package notifications
