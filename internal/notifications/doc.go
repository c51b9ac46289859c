// Package notifications delivers sync run summaries via ntfy.
//
// The service publishes to the topic configured in config.toml and degrades
// to a no-op when notifications are disabled. Delivery failures are returned
// to the caller, which logs them without affecting the run outcome.
package notifications
