// Package services defines shared utilities consumed by the sync pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, component names, and ASINs
//     for logging.
//   - Structured error markers plus the Wrap helper that let the pipeline tell
//     fatal configuration problems apart from upstream failures it can absorb.
//   - Subpackages wrapping the Audiobookshelf HTTP API.
//
// Use these helpers when wiring new integrations so failure classification and
// log fields stay uniform across the pipeline.
package services
