// Package main hosts the abs-tag-sync CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, builds the
// structured logger, and hands off to internal/tagsync for the actual run.
// Inspection commands (users, requests) reuse the same components so what
// they print is exactly what a sync would see.
package main
