// Package tags models Audiobookshelf tag collections as sets and owns the
// reserved "Requester: " prefix that marks tags managed by the sync.
//
// Reconciliation compares tag collections with set semantics only, so callers
// should build a Set as soon as tags leave the wire and convert back to a
// slice (Sorted) only when writing.
package tags
