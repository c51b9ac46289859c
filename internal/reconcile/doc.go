// Package reconcile computes the requester tag delta for every requested
// ASIN and writes changed tag sets back to Audiobookshelf.
//
// Requester tags carry the reserved "Requester: " prefix. For each item the
// final set is the existing non-requester tags plus one requester tag per
// resolved name; the write is skipped when the final set equals the existing
// one, so repeated runs converge without further writes.
package reconcile
