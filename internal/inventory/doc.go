// Package inventory indexes Audiobookshelf book libraries by ASIN.
//
// Only libraries with the "book" media type are read. Items without an ASIN
// are skipped; when two items share an ASIN the one listed last wins. The
// index holds each item's raw metadata so a later write can send it back
// unchanged.
package inventory
