// Package audiobookshelf wraps the slice of the Audiobookshelf REST API the
// sync needs: listing users, libraries, and expanded library items, and
// patching an item's media tags.
//
// Item metadata is carried as raw JSON so a write sends back exactly what was
// read; only the ASIN and title are decoded for indexing.
package audiobookshelf
