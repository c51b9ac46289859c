// Package identity maps request-tracker requester emails onto
// Audiobookshelf usernames.
//
// Emails are compared case-insensitively. Users without an email never enter
// the directory, and an empty email never matches, so a requester without a
// usable email always falls back to the name supplied by the request tracker.
package identity
