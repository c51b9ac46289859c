// Package preflight provides readiness checks for the services and paths a
// sync run depends on.
//
// The CLI "abs-tag-sync status" command runs every check and prints one line
// per result. Checks never mutate anything: the Audiobookshelf check only
// lists users and the request check only reads rows.
package preflight
