// Package tagsync runs one reconciliation pass end to end.
//
// Run resolves identities, indexes the Audiobookshelf inventory, and groups
// ReadMeABook requests before handing all three to the reconciler. A failed
// read never aborts the pass: the component is recorded in Report.Degraded
// and replaced by an empty result, which makes the rest of the pass a safe
// no-op for the affected data. Only configuration errors stop a pass with an
// error. A run lock held by another process skips the pass; a state directory
// that cannot hold the lock leaves the pass running unlocked.
package tagsync
