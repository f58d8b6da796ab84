// Package collections mirrors a remote, server-sorted collection locally and
// pages through it on demand.
//
// A Cache holds an ordered window of items (newest first), a page cursor and
// an end-of-data flag. Page reads go through a single-slot ticket: while one
// is outstanding, Fetch is rejected with ErrRequestInFlight and LoadMore does
// nothing. Writes (Create, Update, Delete) keep the window consistent with
// what the gateway committed:
//
//   - Create prepends the returned item; the cursor is untouched, so the new
//     item sits outside the paged window until the next reset fetch.
//   - Update replaces the item in place when it is present locally.
//   - Delete drops the item when it is present locally.
//
// Failures are stored as a message (gateway-supplied, else a per-operation
// default) readable through LastError, and also returned.
//
// Derived reads in the announcements and logs packages only see what has
// been paged in so far.
package collections
