// Package reconcile owns every mutation of the waypoint store.
//
// The Controller runs a single loop goroutine (Run). Pushes from the game
// feed and local edits from the UI or bulk actions are queued as discrete
// operations and executed one at a time, so no two mutations interleave and
// observers always see a consistent snapshot.
//
// # Pushes
//
// ApplyPush diffs a full batch against the store:
//
//   - invalid entries and repeated IDs are skipped and reported;
//   - entries the feed adapter could not decode are passed in as rejected
//     and reported the same way;
//   - every valid entry is upserted in place, keeping the local Enabled flag;
//   - records the store knows but the batch omits are removed. A known ID
//     carried by a skipped or rejected entry keeps its stored record.
//
// ApplyCreated adds a waypoint the game created itself, under its own ID and
// without an upstream write.
//
// # Local Edits
//
// Add, Edit and Delete apply immediately and are forwarded to the optional
// Upstream collaborator. Until the feed echoes the change back, the ID is
// tracked as pending:
//
//	pending upsert + push omits id        → kept
//	pending upsert + push, same content   → confirmed
//	pending upsert + push, new content    → push wins
//	pending delete + push omits id        → confirmed
//	pending delete + push still has id    → push wins, record re-created
//
// The upstream write runs on the caller's goroutine, never on the loop, so a
// slow game API does not hold up pushes. Its outcome is queued back as an
// operation: a failure leaves the local edit in place, clears the pending
// mark, notifies observers and returns ErrExternalWrite, so the next push
// converges. While the write is outbound the mark cannot expire. Once it has
// finished, a pending upsert survives at most five pushes that omit it; after
// that the feed wins. Without an upstream (file feed) that is what bounds a
// local add.
//
// SetEnabled only touches the local selection flag and never goes upstream.
package reconcile
