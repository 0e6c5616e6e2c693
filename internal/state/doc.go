// Package state holds the canonical waypoint list for wayfinder.
//
// # Overview
//
// The Store is the single source of truth for the waypoints of the current
// world. The reconcile controller is its only writer; the dialog, the UI and
// the headless commands read from it through Snapshot.
//
//	Writer (reconcile loop):        Readers:
//	┌────────────────────┐         ┌────────────────────┐
//	│ ApplyPush()        │         │ dialog.Registry    │
//	│ Add/Edit/Delete()  │         │ ui.Model           │
//	│      ↓             │         │ bulk export        │
//	│ store.Upsert()     │────────→│ store.Snapshot()   │
//	│ store.Remove()     │ (mutex) │                    │
//	└────────────────────┘         └────────────────────┘
//
// # Ordering
//
// Records keep the slot they were first inserted into. Upserting an existing
// ID replaces the record in place, so a rename coming from the game does not
// move a waypoint in the index-ordered view. Removing a record closes the gap.
// IDs are unique after any sequence of Upsert and Remove calls.
//
// # Feed Health
//
// Feed adapters report their outcome with RecordFeedSuccess and
// RecordFeedError. A failure never discards stored records:
//
//	store.RecordFeedError(err)
//	→ snapshot.Records     = <unchanged>
//	→ snapshot.LastError   = err
//	→ snapshot.ConsecutiveFailures++
//
// Snapshot.IsOffline reports true after two consecutive failures, which the
// UI shows as an offline banner.
//
// # Defensive Copying
//
// Snapshot clones the record slice and the error value. Callers may sort or
// mutate the returned records freely.
//
// The zero Store is ready to use.
package state
