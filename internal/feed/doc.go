// Package feed connects wayfinder to the game's waypoint list.
//
// Three adapters deliver the same thing, a full waypoint batch, through the
// dispatcher as a waypoints:push event:
//
//   - Poller fetches GET /api/waypoints on an interval, backing off
//     exponentially while the game is unreachable.
//   - Subscriber holds a websocket open and reacts to "waypoints" and
//     "waypoint_created" envelopes, reconnecting with the same backoff.
//   - FileWatcher re-reads a JSON file the game rewrites whenever the list
//     changes.
//
// Client also implements the write side used for local edits (Save, Delete)
// and camera recentering.
//
// Decoding is per entry: one malformed waypoint is reported and dropped
// instead of rejecting the whole batch. Adapters record failures on the
// state.Store so the UI can show an offline banner.
package feed
