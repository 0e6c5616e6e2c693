// Package dialog manages the lifecycle of the waypoint selection dialog.
//
// A Registry holds at most one live Instance. Open constructs an Instance
// from a store snapshot with default criteria; opening again while one is
// live returns that instance together with ErrDuplicateOpen. Close releases
// the slot, after which pushes still update the store but no dialog work
// happens.
//
// The Registry is registered with the reconcile controller as an Observer.
// Every accepted change re-projects the live instance and signals its
// Refresh channel, which the UI waits on to redraw. The signal coalesces: a
// burst of pushes produces a single pending refresh.
//
// Instance never calls the controller while holding its own lock, because
// the controller notifies observers on its loop goroutine before the call
// returns.
package dialog
