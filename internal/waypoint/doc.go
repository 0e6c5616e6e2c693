// Package waypoint defines the waypoint record shared by every other
// wayfinder package, together with the error kinds and batch report shape
// used when a sync or bulk operation partially fails.
//
// A Record is identified by its ID. Everything except Enabled is owned by the
// game (the push feed is authoritative for it); Enabled is the local
// selection flag and travels with the record through the store, exports and
// imports.
//
// Batch operations never abort on a single bad record. Each failure is
// captured as a RecordError inside a Report and the rest of the batch is
// applied.
package waypoint
