// Package logtail reads the tail of wayfinder's log file for the activity
// pane.
//
// Read returns the last N lines using a ring buffer, so memory stays
// proportional to N rather than the file size. A missing file yields no
// lines and no error.
//
// Parse understands the key=value layout written by slog's text handler:
//
//	time=14:32:15 level=WARN msg="waypoint skipped" id=7 reason="blank title"
//
// Lines in any other format are kept verbatim in Entry.Raw.
package logtail
