package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutPositionWidth is the minimum width to show the position column.
	LayoutPositionWidth = 72
)

// Activity pane limits.
const (
	// ActivityLines is how many log lines the activity pane reads.
	ActivityLines = 200
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// OfflineGrace is how stale the last sync may be before it is shown as old.
	OfflineGrace = 30 * time.Second
)
