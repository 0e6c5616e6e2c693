// Package ui provides the Bubble Tea terminal interface for wayfinder.
//
// The main screen shows feed health, the waypoint count and recent activity
// read from the log file. Pressing w opens the selection dialog through the
// dialog registry; esc closes it. While the dialog is open the list is
// re-rendered whenever the instance signals a refresh, which happens after
// every push or local edit the controller applies.
//
// # Files
//
//   - app.go: Model, Update loop, messages and commands
//   - header.go: status bar and command bar
//   - waypoints.go: dialog list and footer
//   - activity.go: activity pane on the main screen
//   - forms.go: edit form, delete confirmation and import prompt modals
//   - keys.go, help.go: key bindings and the help overlay
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// Blocking work (toggles, edits, export, import, recenter) runs inside
// tea.Cmd functions so the Update loop never waits on the controller.
package ui
