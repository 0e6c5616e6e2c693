// Package app is wayfinder's composition root.
//
// It loads the configuration, sets up logging and builds every component
// the other packages provide:
//
//	config.Load ─> logging.Setup ─> newRuntime
//	                                  ├─ state.Store
//	                                  ├─ reconcile.Controller (upstream: feed.Client)
//	                                  ├─ dispatcher.Dispatcher (push/created handlers)
//	                                  ├─ dialog.Registry (observes the controller)
//	                                  ├─ archive.Archive
//	                                  └─ bulk.Orchestrator
//
// Run supervises the controller loop and the feed adapter selected by
// feed.mode in an errgroup, then blocks in the TUI. Feed adapters never
// touch the store directly: they dispatch events, and the handlers apply
// them through the controller one batch at a time.
//
// Export and Import are the headless entry points used by the CLI
// subcommands. Export reads the feed once and writes an archive. Import
// seeds the store from the game, then applies an archive as local edits so
// every record is forwarded upstream. Import is unavailable in file mode
// because a file feed has nowhere to write to.
//
// Fatal errors are configuration, logging and archive setup failures.
// Feed failures are recorded on the store and retried by the adapters.
package app
