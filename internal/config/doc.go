// Package config loads wayfinder's runtime configuration.
//
// Configuration lives in ~/.config/wayfinder/config.toml. Every key has a
// default, so a missing file is not an error. Environment variables prefixed
// with WAYFINDER_ override file values, with dots in the key replaced by
// underscores (WAYFINDER_FEED_MODE overrides feed.mode).
//
// Example:
//
//	world = "altis"
//	import_path = "~/waypoints/seed.yaml"
//
//	[feed]
//	mode = "websocket"          # http, websocket or file
//	url = "http://127.0.0.1:7480"
//	path = ""                   # watched JSON file in file mode
//	poll_interval = "2s"
//
//	[export]
//	format = "json"             # json, json.gz, yaml, sqlite, postgres
//	dir = "~/.local/share/wayfinder/exports"
//	dsn = ""
//	compress = false
//
//	[log]
//	level = "info"
//	file = "~/.local/share/wayfinder/logs/wayfinder.log"
//	graylog = ""                # host:port enables GELF output
//
// Paths beginning with ~ are expanded to the user's home directory.
package config
