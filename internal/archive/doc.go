// Package archive reads and writes waypoint exports.
//
// File archives (json, json.gz, yaml) write one document per export:
//
//	{
//	  "id": "<uuid>",
//	  "exportedAt": "2025-06-01T12:00:00Z",
//	  "world": "overworld",
//	  "waypoints": [ {"id": 1, "title": "Base", "x": 0, "y": 64, "z": 0, ...} ]
//	}
//
// named <dir>/<world>_<yyyymmdd_hhmmss>.<ext>. SQL archives (sqlite,
// postgres) upsert each record into a waypoints table keyed by world and id.
//
// Failures are per record: an invalid entry is reported and left out while
// the rest of the batch is written or read.
package archive
