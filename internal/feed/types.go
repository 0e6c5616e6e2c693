package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/five82/wayfinder/internal/waypoint"
)

// Waypoint is the wire form used by the game API.
type Waypoint struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Icon   string  `json:"icon,omitempty"`
	Color  string  `json:"color,omitempty"`
	Pinned bool    `json:"pinned,omitempty"`
}

// Record converts the wire form. Enabled is local and always false here.
func (w Waypoint) Record() waypoint.Record {
	return waypoint.Record{
		ID:       waypoint.ID(w.ID),
		Title:    w.Title,
		Position: waypoint.Position{X: w.X, Y: w.Y, Z: w.Z},
		Icon:     w.Icon,
		Color:    w.Color,
		Pinned:   w.Pinned,
	}
}

// FromRecord converts a record to the wire form.
func FromRecord(rec waypoint.Record) Waypoint {
	return Waypoint{
		ID:     int(rec.ID),
		Title:  rec.Title,
		X:      rec.X,
		Y:      rec.Y,
		Z:      rec.Z,
		Icon:   rec.Icon,
		Color:  rec.Color,
		Pinned: rec.Pinned,
	}
}

// Envelope frames websocket messages.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Envelope types.
const (
	TypeWaypoints       = "waypoints"
	TypeWaypointCreated = "waypoint_created"
)

// listResponse is the object form of a waypoint list.
type listResponse struct {
	Waypoints []json.RawMessage `json:"waypoints"`
}

// DecodeBatch decodes a waypoint list, given either as a JSON array or as an
// object with a "waypoints" array. Entries that fail to decode are reported
// and skipped. The error is non-nil only when the list itself is unreadable.
func DecodeBatch(raw []byte) ([]waypoint.Record, waypoint.Report, error) {
	var entries []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return nil, waypoint.Report{}, fmt.Errorf("decode waypoints: empty body")
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, waypoint.Report{}, fmt.Errorf("decode waypoints: %w", err)
		}
	default:
		var resp listResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, waypoint.Report{}, fmt.Errorf("decode waypoints: %w", err)
		}
		entries = resp.Waypoints
	}

	var report waypoint.Report
	records := make([]waypoint.Record, 0, len(entries))
	for i, entry := range entries {
		rec, err := decodeOne(entry)
		if err != nil {
			report.Skip(rec.ID, i, err)
			continue
		}
		records = append(records, rec)
	}
	report.Applied = len(records)
	return records, report, nil
}

func decodeOne(raw []byte) (waypoint.Record, error) {
	var w Waypoint
	if err := json.Unmarshal(raw, &w); err != nil {
		return waypoint.Record{ID: entryID(raw)}, fmt.Errorf("%w: %w", waypoint.ErrInvalidRecord, err)
	}
	return w.Record(), nil
}

// entryID recovers the id of an entry that failed to decode, or -1 when the
// id itself is unreadable.
func entryID(raw []byte) waypoint.ID {
	var head struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.ID == nil {
		return -1
	}
	return waypoint.ID(*head.ID)
}
