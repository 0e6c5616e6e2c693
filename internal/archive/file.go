package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/five82/wayfinder/internal/waypoint"
)

// Document is the on-disk export layout.
type Document struct {
	ID         string            `json:"id" yaml:"id"`
	ExportedAt time.Time         `json:"exportedAt" yaml:"exportedAt"`
	World      string            `json:"world" yaml:"world"`
	Waypoints  []waypoint.Record `json:"waypoints" yaml:"waypoints"`
}

// FileArchive writes one document per export into a directory.
type FileArchive struct {
	format Format
	dir    string
	world  string
	now    func() time.Time

	lastPath string
}

// NewFileArchive returns a file archive writing format into dir.
func NewFileArchive(format Format, dir, world string) *FileArchive {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if strings.TrimSpace(world) == "" {
		world = "world"
	}
	return &FileArchive{format: format, dir: dir, world: world, now: time.Now}
}

// LastPath returns the file written by the most recent successful export.
func (a *FileArchive) LastPath() string { return a.lastPath }

// Close implements Archive.
func (a *FileArchive) Close() error { return nil }

// Export writes the valid records to a new file.
func (a *FileArchive) Export(ctx context.Context, records []waypoint.Record) (waypoint.Report, error) {
	valid, report := validRecords(records)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	doc := Document{
		ID:         uuid.NewString(),
		ExportedAt: a.now().UTC(),
		World:      a.world,
		Waypoints:  valid,
	}

	path := filepath.Join(a.dir, a.fileName(doc.ExportedAt))
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return failAll(valid, report, fmt.Errorf("create output directory: %w", err))
	}

	var err error
	switch a.format {
	case FormatJSONGzip:
		err = writeGzipJSON(path, doc)
	case FormatYAML:
		err = writeYAML(path, doc)
	default:
		err = writeJSON(path, doc)
	}
	if err != nil {
		return failAll(valid, report, err)
	}

	report.Applied = len(valid)
	a.lastPath = path
	return report, nil
}

func (a *FileArchive) fileName(ts time.Time) string {
	world := strings.ReplaceAll(a.world, " ", "_")
	world = strings.ReplaceAll(world, ":", "_")
	world = strings.ReplaceAll(world, string(filepath.Separator), "_")
	return fmt.Sprintf("%s_%s.%s", world, ts.Format("20060102_150405"), extension(a.format))
}

func extension(f Format) string {
	switch f {
	case FormatJSONGzip:
		return "json.gz"
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

func writeJSON(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func writeGzipJSON(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(doc)
}

func writeYAML(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	return encoder.Close()
}

// Import reads a file written by Export. A bare JSON array of waypoints is
// accepted as well. Entries that fail to decode or validate are reported.
func (a *FileArchive) Import(ctx context.Context, path string) ([]waypoint.Record, waypoint.Report, error) {
	var report waypoint.Report
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	data, err := readFile(path)
	if err != nil {
		return nil, report, err
	}

	var records []waypoint.Record
	switch {
	case isYAML(path):
		records, report, err = decodeYAML(data)
	default:
		records, report, err = decodeJSON(data)
	}
	if err != nil {
		return nil, report, fmt.Errorf("decode %s: %w", path, err)
	}

	valid, invalid := validRecords(records)
	report.Skipped = append(report.Skipped, invalid.Skipped...)
	report.Applied = len(valid)
	return valid, report, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return data, nil
}

func isYAML(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func decodeJSON(data []byte) ([]waypoint.Record, waypoint.Report, error) {
	var raw []json.RawMessage
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, waypoint.Report{}, err
		}
	} else {
		var doc struct {
			Waypoints []json.RawMessage `json:"waypoints"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, waypoint.Report{}, err
		}
		raw = doc.Waypoints
	}

	var report waypoint.Report
	records := make([]waypoint.Record, 0, len(raw))
	for i, entry := range raw {
		var rec waypoint.Record
		if err := json.Unmarshal(entry, &rec); err != nil {
			report.Skip(-1, i, fmt.Errorf("%w: %w", waypoint.ErrInvalidRecord, err))
			continue
		}
		records = append(records, rec)
	}
	return records, report, nil
}

func decodeYAML(data []byte) ([]waypoint.Record, waypoint.Report, error) {
	var doc struct {
		Waypoints []yaml.Node `yaml:"waypoints"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, waypoint.Report{}, err
	}

	var report waypoint.Report
	records := make([]waypoint.Record, 0, len(doc.Waypoints))
	for i := range doc.Waypoints {
		var rec waypoint.Record
		if err := doc.Waypoints[i].Decode(&rec); err != nil {
			report.Skip(-1, i, fmt.Errorf("%w: %w", waypoint.ErrInvalidRecord, err))
			continue
		}
		records = append(records, rec)
	}
	return records, report, nil
}
