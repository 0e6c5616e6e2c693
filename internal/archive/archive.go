package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/wayfinder/internal/waypoint"
)

// Format names an archive backend.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONGzip Format = "json.gz"
	FormatYAML     Format = "yaml"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// ParseFormat normalises a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatJSONGzip, FormatYAML, FormatSQLite, FormatPostgres:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "gzip", "gz":
		return FormatJSONGzip, nil
	default:
		return "", fmt.Errorf("unknown archive format %q", s)
	}
}

// Config selects and configures an archive backend.
type Config struct {
	Format   Format
	Dir      string // output directory for file formats
	World    string
	DSN      string // sqlite path or postgres DSN
	Compress bool   // upgrade json to json.gz
}

// Exporter writes records to durable storage.
type Exporter interface {
	Export(ctx context.Context, records []waypoint.Record) (waypoint.Report, error)
}

// Importer reads records back. For file archives source is a path; for SQL
// archives it is a world name (empty means the configured world).
type Importer interface {
	Import(ctx context.Context, source string) ([]waypoint.Record, waypoint.Report, error)
}

// Archive is both an Exporter and an Importer.
type Archive interface {
	Exporter
	Importer
	Close() error
}

// New creates the archive selected by cfg.
func New(cfg Config) (Archive, error) {
	format := cfg.Format
	if format == FormatJSON && cfg.Compress {
		format = FormatJSONGzip
	}
	switch format {
	case FormatJSON, FormatJSONGzip, FormatYAML, "":
		if format == "" {
			format = FormatJSON
		}
		return NewFileArchive(format, cfg.Dir, cfg.World), nil
	case FormatSQLite, FormatPostgres:
		return OpenSQL(format, cfg.DSN, cfg.World)
	default:
		return nil, fmt.Errorf("unknown archive format: %s", cfg.Format)
	}
}

// NewExporter creates the exporter selected by cfg.
func NewExporter(cfg Config) (Exporter, error) {
	return New(cfg)
}

// NewImporter creates an importer matching cfg. File imports detect their
// format from the file extension.
func NewImporter(cfg Config) (Importer, error) {
	return New(cfg)
}

// validRecords splits records into the valid ones and a report of the rest.
func validRecords(records []waypoint.Record) ([]waypoint.Record, waypoint.Report) {
	var report waypoint.Report
	out := make([]waypoint.Record, 0, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			report.Skip(rec.ID, i, err)
			continue
		}
		out = append(out, rec)
	}
	return out, report
}

// failAll reports every record as an external write failure.
func failAll(records []waypoint.Record, report waypoint.Report, err error) (waypoint.Report, error) {
	wrapped := fmt.Errorf("%w: %w", waypoint.ErrExternalWrite, err)
	for i, rec := range records {
		report.Skip(rec.ID, i, wrapped)
	}
	report.Applied = 0
	return report, wrapped
}
