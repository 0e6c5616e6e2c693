// Package bulk runs export and import over many waypoints at once. Neither
// direction aborts on a single failing record: every outcome is collected in
// a waypoint.Report and the caller shows the failure count.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/five82/wayfinder/internal/archive"
	"github.com/five82/wayfinder/internal/waypoint"
)

// Selection is the part of a dialog instance export reads from.
type Selection interface {
	Selected() []waypoint.Record
}

// Importer applies one record as a local edit.
type Importer interface {
	Import(ctx context.Context, rec waypoint.Record) (waypoint.Record, error)
}

// Orchestrator wires the selection, the controller and an archive together.
type Orchestrator struct {
	exporter archive.Exporter
	importer Importer
	logger   *slog.Logger
}

// New returns an orchestrator. exporter may be nil when only imports are
// needed, and importer may be nil when only exports are.
func New(exporter archive.Exporter, importer Importer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{exporter: exporter, importer: importer, logger: logger}
}

// ExportSelected hands the selected records to the exporter.
func (o *Orchestrator) ExportSelected(ctx context.Context, sel Selection) (waypoint.Report, error) {
	if o.exporter == nil {
		return waypoint.Report{}, errors.New("no exporter configured")
	}
	records := sel.Selected()
	if len(records) == 0 {
		return waypoint.Report{}, nil
	}
	return o.Export(ctx, records)
}

// Export writes records through the exporter.
func (o *Orchestrator) Export(ctx context.Context, records []waypoint.Record) (waypoint.Report, error) {
	if o.exporter == nil {
		return waypoint.Report{}, errors.New("no exporter configured")
	}
	report, err := o.exporter.Export(ctx, records)
	o.logReport("export", report)
	if err != nil {
		return report, fmt.Errorf("export: %w", err)
	}
	return report, nil
}

// ImportFrom applies each record through the controller. A failure is
// recorded for that record and the batch continues.
func (o *Orchestrator) ImportFrom(ctx context.Context, records []waypoint.Record) waypoint.Report {
	var report waypoint.Report
	if o.importer == nil {
		for i, rec := range records {
			report.Skip(rec.ID, i, errors.New("no importer configured"))
		}
		return report
	}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			report.Skip(rec.ID, i, err)
			continue
		}
		if _, err := o.importer.Import(ctx, rec); err != nil {
			report.Skip(rec.ID, i, err)
			continue
		}
		report.Applied++
	}
	o.logReport("import", report)
	return report
}

// ImportFile reads source through src and applies the decoded records.
// Entries src could not decode are part of the returned report.
func (o *Orchestrator) ImportFile(ctx context.Context, src archive.Importer, source string) (waypoint.Report, error) {
	records, readReport, err := src.Import(ctx, source)
	if err != nil {
		return readReport, fmt.Errorf("import %s: %w", source, err)
	}
	report := o.ImportFrom(ctx, records)
	report.Skipped = append(readReport.Skipped, report.Skipped...)
	return report, nil
}

func (o *Orchestrator) logReport(action string, report waypoint.Report) {
	for _, s := range report.Skipped {
		o.logger.Warn(action+" skipped waypoint", "id", s.ID, "entry", s.Index, "error", s.Err)
	}
	o.logger.Info(action+" finished", "applied", report.Applied, "failed", report.Failed())
}
