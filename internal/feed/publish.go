package feed

import (
	"log/slog"

	"github.com/five82/wayfinder/internal/dispatcher"
	"github.com/five82/wayfinder/internal/waypoint"
)

// Sink receives feed events. *dispatcher.Dispatcher implements it.
type Sink interface {
	Dispatch(dispatcher.Event) error
}

// HealthRecorder tracks feed failures. *state.Store implements it.
type HealthRecorder interface {
	RecordFeedError(err error)
}

func publish(sink Sink, logger *slog.Logger, source, command string, records []waypoint.Record, report waypoint.Report) error {
	for _, s := range report.Skipped {
		logger.Debug("malformed waypoint", "source", source, "id", s.ID, "entry", s.Index, "error", s.Err)
	}
	return sink.Dispatch(dispatcher.Event{
		Command:   command,
		Source:    source,
		Waypoints: records,
		Skipped:   report.Skipped,
	})
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
