package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/wayfinder/internal/dispatcher"
	"github.com/five82/wayfinder/internal/waypoint"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// Fetcher retrieves the full waypoint list. *Client implements it.
type Fetcher interface {
	FetchWaypoints(ctx context.Context) ([]waypoint.Record, waypoint.Report, error)
}

// Poller refreshes the waypoint list at a fixed cadence.
type Poller struct {
	fetcher  Fetcher
	sink     Sink
	health   HealthRecorder
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a poller. A non-positive interval uses the default.
func NewPoller(fetcher Fetcher, sink Sink, health HealthRecorder, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		sink:     sink,
		health:   health,
		interval: interval,
		logger:   orDiscard(logger),
	}
}

// Run polls until ctx is cancelled. Consecutive failures stretch the wait
// between polls.
func (p *Poller) Run(ctx context.Context) error {
	failures := 0
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			p.logger.Warn("waypoint poll failed", "error", err, "failures", failures)
		} else {
			failures = 0
		}
		timer.Reset(calculateBackoff(failures, p.interval))
	}
}

func (p *Poller) poll(ctx context.Context) error {
	records, report, err := p.fetcher.FetchWaypoints(ctx)
	if err != nil {
		if p.health != nil && ctx.Err() == nil {
			p.health.RecordFeedError(err)
		}
		return err
	}
	return publish(p.sink, p.logger, "http", dispatcher.CommandWaypointsPush, records, report)
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
