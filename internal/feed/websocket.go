package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/five82/wayfinder/internal/dispatcher"
	"github.com/five82/wayfinder/internal/waypoint"
)

const (
	reconnectBase = time.Second
	pongWait      = 60 * time.Second
)

// Subscriber receives waypoint pushes over a websocket.
type Subscriber struct {
	url    string
	sink   Sink
	health HealthRecorder
	logger *slog.Logger
	dialer *ws.Dialer
}

// NewSubscriber creates a websocket subscriber for rawURL. http and https
// URLs are rewritten to ws and wss.
func NewSubscriber(rawURL string, sink Sink, health HealthRecorder, logger *slog.Logger) (*Subscriber, error) {
	u, err := websocketURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		url:    u,
		sink:   sink,
		health: health,
		logger: orDiscard(logger),
		dialer: ws.DefaultDialer,
	}, nil
}

// Run keeps a connection open until ctx is cancelled, reconnecting with
// exponential backoff after every failure.
func (s *Subscriber) Run(ctx context.Context) error {
	failures := 0
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			failures++
			if s.health != nil {
				s.health.RecordFeedError(err)
			}
			s.logger.Warn("websocket feed disconnected", "error", err, "failures", failures)
		} else {
			failures = 0
		}

		wait := calculateBackoff(failures, reconnectBase)
		s.logger.Info("reconnecting to websocket feed", "backoff", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// session runs one connection until it fails or ctx ends.
func (s *Subscriber) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.logger.Info("websocket feed connected", "url", s.url)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handleMessage(message)
	}
}

func (s *Subscriber) handleMessage(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.logger.Debug("ignoring non-envelope message", "raw", string(message))
		return
	}

	switch env.Type {
	case TypeWaypoints:
		records, report, err := DecodeBatch(env.Payload)
		if err != nil {
			s.logger.Warn("bad waypoints payload", "error", err)
			return
		}
		if err := publish(s.sink, s.logger, "websocket", dispatcher.CommandWaypointsPush, records, report); err != nil {
			s.logger.Warn("dispatch waypoints failed", "error", err)
		}
	case TypeWaypointCreated:
		rec, err := decodeOne(env.Payload)
		if err != nil {
			s.logger.Warn("bad waypoint_created payload", "error", err)
			return
		}
		err = s.sink.Dispatch(dispatcher.Event{
			Command:   dispatcher.CommandWaypointCreated,
			Source:    "websocket",
			Waypoints: []waypoint.Record{rec},
		})
		if err != nil {
			s.logger.Warn("dispatch waypoint_created failed", "error", err)
		}
	default:
		s.logger.Debug("ignoring envelope", "type", env.Type)
	}
}

func websocketURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("websocket url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "ws://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid websocket URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported websocket scheme %q", u.Scheme)
	}
	if u.Path == "" {
		u.Path = "/api/waypoints/stream"
	}
	return u.String(), nil
}
