package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wayfinder/internal/dispatcher"
)

// testServer upgrades to a websocket and writes the given messages.
func testServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for _, m := range messages {
			if err := c.WriteMessage(ws.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// hold the connection until the client goes away
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func envelope(t *testing.T, typ string, payload any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(Envelope{Type: typ, Payload: raw})
	require.NoError(t, err)
	return string(data)
}

func TestSubscriberDispatchesEnvelopes(t *testing.T) {
	srv := testServer(t,
		"not json",
		envelope(t, "chat", map[string]string{"text": "hi"}),
		envelope(t, TypeWaypoints, []Waypoint{{ID: 1, Title: "Base"}, {ID: 2, Title: "Mine"}}),
		envelope(t, TypeWaypointCreated, Waypoint{ID: 3, Title: "Teleport"}),
	)

	sink := newRecordingSink()
	sub, err := NewSubscriber(srv.URL, sink, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	var got []dispatcher.Event
	for len(got) < 2 {
		select {
		case e := <-sink.ch:
			got = append(got, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %d events", len(got))
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, dispatcher.CommandWaypointsPush, got[0].Command)
	assert.Len(t, got[0].Waypoints, 2)
	assert.Equal(t, dispatcher.CommandWaypointCreated, got[1].Command)
	require.Len(t, got[1].Waypoints, 1)
	assert.Equal(t, "Teleport", got[1].Waypoints[0].Title)
}

func TestSubscriberRecordsDialFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	health := &recordingHealth{}
	sub, err := NewSubscriber(srv.URL, newRecordingSink(), health, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, sub.Run(ctx))
	assert.GreaterOrEqual(t, health.count(), 1)
}

func TestWebsocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:7480":       "ws://localhost:7480/api/waypoints/stream",
		"https://game.example/feed":   "wss://game.example/feed",
		"localhost:9000":              "ws://localhost:9000/api/waypoints/stream",
		"ws://127.0.0.1:1/api/stream": "ws://127.0.0.1:1/api/stream",
	}
	for in, want := range tests {
		got, err := websocketURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "ftp://host"} {
		_, err := websocketURL(bad)
		assert.Error(t, err, bad)
	}
}
