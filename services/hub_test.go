package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"finnduel-overlay-backend/models"
)

func newTestHub(t *testing.T) (*Hub, *StateService, *httptest.Server) {
	t.Helper()
	state, _ := newTestStateService(t)
	hub := NewHub(state, DefaultHubConfig())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r); err != nil && !errors.Is(err, ErrHubClosed) {
			t.Logf("ServeWS: %v", err)
		}
	}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, state, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) models.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHub_PlaybackRoundTrip(t *testing.T) {
	hub, state, server := newTestHub(t)

	conn := dial(t, server)
	defer conn.Close()

	initial := readMessage(t, conn)
	if initial.Type != "snapshot" || initial.Snapshot == nil || initial.Snapshot.Sequence != 0 {
		t.Fatalf("initial message = %+v, want snapshot 0", initial)
	}

	event := models.PlaybackEvent{Type: models.EventTimeUpdate, PositionSeconds: 12}
	if err := conn.WriteJSON(models.WSMessage{Type: "playback", Event: &event}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Snapshot == nil || msg.Snapshot.Status != models.StatusSuspended {
		t.Fatalf("message = %+v, want suspended snapshot", msg)
	}
	if hub.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", hub.ConnectionCount())
	}
	if state.GetState().Sequence != 1 {
		t.Errorf("state Sequence = %d, want 1", state.GetState().Sequence)
	}
}

func TestHub_BroadcastsToAllPages(t *testing.T) {
	_, state, server := newTestHub(t)

	a := dial(t, server)
	defer a.Close()
	b := dial(t, server)
	defer b.Close()

	readMessage(t, a)
	readMessage(t, b)

	if _, err := state.SelectCategory("innings"); err != nil {
		t.Fatalf("SelectCategory failed: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Snapshot == nil || msg.Snapshot.Category != "innings" {
			t.Errorf("message = %+v, want innings snapshot", msg)
		}
	}
}

func TestHub_RejectsBadMessages(t *testing.T) {
	_, _, server := newTestHub(t)

	conn := dial(t, server)
	defer conn.Close()
	readMessage(t, conn)

	tests := []struct {
		payload string
		want    string
	}{
		{`not json`, "invalid JSON"},
		{`{"type":"playback"}`, "without event"},
		{`{"type":"playback","event":{"type":"rewind","positionSeconds":1}}`, "unknown playback event type"},
		{`{"type":"category","category":"darts"}`, "unknown category"},
		{`{"type":"bet"}`, "unknown message type"},
	}

	for _, tt := range tests {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		msg := readMessage(t, conn)
		if msg.Type != "error" || !strings.Contains(msg.Error, tt.want) {
			t.Errorf("payload %s: message = %+v, want error containing %q", tt.payload, msg, tt.want)
		}
	}
}

func TestHub_DisconnectReleasesSubscription(t *testing.T) {
	hub, state, server := newTestHub(t)

	conn := dial(t, server)
	readMessage(t, conn)

	waitFor(t, "subscription", func() bool { return state.SubscriberCount() == 1 })

	conn.Close()

	waitFor(t, "connection removal", func() bool { return hub.ConnectionCount() == 0 })
	waitFor(t, "unsubscribe", func() bool { return state.SubscriberCount() == 0 })
}

func TestHub_ClosedHubDropsNewPages(t *testing.T) {
	hub, state, server := newTestHub(t)
	hub.Close()

	conn := dial(t, server)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
	if hub.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", hub.ConnectionCount())
	}
	waitFor(t, "subscription release", func() bool { return state.SubscriberCount() == 0 })
}
