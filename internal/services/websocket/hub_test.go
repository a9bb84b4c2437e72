package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/logger"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newTestHub(t *testing.T) *HubService {
	t.Helper()

	cfg := config.Load()
	cfg.LogDirectory = t.TempDir()

	hub := NewHubService(logger.NewLogger(cfg))
	go hub.Run()
	return hub
}

// dialFeed stands up a server that registers every upgraded connection with
// the hub, then connects one client to it.
func dialFeed(t *testing.T, hub *HubService) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func waitForClients(t *testing.T, hub *HubService, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Client count never reached %d (at %d)", want, hub.GetClientCount())
}

func TestHubService_BroadcastReachesViewer(t *testing.T) {
	hub := newTestHub(t)
	conn := dialFeed(t, hub)
	waitForClients(t, hub, 1)

	hub.Broadcast([]byte(`{"verdict":"Safe to eat"}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Errorf("Expected text message, got type %d", msgType)
	}
	if string(message) != `{"verdict":"Safe to eat"}` {
		t.Errorf("Unexpected message: %s", message)
	}
}

func TestHubService_BroadcastReachesAllViewers(t *testing.T) {
	hub := newTestHub(t)
	first := dialFeed(t, hub)
	second := dialFeed(t, hub)
	waitForClients(t, hub, 2)

	hub.Broadcast([]byte("update"))

	for i, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Viewer %d ReadMessage failed: %v", i, err)
		}
		if string(message) != "update" {
			t.Errorf("Viewer %d got unexpected message: %s", i, message)
		}
	}
}

func TestHubService_CountStartsAtZero(t *testing.T) {
	hub := newTestHub(t)

	if count := hub.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients, got %d", count)
	}
}
