package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
)

type wireEnvelope struct {
	Seq  uint64          `json:"seq"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func read(t *testing.T, conn *websocket.Conn) wireEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env wireEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return env
}

func TestHubStreamsEvents(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv, "")
	waitClients(t, hub, 1)

	hub.Publish(event.MachineBroken{MachineID: 3, Kind: "furnace", Position: grid.C(4, 5)})
	hub.Publish(event.Beat{Index: 1})

	first := read(t, conn)
	if first.Type != "machine_broken" {
		t.Fatalf("expected machine_broken, got %s", first.Type)
	}
	var broken event.MachineBroken
	if err := json.Unmarshal(first.Data, &broken); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if broken.MachineID != 3 || broken.Position != grid.C(4, 5) {
		t.Errorf("unexpected payload %+v", broken)
	}

	second := read(t, conn)
	if second.Type != "beat" || second.Seq <= first.Seq {
		t.Errorf("expected a later beat, got %+v", second)
	}
}

func TestHubFiltersByType(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv, "?types=chain_length_reached,%20machine_repaired")
	waitClients(t, hub, 1)

	hub.Publish(event.Beat{Index: 0})
	hub.Publish(event.ProductionProgress{MachineID: 1, Progress: 0.5})
	hub.Publish(event.ChainLengthReached{Length: 10})

	env := read(t, conn)
	if env.Type != "chain_length_reached" {
		t.Errorf("filtered client got %s", env.Type)
	}
}

func TestHubDropsOldestForSlowClients(t *testing.T) {
	hub := NewHub(nil)
	hub.queue = 2
	c, ok := hub.register(nil)
	if !ok {
		t.Fatal("register failed")
	}

	for i := 0; i < 5; i++ {
		hub.Publish(event.Beat{Index: i})
	}
	if len(c.out) != 2 {
		t.Fatalf("expected a full queue of 2, got %d", len(c.out))
	}
	var env wireEnvelope
	json.Unmarshal(<-c.out, &env)
	var beat event.Beat
	json.Unmarshal(env.Data, &beat)
	if beat.Index != 3 {
		t.Errorf("expected the oldest kept beat to be 3, got %d", beat.Index)
	}
}

func TestHubCloseDisconnects(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	waitClients(t, hub, 1)
	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close")
	}
	waitClients(t, hub, 0)

	if _, ok := hub.register(nil); ok {
		t.Error("closed hub should refuse clients")
	}
}
