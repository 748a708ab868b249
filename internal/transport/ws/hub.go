// Package ws streams factory notifications to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/beltworks/internal/factory/event"
)

// DefaultQueue is the per-client buffer of encoded messages.
const DefaultQueue = 256

const writeTimeout = 5 * time.Second

// Envelope is the wire format of one notification.
type Envelope struct {
	Seq  uint64      `json:"seq"`
	Type string      `json:"type"`
	Data event.Event `json:"data"`
}

type client struct {
	id    uint64
	out   chan []byte
	types map[string]bool // nil means every type
}

func (c *client) wants(t string) bool {
	return c.types == nil || c.types[t]
}

// Hub fans factory notifications out to websocket clients. It implements
// event.Sink. Slow clients lose their oldest messages.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader
	queue    int

	mu      sync.Mutex
	clients map[uint64]*client
	closed  bool
	done    chan struct{}

	nextID atomic.Uint64
	seq    atomic.Uint64
}

// NewHub creates a hub. A nil logger discards diagnostics.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		queue:   DefaultQueue,
		clients: make(map[uint64]*client),
		done:    make(chan struct{}),
	}
}

// Publish implements event.Sink.
func (h *Hub) Publish(evt event.Event) {
	msg, err := json.Marshal(Envelope{Seq: h.seq.Add(1), Type: evt.EventType(), Data: evt})
	if err != nil {
		h.logger.Warn("cannot encode event", "type", evt.EventType(), "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if !c.wants(evt.EventType()) {
			continue
		}
		select {
		case c.out <- msg:
		default:
			// drop the oldest message to make room
			select {
			case <-c.out:
			default:
			}
			select {
			case c.out <- msg:
			default:
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}

func (h *Hub) register(types map[string]bool) (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{id: h.nextID.Add(1), out: make(chan []byte, h.queue), types: types}
	h.clients[c.id] = c
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

// Handler upgrades requests to websocket connections and streams
// notifications. The optional "types" query parameter is a comma separated
// list of event types to receive.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c, ok := h.register(parseTypes(r.URL.Query().Get("types")))
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer h.unregister(c)
		h.logger.Debug("websocket client connected", "client", c.id, "remote", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader loop; clients only send control frames.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				h.logger.Debug("websocket client disconnected", "client", c.id)
				return
			case <-h.done:
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
				return
			case msg := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					if !errors.Is(err, websocket.ErrCloseSent) {
						h.logger.Debug("websocket write failed", "client", c.id, "err", err)
					}
					return
				}
			}
		}
	}
}

// Serve runs an HTTP server exposing the feed at /events until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/events", h.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	h.logger.Info("websocket feed listening", "addr", addr, "path", "/events")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func parseTypes(s string) map[string]bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	types := make(map[string]bool)
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	return types
}

var _ event.Sink = (*Hub)(nil)
