package recorder

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"cue-stack/shared/bus"
)

// sendQueueSize bounds how far a slow client may fall behind before frames
// are dropped.
const sendQueueSize = 64

// frame is the JSON envelope pushed to dashboard clients.
type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub pushes pipeline progress to connected dashboard clients over
// websockets. Clients are read-only; they receive STATE_UPDATE and
// SHOW_SUMMARY frames as the pipeline advances.
type Hub struct {
	port int

	mu    sync.RWMutex
	conns map[*websocket.Conn]chan frame
}

func NewHub(port int) *Hub {
	return &Hub{
		port:  port,
		conns: make(map[*websocket.Conn]chan frame),
	}
}

// Start subscribes the hub to the bus and serves the websocket endpoint.
func (h *Hub) Start(ctx context.Context, b *bus.Bus) {
	b.Subscribe(bus.StateUpdate, func(msg bus.Message) {
		h.broadcast(frame{Type: string(bus.StateUpdate), Payload: msg.Payload})
	})
	b.Subscribe(bus.ShowSummary, func(msg bus.Message) {
		h.broadcast(frame{Type: string(bus.ShowSummary), Payload: msg.Payload})
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/dashboard", h.handleWebSocket)

	log.Printf("Dashboard websocket hub starting on port %d", h.port)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", h.port), mux); err != nil {
			log.Printf("Websocket hub error: %v", err)
		}
	}()
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("Websocket accept error: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	sendq := make(chan frame, sendQueueSize)
	h.mu.Lock()
	h.conns[conn] = sendq
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		close(sendq)
	}()

	log.Printf("Dashboard client connected: %s", r.RemoteAddr)

	ctx := r.Context()

	// One writer per connection: frames reach each client in the order they
	// were broadcast.
	go func() {
		for f := range sendq {
			if err := wsjson.Write(ctx, conn, f); err != nil {
				return
			}
		}
	}()

	// Clients don't send anything meaningful; reading keeps the connection
	// alive and detects disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func (h *Hub) broadcast(f frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sendq := range h.conns {
		select {
		case sendq <- f:
		default:
			// Slow client: drop the frame rather than block the publisher.
		}
	}
}

// ClientCount reports the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
