package recorder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func dialHub(t *testing.T, ctx context.Context, h *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.handleWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("websocket.Dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	waitForClients(t, h, 1)
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastPreservesFrameOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := NewHub(0)
	conn := dialHub(t, ctx, h)

	const n = 20
	for i := 0; i < n; i++ {
		h.broadcast(frame{Type: "STATE_UPDATE", Payload: map[string]any{"seq": i}})
	}

	for i := 0; i < n; i++ {
		var got struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		if err := wsjson.Read(ctx, conn, &got); err != nil {
			t.Fatalf("Read frame %d error: %v", i, err)
		}
		if got.Type != "STATE_UPDATE" {
			t.Fatalf("Frame %d type = %q, want STATE_UPDATE", i, got.Type)
		}
		if seq := int(got.Payload["seq"].(float64)); seq != i {
			t.Fatalf("Frame %d carries seq %d; frames must arrive in broadcast order", i, seq)
		}
	}
}

func TestHubRemovesDisconnectedClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := NewHub(0)
	conn := dialHub(t, ctx, h)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, h, 0)

	// Broadcasting with no clients must not panic or block.
	h.broadcast(frame{Type: "STATE_UPDATE", Payload: nil})
}
