package ticker

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/market"
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

var prices = &hub{clients: make(map[*websocket.Conn]bool)}

func (h *hub) broadcast(evt wsEvent) {
	payload, _ := json.Marshal(evt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

func (h *hub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PricesWS streams quote snapshots to the client. The first snapshot goes
// out before the connection joins the hub, so only the broadcast loop writes
// to registered connections.
func PricesWS(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	snapshot := market.Snapshot(context.Background())
	payload, _ := json.Marshal(wsEvent{Type: "prices", Data: snapshot})
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = ws.Close()
		return nil
	}

	prices.register(ws)

	// Read loop; the protocol is server push only.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			prices.unregister(ws)
			_ = ws.Close()
			break
		}
	}
	return nil
}

// StartBroadcast pushes a fresh snapshot to every connected client on a
// fixed interval. Ticks with no clients skip the quote fetch entirely.
func StartBroadcast(interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			if prices.count() == 0 {
				continue
			}
			snapshot := market.Snapshot(context.Background())
			prices.broadcast(wsEvent{Type: "prices", Data: snapshot})
		}
	}()
}
