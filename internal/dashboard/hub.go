package dashboard

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"pallet-backend/internal/cache"
	"pallet-backend/internal/metrics"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RefreshEvent tells connected dashboards to reload their widgets
type RefreshEvent struct {
	Counter int64     `json:"counter"`
	PltNum  string    `json:"plt_num"`
	Action  string    `json:"action"`
	At      time.Time `json:"at"`
}

// Hub fans pallet changes out to dashboard websocket clients. It also
// drops and re-warms the cached widget data. Reset, when set, clears any
// in-process widget state before the re-warm.
type Hub struct {
	Reset func()

	counter    atomic.Int64
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan RefreshEvent
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan RefreshEvent, 64),
	}
}

// Run delivers queued events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.broadcast:
			h.send(ev)
		}
	}
}

// Counter is the number of refreshes signalled so far
func (h *Hub) Counter() int64 {
	return h.counter.Load()
}

// Clients is the number of connected websockets
func (h *Hub) Clients() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// PalletChanged invalidates pallet-derived caches and signals a refresh.
// It never blocks; if the queue is full the event is dropped but the
// counter still moves.
func (h *Hub) PalletChanged(pltNum, action string) {
	if h.Reset != nil {
		h.Reset()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	cache.InvalidatePalletCaches(ctx)
	cancel()
	cache.PreWarmDashboard()

	ev := RefreshEvent{Counter: h.counter.Add(1), PltNum: pltNum, Action: action, At: time.Now().UTC()}
	select {
	case h.broadcast <- ev:
	default:
		log.Printf("[Dashboard] Refresh queue full, dropped event %d", ev.Counter)
	}
}

// ServeWS upgrades the request and keeps the client until it disconnects.
// The current counter is sent on connect.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Dashboard] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	err = conn.WriteJSON(RefreshEvent{Counter: h.counter.Load(), Action: "connected", At: time.Now().UTC()})
	if err == nil {
		h.clients[conn] = true
		metrics.DashboardClients.Inc()
	}
	h.clientsMux.Unlock()
	if err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		metrics.DashboardClients.Dec()
	}
}

func (h *Hub) send(ev RefreshEvent) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := client.WriteJSON(ev); err != nil {
			client.Close()
			delete(h.clients, client)
			metrics.DashboardClients.Dec()
		}
	}
}

func (h *Hub) closeAll() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
		metrics.DashboardClients.Dec()
	}
}
