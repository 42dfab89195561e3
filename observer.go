package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const observerWriteTimeout = 5 * time.Second

// ObserverHub fans game snapshots out to connected websocket observers.
// Observers are read-only spectators; a slow or dead connection is dropped
// rather than allowed to stall the broadcast.
type ObserverHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

type ObserverFrame struct {
	Session        string `json:"session"`
	Tick           int    `json:"tick"`
	Stats          Stats  `json:"stats"`
	RequestID      string `json:"requestId"`
	BattleUnderway bool   `json:"battleUnderway"`
	GameOver       bool   `json:"gameOver"`
}

func NewObserverHub() *ObserverHub {
	return &ObserverHub{
		clients: map[*websocket.Conn]bool{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func observerSnapshot(sid string, g *GameState) ObserverFrame {
	return ObserverFrame{
		Session:        shortSession(sid),
		Tick:           g.Tick,
		Stats:          g.Stats,
		RequestID:      g.CurrentRequestID,
		BattleUnderway: g.ActiveCombat != nil,
		GameOver:       g.GameOver,
	}
}

// ServeWS upgrades an observer connection. Only loopback clients are
// accepted: the feed is a local debugging surface, not a public API.
func (h *ObserverHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("observer: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("observer connected (%d total)", n)

	// Drain incoming frames; observers send nothing we care about, but the
	// read loop surfaces disconnects.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *ObserverHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

func (h *ObserverHub) Broadcast(frame ObserverFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("observer: encode frame: %v", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(observerWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}
