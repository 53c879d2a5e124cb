package monitor

import (
	"net/http"
	"time"

	"github.com/banshee-data/pursuit/internal/httputil"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 2 * time.Second
	streamPongTimeout  = 30 * time.Second
	streamPingInterval = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The monitor is a local debugging surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and pushes one JSON snapshot per
// tick, starting with the current state. Clients only need to read.
func (ws *WebServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if ws.hub == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no live stream")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snaps, cancel := ws.hub.Subscribe(streamBuffer)
	defer cancel()

	// Reader: handles pongs and notices the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if ws.sim != nil {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(ws.sim.Last()); err != nil {
			return
		}
	}

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		case s, ok := <-snaps:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(s); err != nil {
				logf("websocket write failed: %v", err)
				return
			}
		}
	}
}
