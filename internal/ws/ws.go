// internal/ws/ws.go
// One-way websocket delivery for ordered change streams. The server
// pushes, the client only sends pongs and close frames. A slow client
// gets its connection closed rather than having events dropped, since
// the streams carried here guarantee ordering without gaps.

package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Upgrade switches the HTTP connection to the websocket protocol
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// Serve pumps payloads to the peer until the source channel closes,
// the peer disconnects, or ctx is cancelled. cancel is invoked on
// every exit path so the upstream subscription is always released.
// Blocks until the stream ends.
func Serve(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, payloads <-chan []byte, stream string, log *zap.SugaredLogger) {
	clientID := uuid.NewString()
	activeStreams.WithLabelValues(stream).Inc()
	defer activeStreams.WithLabelValues(stream).Dec()

	log.Debugw("stream opened", "stream", stream, "client_id", clientID)
	defer log.Debugw("stream closed", "stream", stream, "client_id", clientID)

	defer cancel()
	defer conn.Close()

	go readPump(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-payloads:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			deliveredEvents.WithLabelValues(stream).Inc()

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// readPump discards client frames, keeps the pong deadline fresh, and
// cancels the stream when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
