package broadcast

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// NewUpgrader returns a websocket upgrader. When allowedOrigins is empty the
// default same-origin check applies.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[o] = struct{}{}
		}
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			if !ok {
				_, ok = allowed["*"]
			}
			return ok
		}
	}
	return u
}

// ServeWS pumps sub's events to conn as JSON {event, data} messages.
// Heartbeats become ping frames. It returns when the peer disconnects, the
// hub drops the subscriber or a write fails, and always closes conn.
func ServeWS(ctx context.Context, conn *websocket.Conn, sub *ChannelSubscriber) {
	defer conn.Close()

	peerGone := make(chan struct{})
	go readPump(conn, peerGone)

	for {
		select {
		case <-ctx.Done():
			writeClose(conn)
			return
		case <-sub.Done():
			writeClose(conn)
			return
		case <-peerGone:
			return
		case ev := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(constants.WSWriteWait))
			var err error
			if ev.Name == constants.EventHeartbeat {
				err = conn.WriteMessage(websocket.PingMessage, nil)
			} else {
				err = conn.WriteJSON(ev)
			}
			if err != nil {
				log.Debug().Err(err).Str("subscriber_id", sub.ID()).Msg("WebSocket write failed")
				return
			}
		}
	}
}

// readPump discards client messages and keeps the read deadline moving on pongs.
func readPump(conn *websocket.Conn, peerGone chan<- struct{}) {
	defer close(peerGone)

	_ = conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(constants.WSWriteWait))
}
