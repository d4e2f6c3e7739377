package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// WriteSSEFrame writes one event in the text/event-stream format.
// Heartbeats are written as comments so clients do not see them as events.
func WriteSSEFrame(w io.Writer, ev Event) error {
	if ev.Name == constants.EventHeartbeat {
		_, err := io.WriteString(w, ": heartbeat\n\n")
		return err
	}

	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}

// ServeSSE streams sub's events to w until the client goes away, the hub
// drops the subscriber or a write fails.
func ServeSSE(ctx context.Context, w http.ResponseWriter, sub *ChannelSubscriber) error {
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set(constants.HeaderContentType, constants.ContentTypeEventStream)
	h.Set(constants.HeaderCacheControl, constants.CacheControlNoCache)
	h.Set(constants.HeaderConnection, "keep-alive")
	h.Set(constants.HeaderXAccelBuffering, "no")
	w.WriteHeader(http.StatusOK)

	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("streaming unsupported: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case ev := <-sub.Events():
			if err := WriteSSEFrame(w, ev); err != nil {
				return err
			}
			if err := rc.Flush(); err != nil {
				return err
			}
		}
	}
}
