package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gatherly/eventhub/internal/http/response"
	"github.com/gatherly/eventhub/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const heartbeatInterval = 25 * time.Second

// LiveEvents streams room notifications for one event over Server-Sent
// Events. Opening the stream joins the room; closing the connection leaves
// it. No session is required to listen.
func (h *Handlers) LiveEvents(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	if _, err := strconv.ParseInt(room, 10, 64); err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe()
	defer sub.Close()
	h.hub.Join(sub, room)

	fmt.Fprintf(w, ": joined room %s\n\n", room)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(msg.Payload)
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to marshal realtime payload",
					"error", err, "room", msg.Room)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			flusher.Flush()
		}
	}
}
