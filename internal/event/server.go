// Package event streams bus events to clients over Server-Sent Events
// so the web UI sees approval prompts and rule changes as they happen.
package event

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
)

const heartbeatInterval = 30 * time.Second

type Server struct {
	bus *eventbus.Bus
}

func NewServer(bus *eventbus.Bus) *Server {
	return &Server{bus: bus}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/events", s.handleStream)
}

func (s *Server) handleStream(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := rw.(http.Flusher)
	if !ok {
		http.Error(rw, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	subID, ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(subID)

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(rw, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.WarnContext(ctx, "failed to marshal event", slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(rw, "event: %s\nid: %s\ndata: %s\n\n", event.Type, event.ID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
