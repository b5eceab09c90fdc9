package approval

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
)

// Server exposes the pending approvals and the respond endpoint used by
// the web UI.
type Server struct {
	coordinator *Coordinator
	responder   *Responder
	bus         *eventbus.Bus
}

func NewServer(coordinator *Coordinator, responder *Responder, bus *eventbus.Bus) *Server {
	return &Server{coordinator: coordinator, responder: responder, bus: bus}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/approvals", s.handleList)
	r.Post("/approvals/{id}/respond", s.handleRespond)
}

type respondRequest struct {
	Decision string `json:"decision"`
}

func (s *Server) handleList(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cerr.SetJSONResponse(ctx, map[string]any{
		"approvals": s.coordinator.Pending(),
	})
}

func (s *Server) handleRespond(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if id == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "approval id is required", nil)
		return
	}
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Decision == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "decision is required", nil)
		return
	}

	s.responder.Deliver(&FeedbackPayload{MessageID: id, Decision: req.Decision})
	s.bus.PublishNew(eventbus.EventTypeApprovalResolved, id, req.Decision, nil)
	cerr.SetJSONResponse(ctx, map[string]string{
		"messageId": id,
		"decision":  req.Decision,
	})
}
