package rules

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
)

// Server exposes the rule lists over HTTP. Responses carry the whole
// document so clients always see all three lists after an edit.
type Server struct {
	store *Store
	bus   *eventbus.Bus
}

func NewServer(store *Store, bus *eventbus.Bus) *Server {
	return &Server{store: store, bus: bus}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/rules", s.handleGet)
	r.Post("/rules/{list}", s.handleAdd)
	r.Delete("/rules/{list}", s.handleDelete)
}

type ruleRequest struct {
	Pattern string `json:"pattern"`
}

func (s *Server) handleGet(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := s.store.Document(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, doc)
}

func (s *Server) handleAdd(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := ParseListName(chi.URLParam(r, "list"))
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	doc, err := s.store.AddRule(ctx, list, req.Pattern)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.bus.PublishNew(eventbus.EventTypeRulesUpdated, string(list), req.Pattern, map[string]string{"action": "add"})
	cerr.SetJSONResponse(ctx, doc)
}

func (s *Server) handleDelete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := ParseListName(chi.URLParam(r, "list"))
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		var req ruleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			pattern = req.Pattern
		}
	}
	doc, err := s.store.DeleteRule(ctx, list, pattern)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.bus.PublishNew(eventbus.EventTypeRulesUpdated, string(list), pattern, map[string]string{"action": "delete"})
	cerr.SetJSONResponse(ctx, doc)
}
