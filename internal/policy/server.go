package policy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cmdwarden/cmdwarden/internal/approval"
	"github.com/cmdwarden/cmdwarden/internal/decisionlog"
	"github.com/cmdwarden/cmdwarden/internal/shellparse"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
	"github.com/cmdwarden/cmdwarden/pkg/clog"
)

// Server exposes command evaluation over HTTP. When the caller opts in
// with resolveAsk, an ask decision blocks until a human answers and the
// response carries the final verdict.
type Server struct {
	evaluator   *Evaluator
	recorder    *decisionlog.Recorder
	coordinator *approval.Coordinator
	defaultMode Mode
}

func NewServer(evaluator *Evaluator, recorder *decisionlog.Recorder, coordinator *approval.Coordinator, defaultMode Mode) *Server {
	return &Server{
		evaluator:   evaluator,
		recorder:    recorder,
		coordinator: coordinator,
		defaultMode: defaultMode,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/evaluate", s.handleEvaluate)
	r.Get("/decisions", s.handleListDecisions)
}

type evaluateRequest struct {
	Command    string `json:"command"`
	Mode       string `json:"mode,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
	ResolveAsk bool   `json:"resolveAsk,omitempty"`
}

type evaluateResponse struct {
	Decision Decision      `json:"decision"`
	Entries  []EntryResult `json:"entries"`
	Approved *bool         `json:"approved,omitempty"`
}

func (s *Server) handleEvaluate(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Command == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "command is required", nil)
		return
	}

	mode := s.defaultMode
	if req.Mode != "" {
		var err error
		if mode, err = ParseMode(req.Mode); err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
			return
		}
	}
	clog.AddAttribute(ctx, "command", req.Command)
	clog.AddAttribute(ctx, "mode", string(mode))

	result, err := s.evaluator.Explain(ctx, req.Command, mode)
	if err != nil {
		var parseErr *shellparse.ParseError
		if errors.As(err, &parseErr) {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "command is not parseable shell", err)
			return
		}
		cerr.SetJSONError(ctx, err)
		return
	}

	resp := &evaluateResponse{
		Decision: result.Decision,
		Entries:  result.Entries,
	}
	if result.Decision == DecisionAsk && req.ResolveAsk {
		approved, err := s.coordinator.Request(ctx, &approval.Request{
			SessionID: req.SessionID,
			Command:   req.Command,
			ToolName:  req.ToolName,
		})
		if err != nil {
			s.record(ctx, req.Command, mode, result)
			cerr.SetJSONError(ctx, approvalError(err))
			return
		}
		resp.Approved = &approved
	}
	s.record(ctx, req.Command, mode, result)
	cerr.SetJSONResponse(ctx, resp)
}

func (s *Server) record(ctx context.Context, command string, mode Mode, result *Result) {
	rec := &decisionlog.Record{
		Command:  command,
		Decision: string(result.Decision),
		Mode:     string(mode),
	}
	for _, entry := range result.Entries {
		if entry.Decision == result.Decision && entry.MatchedRule != "" {
			rec.MatchedRule = entry.MatchedRule
			rec.MatchedList = entry.MatchedList
			break
		}
	}
	s.recorder.Record(ctx, rec)
}

func approvalError(err error) error {
	switch {
	case errors.Is(err, approval.ErrNoWaiter):
		return cerr.NewError(cerr.FailedPrecondition, "no approval responder is available", err)
	case errors.Is(err, approval.ErrAborted):
		return cerr.NewError(cerr.Canceled, "approval request aborted", err)
	default:
		return err
	}
}

func (s *Server) handleListDecisions(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	records, total, err := s.recorder.List(ctx, limit, offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"decisions": records,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}
