package pushnotification

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/cmdwarden/cmdwarden/internal/config"
	"github.com/cmdwarden/cmdwarden/internal/pushsubscription"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/push/vapid-public-key", s.handleVapidPublicKey)
	r.Post("/push/subscriptions", s.handleRegister)
	r.Delete("/push/subscriptions", s.handleUnregister)
	r.Post("/push/test", s.handleTest)
}

type subscriptionRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
}

func (s *Server) handleVapidPublicKey(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"publicKey": s.vapidEnv.VAPIDPublicKey})
}

func (s *Server) handleRegister(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if req.P256dhKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "p256dhKey is required", nil)
		return
	}
	if req.AuthKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "authKey is required", nil)
		return
	}

	// Idempotent: re-registering an endpoint replaces its keys.
	if existing, err := s.repo.FindByEndpoint(ctx, req.Endpoint); err == nil && existing != nil {
		existing.P256dhKey = req.P256dhKey
		existing.AuthKey = req.AuthKey
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		if err := s.repo.Create(ctx, existing); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, map[string]string{"id": existing.ID})
		return
	}

	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"id": sub.ID})
}

func (s *Server) handleUnregister(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if err := s.repo.DeleteByEndpoint(ctx, endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"endpoint": endpoint})
}

func (s *Server) handleTest(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.sender.SendToAll(ctx, &NotificationPayload{
		Title: "cmdwarden Test",
		Body:  "Push notifications are working!",
	})
	cerr.SetJSONResponse(ctx, map[string]string{"status": "sent"})
}
