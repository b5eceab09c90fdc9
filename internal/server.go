package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/cmdwarden/cmdwarden/internal/approval"
	"github.com/cmdwarden/cmdwarden/internal/config"
	"github.com/cmdwarden/cmdwarden/internal/event"
	"github.com/cmdwarden/cmdwarden/internal/policy"
	"github.com/cmdwarden/cmdwarden/internal/pushnotification"
	"github.com/cmdwarden/cmdwarden/internal/rules"
	"github.com/cmdwarden/cmdwarden/pkg/cerr"
	"github.com/cmdwarden/cmdwarden/pkg/clog"
)

type Server struct {
	server                 *http.Server
	env                    *config.Env
	policyServer           *policy.Server
	ruleServer             *rules.Server
	approvalServer         *approval.Server
	eventServer            *event.Server
	pushNotificationServer *pushnotification.Server
}

func NewServer(
	env *config.Env,
	policyServer *policy.Server,
	ruleServer *rules.Server,
	approvalServer *approval.Server,
	eventServer *event.Server,
	pushNotificationServer *pushnotification.Server,
) *Server {
	return &Server{
		env:                    env,
		policyServer:           policyServer,
		ruleServer:             ruleServer,
		approvalServer:         approvalServer,
		eventServer:            eventServer,
		pushNotificationServer: pushNotificationServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is used as
// the base context for all incoming requests via http.Server.BaseContext,
// so canceling it on shutdown also cancels any in-flight approval waits
// and SSE streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(clog.SlogChiMiddleware())

		// The event stream writes directly; everything else goes through
		// the JSON response middleware.
		s.eventServer.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(cerr.NewJSONResponseChiMiddleware())
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
			})
			s.policyServer.RegisterRoutes(r)
			s.ruleServer.RegisterRoutes(r)
			s.approvalServer.RegisterRoutes(r)
			s.pushNotificationServer.RegisterRoutes(r)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip API key check for the health endpoint.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
