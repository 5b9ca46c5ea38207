// Package http is the REST front door of the API: routing, the bearer token
// middleware, the ownership guard and JSON encoding of service results.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/baleriaa/493/internal/logging"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/metrics"
	"github.com/baleriaa/493/internal/server/ratelimit"
	"github.com/baleriaa/493/internal/server/services"
	"github.com/gorilla/mux"
)

// TokenValidator turns a bearer token into the principal it was issued for.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// Deps are the collaborators of the HTTP server. Limiter and Metrics may be
// nil.
type Deps struct {
	Users     *services.UserService
	Resources *services.ResourceService
	Tokens    TokenValidator
	Limiter   ratelimit.Limiter
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

type HTTPServer struct {
	address   string
	users     *services.UserService
	resources *services.ResourceService
	tokens    TokenValidator
	limiter   ratelimit.Limiter
	metrics   *metrics.Metrics
	logger    logging.Logger
}

func NewHTTPServer(address string, d Deps) *HTTPServer {
	return &HTTPServer{
		address:   address,
		users:     d.Users,
		resources: d.Resources,
		tokens:    d.Tokens,
		limiter:   d.Limiter,
		metrics:   d.Metrics,
		logger:    d.Logger.With("module", "http_server"),
	}
}

// Handler builds the router. Owner routes only admit digits in {userId}.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(s.requestID, s.recoverer, s.instrument)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.Handle("/users", s.optionalAuthenticate(http.HandlerFunc(s.register))).Methods(http.MethodPost)
	r.HandleFunc("/users/login", s.login).Methods(http.MethodPost)

	owned := r.PathPrefix("/users/{userId:[0-9]+}").Subrouter()
	owned.Use(s.authenticate, s.requireOwner)
	owned.HandleFunc("", s.getUser).Methods(http.MethodGet)
	owned.HandleFunc("/businesses", s.listBusinesses).Methods(http.MethodGet)
	owned.HandleFunc("/reviews", s.listReviews).Methods(http.MethodGet)
	owned.HandleFunc("/photos", s.listPhotos).Methods(http.MethodGet)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
