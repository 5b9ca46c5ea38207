package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/ratelimit"
	"github.com/baleriaa/493/internal/server/services"
)

const maxBodyBytes = 1 << 20

func (s *HTTPServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Register(r.Context(), in)
	if err != nil {
		s.metrics.Registration(false)
		if errors.Is(err, common.ErrForbidden) {
			s.metrics.AuthFailure(common.FailureKind(err))
		}
		s.logger.Info(r.Context(), "registration rejected",
			"request_id", requestIDFrom(r.Context()),
			"name", in.Name,
			"error", err,
		)
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.Registration(true)
	s.logger.Info(r.Context(), "Registered", "request_id", requestIDFrom(r.Context()), "user_id", user.ID, "admin", user.Admin)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (l loginRequest) identifier() string {
	switch {
	case l.Identifier != "":
		return l.Identifier
	case l.Name != "":
		return l.Name
	default:
		return l.Email
	}
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	if !s.allowLogin(w, r) {
		return
	}

	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		s.metrics.Login(false)
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.AuthFailure(common.FailureKind(err))
			s.logger.Info(r.Context(), "login failed", "request_id", requestIDFrom(r.Context()))
		}
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.Login(true)
	s.resetLogin(r)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type retryAfterer interface {
	RetryAfter(ctx context.Context, key string) time.Duration
}

// allowLogin applies the login limiter keyed by client address. Limiter
// errors let the request through.
func (s *HTTPServer) allowLogin(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil {
		return true
	}

	key := clientIP(r)
	allowed, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		s.metrics.RateLimitError()
		s.logger.Warn(r.Context(), "login limiter unavailable", "error", err)
		return true
	}
	if allowed {
		return true
	}

	if ra, ok := s.limiter.(retryAfterer); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(ra.RetryAfter(r.Context(), key).Seconds())))
	}
	s.logger.Info(r.Context(), "login throttled", "request_id", requestIDFrom(r.Context()), "client", key)
	s.writeServiceError(w, r, common.ErrRateLimited)
	return false
}

// resetLogin clears the client's failed-attempt budget after a good login.
func (s *HTTPServer) resetLogin(r *http.Request) {
	rs, ok := s.limiter.(ratelimit.Resetter)
	if !ok {
		return
	}
	if err := rs.Reset(r.Context(), clientIP(r)); err != nil {
		s.metrics.RateLimitError()
		s.logger.Warn(r.Context(), "login limiter reset failed", "error", err)
	}
}

func clientIP(r *http.Request) string {
	return ratelimit.ClientKey(r.RemoteAddr)
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUser(r.Context(), ownerIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) listBusinesses(w http.ResponseWriter, r *http.Request) {
	list, err := s.resources.ListBusinesses(r.Context(), ownerIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"businesses": list})
}

func (s *HTTPServer) listReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.resources.ListReviews(r.Context(), ownerIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": list})
}

func (s *HTTPServer) listPhotos(w http.ResponseWriter, r *http.Request) {
	list, err := s.resources.ListPhotos(r.Context(), ownerIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": list})
}
