package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	ownerIDKey
)

const requestIDHeader = "X-Request-ID"

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ownerIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ownerIDKey).(int64)
	return id
}

// requestID reuses a well-formed incoming X-Request-ID or assigns a new UUID.
func (s *HTTPServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error(r.Context(), "panic in handler", "panic", p, "request_id", requestIDFrom(r.Context()))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument logs every request and records it in the request metrics under
// its route template.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest("http", route, rec.status, elapsed)
		s.logger.Info(r.Context(), "request",
			"request_id", requestIDFrom(r.Context()),
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get(common.AuthorizationHeaderName))
	if header == "" {
		return "", common.ErrMissingCredential
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", common.ErrMissingCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.ErrMissingCredential
	}
	return token, nil
}

func (s *HTTPServer) principal(r *http.Request) (auth.Principal, error) {
	token, err := bearerToken(r)
	if err != nil {
		return auth.Principal{}, err
	}
	if err := r.Context().Err(); err != nil {
		return auth.Principal{}, err
	}
	return s.tokens.Validate(token)
}

// authenticate requires a valid bearer token. Every failure gets the same
// 401 body; the kind is only logged and counted.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.principal(r)
		if err != nil {
			s.rejectUnauthenticated(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// optionalAuthenticate binds a principal when a credential is presented and
// passes anonymous requests through. A presented but invalid credential is
// still rejected.
func (s *HTTPServer) optionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(common.AuthorizationHeaderName) == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := s.principal(r)
		if err != nil {
			s.rejectUnauthenticated(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func (s *HTTPServer) rejectUnauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.FailureKind(err)
	s.metrics.AuthFailure(kind)
	s.logger.Info(r.Context(), "authentication failed",
		"request_id", requestIDFrom(r.Context()),
		"kind", kind,
	)
	s.logger.Debug(r.Context(), "token rejected",
		"request_id", requestIDFrom(r.Context()),
		"error", err,
	)
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

// requireOwner lets the request through when the principal owns {userId} or
// is an admin.
func (s *HTTPServer) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := common.ParseUserID(mux.Vars(r)["userId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		if err := auth.AuthorizeContext(r.Context(), ownerID); err != nil {
			kind := common.FailureKind(err)
			s.metrics.AuthFailure(kind)
			s.logger.Info(r.Context(), "authorization failed",
				"request_id", requestIDFrom(r.Context()),
				"kind", kind,
			)
			s.logger.Debug(r.Context(), "access denied",
				"request_id", requestIDFrom(r.Context()),
				"error", err,
			)
			s.writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerIDKey, ownerID)))
	})
}
