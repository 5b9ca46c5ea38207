package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFailureCounter(t *testing.T) {
	m := New()

	m.AuthFailure("expired")
	m.AuthFailure("expired")
	m.AuthFailure("forbidden")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("forbidden")))
}

func TestLoginAndRegistrationCounters(t *testing.T) {
	m := New()

	m.Login(true)
	m.Login(false)
	m.Login(false)
	m.Registration(true)
	m.RateLimitError()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitErrorsTotal))
}

func TestNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AuthFailure("x")
		m.Login(true)
		m.Registration(false)
		m.RateLimitError()
		m.ObserveRequest("http", "/", 200, time.Millisecond)
	})
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.AuthFailure("missing_credential")
	m.ObserveRequest("http", "/users/{userId}", 401, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `auth_failures_total{kind="missing_credential"} 1`), body)
	assert.Contains(t, body, `api_requests_total{route="/users/{userId}",status="401",transport="http"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
