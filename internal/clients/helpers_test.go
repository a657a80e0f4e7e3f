package clients

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pribylovaa/campus-portal/internal/config"
	"github.com/pribylovaa/campus-portal/internal/session"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("backend-secret")

func testPaths() config.PathsConfig {
	return config.PathsConfig{
		Token:         "/auth/token",
		Refresh:       "/auth/token/refresh",
		Register:      "/auth/register",
		Profile:       "/student/profile",
		Subjects:      "/subjects",
		Students:      "/students",
		Student:       "/students/{id}",
		AssignStudent: "/faculty/students/{id}/assign",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mintToken выпускает access-токен так, как это делает бэкенд.
func mintToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
		"jti":  strconv.FormatInt(time.Now().UnixNano(), 10),
	}).SignedString(signingKey)
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func bearerOf(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

type hookCounter struct{ n atomic.Int32 }

func (h *hookCounter) fire(context.Context) { h.n.Add(1) }

type clientOpt func(*Options)

func withTransport(rt http.RoundTripper) clientOpt { return func(o *Options) { o.Transport = rt } }
func withTimeout(d time.Duration) clientOpt       { return func(o *Options) { o.Timeout = d } }
func perRequest() clientOpt                       { return func(o *Options) { o.PerRequestRefresh = true } }

func newTestClient(t *testing.T, baseURL string, store session.Store, hook *hookCounter, opts ...clientOpt) *Client {
	t.Helper()

	o := Options{
		BaseURL:   baseURL,
		Paths:     testPaths(),
		Timeout:   2 * time.Second,
		UserAgent: "campus-portal-test",
		Logger:    discardLogger(),
	}
	if hook != nil {
		o.OnSessionEnded = hook.fire
	}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := NewClient(store, o)
	require.NoError(t, err)
	return c
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
