package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/wordclaim/internal/config"
	"github.com/phrazzld/wordclaim/internal/mocks"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/platform/metrics"
	"github.com/phrazzld/wordclaim/internal/service/auth"
	"github.com/phrazzld/wordclaim/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	server     *httptest.Server
	assignment *mocks.MockAssignmentService
	uploadDir  string
}

func newRouterFixture(t *testing.T, tokens auth.TokenService, windowOpen bool) *routerFixture {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	start := time.Now()
	if !windowOpen {
		start = start.Add(-2 * time.Hour)
	}

	f := &routerFixture{
		assignment: &mocks.MockAssignmentService{
			CountWordsFn: func(ctx context.Context) (int, error) { return 3, nil },
		},
		uploadDir: t.TempDir(),
	}
	handler := newRouter(routerDeps{
		assignment:     f.assignment,
		verification:   &mocks.MockVerificationService{},
		tokens:         tokens,
		guard:          window.NewGuard(start, time.Hour, nil),
		metrics:        metrics.New(),
		uploadDir:      f.uploadDir,
		maxUploadBytes: 1 << 20,
		logger:         log,
	})
	f.server = httptest.NewServer(handler)
	t.Cleanup(f.server.Close)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path, authHeader string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, nil)
	require.NoError(t, err)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	resp, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestRouter_CountAndLegacyAlias(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	for _, path := range []string{"/count", "/contar-registros"} {
		resp, body := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.JSONEq(t, `{"total_records":3}`, body, path)
	}
}

func TestRouter_ClaimRoutes(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	resp, _ := f.do(t, http.MethodPost, "/claim?participantID=alice", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "empty mock pool is exhausted")
	assert.NotEmpty(t, resp.Header.Get("X-Window-Remaining"))

	resp, _ = f.do(t, http.MethodGet, "/obter-palavra?userID=bob", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, []string{"alice", "bob"}, f.assignment.ClaimedParticipants())
}

func TestRouter_WindowClosedGatesParticipantRoutesOnly(t *testing.T) {
	f := newRouterFixture(t, nil, false)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/claim?participantID=alice"},
		{http.MethodGet, "/obter-palavra?userID=alice"},
		{http.MethodPost, "/verify"},
		{http.MethodPost, "/upload"},
	} {
		resp, body := f.do(t, route.method, route.path, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, route.path)
		assert.Contains(t, body, "registration window has closed", route.path)
	}
	assert.Empty(t, f.assignment.ClaimedParticipants())

	resp, _ := f.do(t, http.MethodGet, "/count", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ResetOpenWithoutAdminSecret(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	resp, _ := f.do(t, http.MethodPost, "/reset", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/resetar-banco", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, f.assignment.ResetCalls())
}

func TestRouter_ResetRequiresAdminToken(t *testing.T) {
	tokens, err := auth.NewTokenService(config.AuthConfig{
		AdminSecret:          "router-test-secret-with-enough-length",
		TokenLifetimeMinutes: 5,
	})
	require.NoError(t, err)
	token, err := tokens.GenerateAdminToken(context.Background(), "ops")
	require.NoError(t, err)

	f := newRouterFixture(t, tokens, true)

	resp, _ := f.do(t, http.MethodPost, "/reset", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.assignment.ResetCalls())

	resp, body := f.do(t, http.MethodPost, "/reset", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"reset":0`)
	assert.Equal(t, 1, f.assignment.ResetCalls())
}

func TestRouter_ServesUploads(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	require.NoError(t, os.WriteFile(filepath.Join(f.uploadDir, "kept.png"), []byte("png"), 0o600))

	resp, body := f.do(t, http.MethodGet, "/uploads/kept.png", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png", body)

	resp, _ = f.do(t, http.MethodGet, "/uploads/missing.png", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.do(t, http.MethodGet, "/count", "")

	resp, body := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, "wordclaim_http_requests_total"), "request counter exported")
	assert.Contains(t, body, `route="/count"`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	resp, _ := f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
