package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/auth"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/config"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/jobsuche"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/pacer"
	"github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver/routes/mcp"
	"github.com/janhq/jobsuche-mcp/pkg/observability"
	"github.com/janhq/jobsuche-mcp/pkg/telemetry"
	"github.com/janhq/jobsuche-mcp/pkg/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const toolsListBody = `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`

func newTestServer(t *testing.T, validator *auth.Validator, obs *observability.Provider) *HTTPServer {
	t.Helper()
	fake := testhelpers.NewFakeJobsuche(t)
	cfg := config.Default()
	cfg.APIURL = fake.URL()

	client := jobsuche.NewClient(jobsuche.ClientConfig{BaseURL: fake.URL(), APIKey: fake.APIKey})
	info := jobsearch.ServiceInfo{Name: "jobsuche-mcp", Version: "test", APIURL: fake.URL()}
	sanitizer := telemetry.NewSanitizer(telemetry.PIILevelNone, "test")
	service := jobsearch.NewService(client, pacer.New(nil), jobsearch.DefaultLimits(), info, sanitizer)
	route := mcp.NewMCPRoute(mcp.NewJobsearchMCP(service, sanitizer), info)

	return NewHTTPServer(cfg, route, validator, obs)
}

func postMCP(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(toolsListBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	validator, err := auth.NewValidator(context.Background(), config.Default())
	require.NoError(t, err)
	h := newTestServer(t, validator, nil).Handler()

	for _, path := range []string{"/healthz", "/readyz", "/health/auth"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	require.Equal(t, http.StatusOK, postMCP(h, "").Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jobsuche_mcp_requests_total")
}

func TestRequestIDEchoed(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middlewares.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middlewares.RequestIDHeader))
}

func TestMCPRequiresTokenWhenAuthEnabled(t *testing.T) {
	jwks := testhelpers.NewJWKSServer(t)
	cfg := config.Default()
	cfg.AuthEnabled = true
	cfg.AuthIssuer = jwks.Issuer
	cfg.AuthJWKSURL = jwks.URL()
	cfg.Account = "jobsuche-mcp"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	validator, err := auth.NewValidator(ctx, cfg)
	require.NoError(t, err)
	defer validator.Close()

	h := newTestServer(t, validator, nil).Handler()

	assert.Equal(t, http.StatusUnauthorized, postMCP(h, "").Code)
	assert.Equal(t, http.StatusOK, postMCP(h, jwks.Sign(t, "user-7", nil)).Code)

	// Health stays public.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	obs := &observability.Provider{Tracer: tp.Tracer("test"), TracerProvider: tp}

	h := newTestServer(t, nil, obs).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "jobsuche-mcp.http", spans[0].Name())
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.config.HTTPPort = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
