package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jobsuche-mcp/internal/infrastructure/auth"
	"github.com/janhq/jobsuche-mcp/pkg/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guardedRouter() *gin.Engine {
	router := gin.New()
	router.POST("/mcp", MCPMethodGuard(allowedMCPMethods), func(c *gin.Context) {
		c.String(http.StatusOK, "passed")
	})
	return router
}

func TestMCPMethodGuard(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "tools list", body: `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, wantStatus: http.StatusOK},
		{name: "tools call", body: `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"search_jobs"}}`, wantStatus: http.StatusOK},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantError: "empty MCP request body"},
		{name: "not json", body: "hello", wantStatus: http.StatusBadRequest, wantError: "invalid MCP request payload"},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":1}`, wantStatus: http.StatusBadRequest, wantError: "missing method field in MCP request"},
		{name: "resources not served", body: `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, wantStatus: http.StatusBadRequest, wantError: "unsupported MCP method: resources/list"},
	}

	router := guardedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(tt.body))
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError == "" {
				assert.Equal(t, "passed", w.Body.String())
				return
			}
			var resp struct {
				Code  string `json:"code"`
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotEmpty(t, resp.Code)
		})
	}
}

func TestMCPMethodGuard_BodyTooLarge(t *testing.T) {
	body := `{"method":"tools/call","params":{"pad":"` + strings.Repeat("x", maxMCPBodyBytes) + `"}}`

	w := httptest.NewRecorder()
	guardedRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestExtractToolTracking(t *testing.T) {
	var got ToolTrackingContext
	var found bool

	router := gin.New()
	router.POST("/mcp", func(c *gin.Context) {
		c.Set(auth.SubjectKey, "user-42")
		c.Next()
	}, ExtractToolTracking(), func(c *gin.Context) {
		got, found = GetToolTracking(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("X-Conversation-ID", "conv-1")
	req.Header.Set("X-Tool-Call-ID", "call-9")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	assert.Equal(t, ToolTrackingContext{ConversationID: "conv-1", ToolCallID: "call-9", Subject: "user-42"}, got)
}

func TestExtractAllContext_HeadersOverrideArguments(t *testing.T) {
	ctx := context.WithValue(context.Background(), ToolTrackingContextKey{}, ToolTrackingContext{
		ToolCallID: "from-header",
		Subject:    "subject-1",
	})
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: json.RawMessage(`{"tool_call_id":"from-args","conversation_id":"conv-args","request_id":"req-1"}`),
	}}

	callCtx := extractAllContext(ctx, req)
	assert.Equal(t, "from-header", callCtx["tool_call_id"])
	assert.Equal(t, "conv-args", callCtx["conversation_id"])
	assert.Equal(t, "req-1", callCtx["request_id"])
	assert.Equal(t, "subject-1", callCtx["user_id"])
}

func TestExtractAllContext_NilRequest(t *testing.T) {
	callCtx := extractAllContext(context.Background(), nil)
	assert.Equal(t, "", callCtx["tool_call_id"])
	assert.Len(t, callCtx, 4)
}

func TestMCPRoute_ServesToolsListOverHTTP(t *testing.T) {
	fake := testhelpers.NewFakeJobsuche(t)
	handler, info := newTestJobsearchMCP(t, fake)
	route := NewMCPRoute(handler, info)

	router := gin.New()
	route.RegisterRouter(router.Group("/v1"))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	for _, name := range ToolKeys {
		assert.Contains(t, w.Body.String(), `"`+name+`"`)
	}
}
