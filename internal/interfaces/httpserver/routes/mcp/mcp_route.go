package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver/responses"
	"github.com/janhq/jobsuche-mcp/utils/platformerrors"
)

// maxMCPBodyBytes bounds a single JSON-RPC request.
const maxMCPBodyBytes = 1 << 20

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,
}

type MCPRoute struct {
	jobsearchMCP *JobsearchMCP
	mcpServer    *mcp.Server
	httpHandler  http.Handler
}

func NewMCPRoute(jobsearchMCP *JobsearchMCP, info jobsearch.ServiceInfo) *MCPRoute {
	impl := &mcp.Implementation{
		Name:    info.Name,
		Version: info.Version,
	}
	server := mcp.NewServer(impl, nil)
	jobsearchMCP.RegisterTools(server)

	return &MCPRoute{
		jobsearchMCP: jobsearchMCP,
		mcpServer:    server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

// Server returns the MCP server, used directly by the stdio transport.
func (route *MCPRoute) Server() *mcp.Server {
	return route.mcpServer
}

func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		ExtractToolTracking(),
		route.serveMCP,
	)
}

// serveMCP streams Model Context Protocol responses using the underlying MCP server.
// Tools: search_jobs, get_job_details, search_jobs_with_details,
// batch_search_jobs and get_server_status. Stateless, no sessions.
func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// Force acceptable content types for go-sdk streamable handler even if client omits Accept.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(io.LimitReader(reqCtx.Request.Body, maxMCPBodyBytes+1))
		if err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "failed to read MCP request body", "3f0c51e2-8d7a-4b6e-a1c9-52e4d0b7f913")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "empty MCP request body", "c7a2e4f8-19b3-4d5c-8e6f-0a1b2c3d4e5f")
			return
		}
		if len(bodyBytes) > maxMCPBodyBytes {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "MCP request body too large", "5b8d9e0f-2a3c-4e7d-9f1b-6c4a8e2d0f37")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}

		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid MCP request payload", "9e1f3a5c-7b2d-4c8e-a6f0-d3b5e7c9a1f2")
			return
		}

		if payload.Method == "" {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "missing method field in MCP request", "2d4f6a8c-0e1b-4a3d-b5c7-e9f1a3c5e7b9")
			return
		}

		if !allowedMethods[payload.Method] {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unsupported MCP method: "+payload.Method, "8a0c2e4f-6b1d-4f3a-9c5e-7b9d1f3a5c7e")
			return
		}

		reqCtx.Next()
	}
}
