package mcp

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/janhq/jobsuche-mcp/internal/infrastructure/auth"
)

// ToolTrackingContextKey is the context key for tool tracking data
type ToolTrackingContextKey struct{}

// ToolTrackingContext identifies the agent conversation a tool call belongs to.
type ToolTrackingContext struct {
	ConversationID string
	ToolCallID     string
	Subject        string
}

// ExtractToolTracking reads the tracking headers sent by agent gateways and
// injects them into the request context for tool call logs.
// Headers:
//   - X-Conversation-ID: the conversation the call belongs to
//   - X-Tool-Call-ID: the tool call id assigned by the model
func ExtractToolTracking() gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		tracking := ToolTrackingContext{
			ConversationID: reqCtx.GetHeader("X-Conversation-ID"),
			ToolCallID:     reqCtx.GetHeader("X-Tool-Call-ID"),
			Subject:        reqCtx.GetString(auth.SubjectKey),
		}

		if tracking.ToolCallID != "" {
			log.Debug().
				Str("conv_id", tracking.ConversationID).
				Str("call_id", tracking.ToolCallID).
				Msg("tool call tracking headers present")
		}

		ctx := context.WithValue(reqCtx.Request.Context(), ToolTrackingContextKey{}, tracking)
		reqCtx.Request = reqCtx.Request.WithContext(ctx)

		reqCtx.Next()
	}
}

// GetToolTracking retrieves tracking context from the request context.
func GetToolTracking(ctx context.Context) (ToolTrackingContext, bool) {
	tracking, ok := ctx.Value(ToolTrackingContextKey{}).(ToolTrackingContext)
	return tracking, ok
}
