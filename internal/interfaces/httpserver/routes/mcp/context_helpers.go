package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func extractArguments(req *mcp.CallToolRequest) map[string]any {
	if req == nil || req.Params == nil {
		return nil
	}

	raw := req.Params.Arguments
	if len(raw) == 0 {
		return nil
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	return args
}

func extractContextString(args map[string]any, key string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return ""
}

// extractAllContext merges passthrough arguments with the tracking headers;
// headers win when both are present.
func extractAllContext(ctx context.Context, req *mcp.CallToolRequest) map[string]string {
	args := extractArguments(req)
	callCtx := map[string]string{
		"tool_call_id":    extractContextString(args, "tool_call_id"),
		"request_id":      extractContextString(args, "request_id"),
		"conversation_id": extractContextString(args, "conversation_id"),
		"user_id":         extractContextString(args, "user_id"),
	}
	if tracking, ok := GetToolTracking(ctx); ok {
		if tracking.ToolCallID != "" {
			callCtx["tool_call_id"] = tracking.ToolCallID
		}
		if tracking.ConversationID != "" {
			callCtx["conversation_id"] = tracking.ConversationID
		}
		if tracking.Subject != "" {
			callCtx["user_id"] = tracking.Subject
		}
	}
	return callCtx
}
