package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	AIUpdateEnabled  bool   `json:"ai_update_enabled"`
	PINGatingEnabled bool   `json:"pin_gating_enabled"`
}

// RegisterHealthTool adds the health tool. Besides liveness it tells the
// caller whether refresh_vendors is available and whether writes need unlocking.
func RegisterHealthTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"health",
		append([]mcp.ToolOption{
			mcp.WithDescription("Returns server status, version, and which tracker features are enabled"),
		}, readOnly()...)...,
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{
			Status:           "ok",
			Version:          deps.Version,
			AIUpdateEnabled:  deps.RefreshEnabled,
			PINGatingEnabled: deps.Auth != nil && deps.Auth.GatingEnabled(),
		})
	})
}
