package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/logging"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

// RegisterRefreshTool registers refresh_vendors.
func RegisterRefreshTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"refresh_vendors",
		mcp.WithDescription(
			"Search the web for recent AI news on every tracked vendor and update maturity, claims, "+
				"notes, capabilities and sources. Replaces each returned vendor's capability and source lists. "+
				"Takes up to a few minutes.",
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !deps.RefreshEnabled {
			return NewErrorResult("feature_disabled", "AI update is not enabled"), nil
		}
		if result := deps.locked(ctx); result != nil {
			return result, nil
		}
		if deps.Auditor != nil {
			deps.Auditor.LogRefreshTriggered("", "mcp")
		}

		result, err := deps.Refresh.Refresh(ctx)
		if err != nil {
			var oracleErr *services.OracleError
			var shapeErr *services.ResponseShapeError
			switch {
			case errors.As(err, &oracleErr):
				return NewErrorResult("oracle_error", oracleErr.Message), nil
			case errors.As(err, &shapeErr):
				deps.Logger.Debug("Refresh response could not be parsed",
					zap.String("raw_preview", logging.PreviewRaw(shapeErr.Raw)))
				return NewErrorResultWithDetails("response_error", shapeErr.Reason,
					map[string]string{"raw": shapeErr.Raw}), nil
			}
			return nil, fmt.Errorf("refresh failed: %w", err)
		}
		return jsonResult(result)
	})
}
