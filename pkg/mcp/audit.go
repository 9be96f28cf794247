package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/logging"
	"github.com/ekaya-inc/ekaya-tracker/pkg/metrics"
)

// Tool call outcomes recorded in metrics.
const (
	OutcomeOK        = "ok"
	OutcomeToolError = "tool_error"
	OutcomeError     = "error"
)

// ToolAuditor logs every MCP tool call with its duration and outcome and
// records it in the MCP metrics.
type ToolAuditor struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewToolAuditor creates a ToolAuditor.
func NewToolAuditor(logger *zap.Logger) *ToolAuditor {
	return &ToolAuditor{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *ToolAuditor) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *ToolAuditor) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *ToolAuditor) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	outcome := OutcomeOK
	if result != nil && result.IsError {
		outcome = OutcomeToolError
	}
	a.record(ctx, id, req.Params.Name, outcome, zap.String("preview", previewResult(result)))
}

func (a *ToolAuditor) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	a.record(ctx, id, req.Params.Name, OutcomeError, zap.String("error", logging.SanitizeError(err)))
}

func (a *ToolAuditor) record(ctx context.Context, id any, tool, outcome string, detail zap.Field) {
	started := time.Now()
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		started = v.(time.Time)
	}
	elapsed := time.Since(started)

	metrics.MCPToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	metrics.MCPToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())

	_, unlocked := auth.GetClaims(ctx)
	level := zap.InfoLevel
	if outcome == OutcomeError {
		level = zap.WarnLevel
	}
	if ce := a.logger.Check(level, "MCP tool call"); ce != nil {
		ce.Write(
			zap.String("tool", tool),
			zap.String("outcome", outcome),
			zap.Bool("unlocked", unlocked),
			zap.Duration("duration", elapsed),
			detail,
		)
	}
}

// previewResult returns a truncated preview of the first text content.
func previewResult(result *mcplib.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return logging.TruncateString(tc.Text, 200)
		}
	}
	return ""
}
