// Package tools provides the MCP tools of the tracker: vendor and signal
// reads, signal logging and the vendor refresh trigger.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/audit"
	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

// Deps contains the dependencies shared by the tracker tools.
type Deps struct {
	// DB provides a pooled connection per call. Nil when the context already
	// carries a database scope.
	DB             *database.DB
	Vendors        services.VendorService
	Signals        services.SignalService
	Refresh        services.RefreshService
	RefreshEnabled bool
	// Auth gates the mutating tools. Nil or without a PIN leaves them open.
	Auth    auth.AuthService
	Auditor *audit.SecurityAuditor
	Version string
	Logger  *zap.Logger
}

// Register adds every tracker tool to s.
func Register(s *server.MCPServer, deps *Deps) {
	RegisterHealthTool(s, deps)
	RegisterVendorTools(s, deps)
	RegisterSignalTools(s, deps)
	RegisterRefreshTool(s, deps)
}

// acquire returns a context with a database scope for the call.
func (d *Deps) acquire(ctx context.Context) (context.Context, func(), error) {
	if d.DB == nil {
		return ctx, func() {}, nil
	}
	scoped, release, err := d.DB.WithScope(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return scoped, release, nil
}

// locked returns an error result when a PIN is configured and the call
// carries no unlock token.
func (d *Deps) locked(ctx context.Context) *mcp.CallToolResult {
	if d.Auth == nil || !d.Auth.GatingEnabled() {
		return nil
	}
	if _, ok := auth.GetClaims(ctx); ok {
		return nil
	}
	return NewErrorResult("locked", apperrors.ErrLocked.Error()+"; call with a Bearer unlock token from POST /api/unlock")
}

// readOnly annotates a tool that only reads tracker data.
func readOnly() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}
}
