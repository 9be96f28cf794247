package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

type mockVendorService struct {
	services.VendorService
	vendors []*models.Vendor
	err     error
	gotID   uuid.UUID
}

func (m *mockVendorService) List(ctx context.Context) ([]*models.Vendor, error) {
	return m.vendors, m.err
}

func (m *mockVendorService) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	m.gotID = id
	if m.err != nil {
		return nil, m.err
	}
	for _, v := range m.vendors {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type mockSignalService struct {
	services.SignalService
	signals    []*models.WeakSignal
	err        error
	gotFilter  models.SignalFilter
	gotCreated *models.WeakSignal
	gotID      uuid.UUID
	gotPatch   *models.SignalPatch
}

func (m *mockSignalService) List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error) {
	m.gotFilter = filter
	return m.signals, m.err
}

func (m *mockSignalService) Create(ctx context.Context, signal *models.WeakSignal) error {
	if m.err != nil {
		return m.err
	}
	signal.ApplyDefaults()
	signal.ID = uuid.New()
	m.gotCreated = signal
	return nil
}

func (m *mockSignalService) Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error) {
	m.gotID, m.gotPatch = id, patch
	if m.err != nil {
		return nil, m.err
	}
	return &models.WeakSignal{ID: id, Status: *patch.Status}, nil
}

type mockRefreshService struct {
	result *models.RefreshResult
	err    error
	calls  int
}

func (m *mockRefreshService) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	m.calls++
	return m.result, m.err
}

type mockAuthService struct {
	auth.AuthService
	gating bool
}

func (m *mockAuthService) GatingEnabled() bool { return m.gating }

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	return nil, "", auth.ErrMissingAuthorization
}

// newTestServer registers every tool with deps filled in from the given mocks.
func newTestServer(deps *Deps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Vendors == nil {
		deps.Vendors = &mockVendorService{}
	}
	if deps.Signals == nil {
		deps.Signals = &mockSignalService{}
	}
	if deps.Refresh == nil {
		deps.Refresh = &mockRefreshService{}
	}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	Register(s, deps)
	return s
}

// callTool executes an MCP tool via the server's HandleMessage method.
func callTool(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	reqBytes, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	resultBytes, err := json.Marshal(s.HandleMessage(ctx, reqBytes))
	require.NoError(t, err)

	var response struct {
		Result *mcp.CallToolResult `json:"result,omitempty"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	require.Nil(t, response.Error, "unexpected JSON-RPC error")
	require.NotNil(t, response.Result)
	return response.Result
}

// callToolRPCError expects a JSON-RPC error and returns its message.
func callToolRPCError(t *testing.T, s *server.MCPServer, name string, args map[string]any) string {
	t.Helper()

	reqBytes, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	resultBytes, err := json.Marshal(s.HandleMessage(context.Background(), reqBytes))
	require.NoError(t, err)

	var response struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	require.NotNil(t, response.Error)
	return response.Error.Message
}

// resultText returns the first text content of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), dst))
}

func errorCode(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, result.IsError)
	var resp ErrorResponse
	decodeResult(t, result, &resp)
	return resp.Code
}
