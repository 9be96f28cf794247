package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-tracker/pkg/logging"
)

func serveMCP(t *testing.T, body, response string) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)

	var seenBody string
	handler := MCPRequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, err := io.Copy(buf, r.Body)
		require.NoError(t, err)
		seenBody = buf.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, body, seenBody, "body must be restored for the next handler")
	assert.Equal(t, response, rec.Body.String())
	return logs
}

func TestMCPRequestLogger_LogsToolCallAndSuccess(t *testing.T) {
	logs := serveMCP(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"log_signal","arguments":{"observation":"Partner asked about agents","confidence":60}}}`,
		`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`,
	)

	require.Equal(t, 2, logs.Len())
	req := logs.All()[0]
	assert.Equal(t, "MCP request", req.Message)
	assert.Equal(t, "tools/call", req.ContextMap()["method"])
	assert.Equal(t, "log_signal", req.ContextMap()["tool"])

	args, ok := req.ContextMap()["arguments"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Partner asked about agents", args["observation"])

	assert.Equal(t, "MCP response success", logs.All()[1].Message)
}

func TestMCPRequestLogger_ToolError(t *testing.T) {
	logs := serveMCP(t,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"refresh_vendors"}}`,
		`{"jsonrpc":"2.0","id":2,"result":{"isError":true,"content":[{"type":"text","text":"locked"}]}}`,
	)
	assert.Equal(t, 1, logs.FilterMessage("MCP tool error").Len())
}

func TestMCPRequestLogger_RPCError(t *testing.T) {
	logs := serveMCP(t,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":3,"error":{"code":-32602,"message":"tool not found"}}`,
	)

	entries := logs.FilterMessage("MCP response error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-32602), entries[0].ContextMap()["error_code"])
	assert.Equal(t, "tool not found", entries[0].ContextMap()["error_message"])
}

func TestMCPRequestLogger_NilLoggerPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	MCPRequestLogger(nil)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.True(t, called)
}

func TestSanitizeArguments(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := sanitizeArguments(map[string]any{
		"pin":         "1234",
		"api_key":     "sk-abc",
		"observation": long,
		"confidence":  80,
	})

	assert.Equal(t, logging.RedactedText, got["pin"])
	assert.Equal(t, logging.RedactedText, got["api_key"])
	assert.Equal(t, 80, got["confidence"])
	assert.Len(t, got["observation"], maxLoggedArgument+len("..."))

	assert.Nil(t, sanitizeArguments(nil))
}
