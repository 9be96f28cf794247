package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func TestLogUnlockFailed(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auditor.now = func() time.Time { return fixed }

	auditor.LogUnlockFailed("10.0.0.7")

	entries := recorded.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "security_audit", entry.LoggerName)

	fields := entry.ContextMap()
	assert.Equal(t, "unlock_failed", fields["event_type"])
	assert.Equal(t, "warning", fields["severity"])
	assert.Equal(t, "10.0.0.7", fields["client_ip"])
	ts, ok := fields["timestamp"].(time.Time)
	require.True(t, ok)
	assert.True(t, fixed.Equal(ts))
}

func TestLogInjectionAttempt_TruncatesValue(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogInjectionAttempt("10.0.0.8", InjectionDetails{
		Operation: "create_signal",
		Field:     "notes",
		Value:     "<script>" + strings.Repeat("a", 500) + "</script>",
	})

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	details, ok := entries[0].ContextMap()["details"].(InjectionDetails)
	require.True(t, ok, "details should be kept as the typed struct")
	assert.Equal(t, "notes", details.Field)
	assert.Len(t, details.Value, 203)
}

func TestLogRefreshTriggered(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	NewSecurityAuditor(logger).LogRefreshTriggered("127.0.0.1", "mcp")

	entries := recorded.FilterField(zap.String("event_type", "refresh_triggered")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestSecurityAuditor_RespectsLevel(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	auditor := NewSecurityAuditor(zap.New(core))

	auditor.LogUnlockSucceeded("1.2.3.4")
	assert.Equal(t, 0, recorded.Len())
}
