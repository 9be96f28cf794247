// Package audit logs security-relevant events (PIN unlock attempts, rejected
// markup) as structured entries under a dedicated logger name so they can be
// filtered and alerted on.
package audit

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventUnlockFailed is logged when a wrong PIN is submitted.
	EventUnlockFailed SecurityEventType = "unlock_failed"
	// EventUnlockSucceeded is logged when a session is unlocked.
	EventUnlockSucceeded SecurityEventType = "unlock_succeeded"
	// EventInjectionAttempt is logged when free text is rejected as a script payload.
	EventInjectionAttempt SecurityEventType = "injection_attempt"
	// EventRefreshTriggered is logged for every refresh run started over HTTP or MCP.
	EventRefreshTriggered SecurityEventType = "refresh_triggered"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details,omitempty"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails describes rejected free text.
type InjectionDetails struct {
	Operation string `json:"operation"`
	Field     string `json:"field"`
	Value     string `json:"value"`
}

// SecurityAuditor writes SecurityEvents to a "security_audit" logger.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates a new security auditor.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit"), now: time.Now}
}

// LogUnlockFailed records a wrong PIN at WARN level.
func (a *SecurityAuditor) LogUnlockFailed(clientIP string) {
	a.log(zap.WarnLevel, SecurityEvent{EventType: EventUnlockFailed, ClientIP: clientIP, Severity: "warning"})
}

// LogUnlockSucceeded records a successful unlock at INFO level.
func (a *SecurityAuditor) LogUnlockSucceeded(clientIP string) {
	a.log(zap.InfoLevel, SecurityEvent{EventType: EventUnlockSucceeded, ClientIP: clientIP, Severity: "info"})
}

// LogInjectionAttempt records rejected markup at ERROR level. The value is truncated.
func (a *SecurityAuditor) LogInjectionAttempt(clientIP string, details InjectionDetails) {
	if len(details.Value) > 200 {
		details.Value = details.Value[:200] + "..."
	}
	a.log(zap.ErrorLevel, SecurityEvent{
		EventType: EventInjectionAttempt,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "critical",
	})
}

// LogRefreshTriggered records who started a refresh run.
func (a *SecurityAuditor) LogRefreshTriggered(clientIP, via string) {
	a.log(zap.InfoLevel, SecurityEvent{
		EventType: EventRefreshTriggered,
		ClientIP:  clientIP,
		Details:   map[string]string{"via": via},
		Severity:  "info",
	})
}

func (a *SecurityAuditor) log(level zapcore.Level, event SecurityEvent) {
	event.Timestamp = a.now().UTC()
	if ce := a.logger.Check(level, "security_event"); ce != nil {
		ce.Write(
			zap.String("event_type", string(event.EventType)),
			zap.String("severity", event.Severity),
			zap.String("client_ip", event.ClientIP),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("details", event.Details),
		)
	}
}
