// filepath: internal/audit/logger_auditor.go
package audit

import (
	"context"
	"os/user"

	"courrierkit/internal/logging"

	"github.com/sirupsen/logrus"
)

// Auditor records mutations applied to the courrier database.
type Auditor interface {
	Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{})
}

// Ensure LoggerAuditor implements Auditor
var _ Auditor = (*LoggerAuditor)(nil)

// LoggerAuditor writes audit events to the application log.
type LoggerAuditor struct {
	enabled bool
	logger  *logrus.Logger
}

// NewLoggerAuditor creates a new instance of LoggerAuditor writing to logging.Log.
func NewLoggerAuditor(enabled bool) *LoggerAuditor {
	return &LoggerAuditor{enabled: enabled}
}

// WithLogger returns a copy of the auditor writing to l.
func (a *LoggerAuditor) WithLogger(l *logrus.Logger) *LoggerAuditor {
	return &LoggerAuditor{enabled: a.enabled, logger: l}
}

// Log records an event if auditing is enabled.
func (a *LoggerAuditor) Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{}) {
	if !a.enabled {
		return
	}

	fields := logrus.Fields{
		"audit_action":   action,
		"audit_actor":    actor,
		"audit_resource": resource,
	}
	for k, v := range details {
		fields["detail."+k] = v
	}

	l := a.logger
	if l == nil {
		l = logging.Log
	}
	l.WithContext(ctx).WithFields(fields).Info("AUDIT EVENT")
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(context.Context, string, string, string, map[string]interface{}) {}

// CurrentActor names the OS user running the command, "unknown" when it cannot be resolved.
func CurrentActor() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}
