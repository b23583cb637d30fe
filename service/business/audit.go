package business

import (
	"context"

	"github.com/pitabwire/util"
)

// Audit actions recorded by this package.
const (
	AuditActionLoginSucceeded   = "login.succeeded"
	AuditActionLoginFailed      = "login.failed"
	AuditActionLoginMfaRequired = "login.mfa_required"
	AuditActionLogout           = "logout"
	AuditActionMfaVerified      = "mfa.verified"
	AuditActionMfaRejected      = "mfa.rejected"
	AuditActionMfaEnabled       = "mfa.enabled"
	AuditActionMfaDisabled      = "mfa.disabled"
	AuditActionPasswordReset    = "password.reset"
	AuditActionPasswordChanged  = "password.changed"
	AuditActionImpersonation    = "impersonation.started"
)

// AuditEntry is one security relevant action.
type AuditEntry struct {
	Action   string
	ActorID  string
	TargetID string
	SourceIP string
	Details  map[string]any
}

// AuditRecorder is the fire and forget sink for security events.
// Implementations must never block the caller and must swallow their own
// failures, a broken audit pipe cannot fail a login.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// LogAuditRecorder writes audit entries to the structured log only. Used as
// a fallback when no event pipeline is configured, and in tests.
type LogAuditRecorder struct{}

func (LogAuditRecorder) Record(ctx context.Context, entry AuditEntry) {
	util.Log(ctx).
		WithField("action", entry.Action).
		WithField("actor_id", entry.ActorID).
		WithField("target_id", entry.TargetID).
		WithField("ip", entry.SourceIP).
		WithField("details", entry.Details).
		Info("audit event")
}
