package models

import (
	"strings"
	"time"

	"github.com/pitabwire/frame"
	"gorm.io/datatypes"
)

// Account is the authentication identity for a person on the platform.
// PasswordHash is nil for invite-only accounts that have never set a
// password. Accounts are never hard deleted, they are anonymised instead.
type Account struct {
	frame.BaseModel
	Email              string `gorm:"type:varchar(255);uniqueIndex"`
	Name               string `gorm:"type:varchar(255)"`
	PasswordHash       []byte
	Role               string `gorm:"type:varchar(50)"`
	Active             bool
	SuspendedUntil     *time.Time
	MustChangePassword bool
}

// NormaliseEmail lowercases an email so lookups stay case insensitive.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSuspended reports whether the account is under an active suspension.
func (a *Account) IsSuspended(now time.Time) bool {
	return a.SuspendedUntil != nil && now.Before(*a.SuspendedUntil)
}

type Session struct {
	frame.BaseModel
	Token     string `gorm:"type:varchar(255);uniqueIndex"`
	AccountID string `gorm:"type:varchar(50);index"`
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session should be treated as inert even if
// the sweep job has not removed it yet.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PasswordResetRequest holds a single use numeric code sent to an email.
// At most one unconsumed request exists per email.
type PasswordResetRequest struct {
	frame.BaseModel
	Email     string `gorm:"type:varchar(255);index"`
	Code      string `gorm:"type:varchar(20)"`
	ExpiresAt time.Time
}

// MfaSecret is the shared TOTP secret for an account. It is stored disabled
// at setup time and only enabled after the owner proves possession.
type MfaSecret struct {
	frame.BaseModel
	AccountID string `gorm:"type:varchar(50);uniqueIndex"`
	Secret    string `gorm:"type:varchar(255)"`
	Enabled   bool
}

// MfaChallenge is the short lived token bridging a successful password check
// and the second factor. It is bound to the source IP of the login attempt
// and consumed exactly once.
type MfaChallenge struct {
	frame.BaseModel
	Token     string `gorm:"type:varchar(255);uniqueIndex"`
	AccountID string `gorm:"type:varchar(50);index"`
	SourceIP  string `gorm:"type:varchar(64)"`
	ExpiresAt time.Time
}

func (c *MfaChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Impersonation links an operator to the identity they assumed. Rows are an
// append only audit trail and are never mutated.
type Impersonation struct {
	frame.BaseModel
	OperatorID string `gorm:"type:varchar(50);index"`
	TargetID   string `gorm:"type:varchar(50);index"`
	StartedAt  time.Time
}

// AuditRecord is a persisted security event, written best effort from the
// audit event handler.
type AuditRecord struct {
	frame.BaseModel
	Action   string `gorm:"type:varchar(100);index"`
	ActorID  string `gorm:"type:varchar(50);index"`
	TargetID string `gorm:"type:varchar(50)"`
	SourceIP string `gorm:"type:varchar(64)"`
	Details  datatypes.JSONMap
}
