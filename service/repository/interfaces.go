package repository

import (
	"context"

	"github.com/IamDejman/demirti-web-sub003/service/models"
)

// AccountRepository handles database operations for Account entities
type AccountRepository interface {
	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// GetByEmail retrieves an account by its normalised email
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// Save creates or updates an account record
	Save(ctx context.Context, account *models.Account) error
}

// SessionRepository handles database operations for Session entities
type SessionRepository interface {
	// GetByToken retrieves a session by its bearer token
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// Save creates or updates a session record
	Save(ctx context.Context, session *models.Session) error
	// DeleteByToken removes one session row; deleting a missing row is not an error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByAccountID removes every session owned by an account
	DeleteByAccountID(ctx context.Context, accountID string) error
	// DeleteExpired removes expired sessions
	DeleteExpired(ctx context.Context) error
}

// PasswordResetRepository handles database operations for PasswordResetRequest entities
type PasswordResetRepository interface {
	// GetByEmail retrieves the pending reset request for an email
	GetByEmail(ctx context.Context, email string) (*models.PasswordResetRequest, error)
	// Save creates or updates a reset request record
	Save(ctx context.Context, request *models.PasswordResetRequest) error
	// DeleteByEmail removes any pending reset request for an email
	DeleteByEmail(ctx context.Context, email string) error
	// DeleteExpired removes expired reset requests
	DeleteExpired(ctx context.Context) error
}

// MfaSecretRepository handles database operations for MfaSecret entities
type MfaSecretRepository interface {
	// GetByAccountID retrieves the secret for an account
	GetByAccountID(ctx context.Context, accountID string) (*models.MfaSecret, error)
	// Save creates or updates a secret record
	Save(ctx context.Context, secret *models.MfaSecret) error
	// DeleteByAccountID removes the secret for an account
	DeleteByAccountID(ctx context.Context, accountID string) error
}

// MfaChallengeRepository handles database operations for MfaChallenge entities.
// The consume step is split into Peek and ConsumeIfPresent so the caller can
// verify a code without burning the challenge, then claim it atomically.
type MfaChallengeRepository interface {
	// Save creates a challenge record
	Save(ctx context.Context, challenge *models.MfaChallenge) error
	// Peek reads a challenge by token without deleting it
	Peek(ctx context.Context, token string) (*models.MfaChallenge, error)
	// ConsumeIfPresent deletes the challenge and reports whether this call
	// removed the row. It is a single conditional delete at the storage
	// layer so two racing callers cannot both observe true.
	ConsumeIfPresent(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes expired challenges
	DeleteExpired(ctx context.Context) error
}

// ImpersonationRepository handles database operations for Impersonation entities
type ImpersonationRepository interface {
	// Save creates an impersonation record
	Save(ctx context.Context, record *models.Impersonation) error
	// GetByOperatorID lists impersonations performed by an operator
	GetByOperatorID(ctx context.Context, operatorID string) ([]*models.Impersonation, error)
}

// AuditRepository handles database operations for AuditRecord entities
type AuditRepository interface {
	// Save creates an audit record
	Save(ctx context.Context, record *models.AuditRecord) error
	// GetByActorID lists audit records for an actor
	GetByActorID(ctx context.Context, actorID string) ([]*models.AuditRecord, error)
}
