package business

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

// SessionBusiness issues and validates opaque bearer sessions.
type SessionBusiness interface {
	// Issue creates a session for the account and returns its bearer token.
	Issue(ctx context.Context, accountID string) (string, error)
	// Validate resolves a token to its account. It returns nil for a
	// missing, expired or orphaned session without deleting expired rows,
	// the sweep job handles those.
	Validate(ctx context.Context, token string) (*models.Account, error)
	// Revoke deletes one session. Revoking an unknown token is not an error.
	Revoke(ctx context.Context, token string) error
	// RevokeAll deletes every session for the account, making all previously
	// issued tokens unusable immediately.
	RevokeAll(ctx context.Context, accountID string) error
}

func NewSessionBusiness(
	sessionTTL time.Duration,
	sessionRepo repository.SessionRepository,
	accountRepo repository.AccountRepository,
) SessionBusiness {
	return &sessionBusiness{
		sessionTTL:  sessionTTL,
		sessionRepo: sessionRepo,
		accountRepo: accountRepo,
		now:         time.Now,
	}
}

type sessionBusiness struct {
	sessionTTL  time.Duration
	sessionRepo repository.SessionRepository
	accountRepo repository.AccountRepository
	now         func() time.Time
}

func (s *sessionBusiness) Issue(ctx context.Context, accountID string) (string, error) {
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return "", errors.Wrap(err, "could not generate session token")
	}

	now := s.now()
	session := &models.Session{
		Token:     token,
		AccountID: accountID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	err = s.sessionRepo.Save(ctx, session)
	if err != nil {
		return "", errors.Wrap(err, "could not persist session")
	}

	return token, nil
}

func (s *sessionBusiness) Validate(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsExpired(s.now()) {
		return nil, nil
	}

	// Re-read the account so a suspension or deactivation applied after the
	// session was issued takes effect on the next validation.
	account, err := s.accountRepo.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.Active {
		return nil, nil
	}
	if account.IsSuspended(s.now()) {
		util.Log(ctx).WithField("account_id", account.GetID()).Debug("session rejected for suspended account")
		return nil, nil
	}

	return account, nil
}

func (s *sessionBusiness) Revoke(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteByToken(ctx, token)
}

func (s *sessionBusiness) RevokeAll(ctx context.Context, accountID string) error {
	return s.sessionRepo.DeleteByAccountID(ctx, accountID)
}
