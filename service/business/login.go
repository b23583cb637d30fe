package business

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/pitabwire/util"
)

// LoginStatus distinguishes a completed login from one awaiting the second factor.
type LoginStatus string

const (
	LoginStatusSession     LoginStatus = "SESSION"
	LoginStatusMfaRequired LoginStatus = "MFA_REQUIRED"
)

// LoginResult is the outcome of a successful credential check. Token is a
// bearer session token when Status is SESSION and a challenge token when
// Status is MFA_REQUIRED.
type LoginResult struct {
	Status             LoginStatus
	Token              string
	AccountID          string
	MustChangePassword bool
}

// backoffKey scopes the consecutive failure counter to one identity.
func backoffKey(email string) string {
	return "login_backoff:" + models.NormaliseEmail(email)
}

// LoginBusiness sequences rate limiting, backoff, credential verification
// and session or challenge issuance.
type LoginBusiness interface {
	// Login runs the primary credential check for an email and password
	// originating from sourceIP.
	Login(ctx context.Context, email, password, sourceIP string) (*LoginResult, error)
	// VerifyMfa finishes a login whose primary check returned MFA_REQUIRED.
	VerifyMfa(ctx context.Context, challengeToken, code, sourceIP string) (*LoginResult, error)
	// Logout revokes the session held by token.
	Logout(ctx context.Context, token string) error
}

func NewLoginBusiness(
	limiter *RateLimiter,
	backoff *BackoffCounter,
	accountRepo repository.AccountRepository,
	hasher *utils.BCrypt,
	sessions SessionBusiness,
	mfa MfaBusiness,
	recorder AuditRecorder,
) LoginBusiness {
	return &loginBusiness{
		limiter:     limiter,
		backoff:     backoff,
		accountRepo: accountRepo,
		hasher:      hasher,
		sessions:    sessions,
		mfa:         mfa,
		recorder:    recorder,
		now:         time.Now,
	}
}

type loginBusiness struct {
	limiter     *RateLimiter
	backoff     *BackoffCounter
	accountRepo repository.AccountRepository
	hasher      *utils.BCrypt
	sessions    SessionBusiness
	mfa         MfaBusiness
	recorder    AuditRecorder
	now         func() time.Time
}

func (l *loginBusiness) Login(ctx context.Context, email, password, sourceIP string) (*LoginResult, error) {
	log := util.Log(ctx)
	email = models.NormaliseEmail(email)

	// Window limits bound the request rate per IP and per identity.
	limitResult := checkLoginRateLimit(ctx, l.limiter, sourceIP, email)
	if !limitResult.Allowed {
		return nil, &RetryError{Kind: ErrRateLimited, RetryAfter: limitResult.RetryAfter}
	}

	// The backoff counter bounds consecutive failures regardless of rate.
	// When it blocks, the credential store is not touched at all.
	backoffResult := l.backoff.Check(ctx, backoffKey(email))
	if !backoffResult.Allowed {
		return nil, &RetryError{Kind: ErrBackoffBlocked, RetryAfter: backoffResult.RetryAfter}
	}

	account, err := l.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// Unknown email and wrong password take the identical failure path so
	// the response shape cannot be used to probe for accounts.
	if account == nil || len(account.PasswordHash) == 0 ||
		!l.hasher.Verify(ctx, account.PasswordHash, []byte(password)) {
		l.backoff.RecordFailure(ctx, backoffKey(email))
		l.recorder.Record(ctx, AuditEntry{
			Action:   AuditActionLoginFailed,
			SourceIP: sourceIP,
			Details:  map[string]any{"email": email},
		})
		return nil, ErrInvalidCredentials
	}

	// Account state is checked only after the password verified, a prober
	// without the password learns nothing about suspensions.
	if !account.Active {
		return nil, ErrAccountDisabled
	}
	if account.IsSuspended(l.now()) {
		return nil, ErrAccountSuspended
	}

	mfaEnabled, err := l.mfa.Enabled(ctx, account.GetID())
	if err != nil {
		return nil, err
	}

	if mfaEnabled {
		// No session yet. Backoff clears only once the second factor
		// verifies, a stolen password alone must not reset the brake.
		challengeToken, challengeErr := l.mfa.CreateChallenge(ctx, account.GetID(), sourceIP)
		if challengeErr != nil {
			return nil, challengeErr
		}

		l.recorder.Record(ctx, AuditEntry{
			Action:   AuditActionLoginMfaRequired,
			ActorID:  account.GetID(),
			SourceIP: sourceIP,
		})

		return &LoginResult{
			Status:    LoginStatusMfaRequired,
			Token:     challengeToken,
			AccountID: account.GetID(),
		}, nil
	}

	l.backoff.Clear(ctx, backoffKey(email))
	resetLoginRateLimit(ctx, l.limiter, sourceIP, email)

	token, err := l.sessions.Issue(ctx, account.GetID())
	if err != nil {
		return nil, err
	}

	l.recorder.Record(ctx, AuditEntry{
		Action:   AuditActionLoginSucceeded,
		ActorID:  account.GetID(),
		SourceIP: sourceIP,
	})
	log.WithField("account_id", account.GetID()).Debug("login completed")

	return &LoginResult{
		Status:             LoginStatusSession,
		Token:              token,
		AccountID:          account.GetID(),
		MustChangePassword: account.MustChangePassword,
	}, nil
}

func (l *loginBusiness) VerifyMfa(ctx context.Context, challengeToken, code, sourceIP string) (*LoginResult, error) {
	account, err := l.mfa.VerifyChallenge(ctx, challengeToken, code, sourceIP)
	if err != nil {
		return nil, err
	}

	l.backoff.Clear(ctx, backoffKey(account.Email))
	resetLoginRateLimit(ctx, l.limiter, sourceIP, account.Email)

	token, err := l.sessions.Issue(ctx, account.GetID())
	if err != nil {
		return nil, err
	}

	l.recorder.Record(ctx, AuditEntry{
		Action:   AuditActionMfaVerified,
		ActorID:  account.GetID(),
		SourceIP: sourceIP,
	})

	return &LoginResult{
		Status:             LoginStatusSession,
		Token:              token,
		AccountID:          account.GetID(),
		MustChangePassword: account.MustChangePassword,
	}, nil
}

func (l *loginBusiness) Logout(ctx context.Context, token string) error {
	account, err := l.sessions.Validate(ctx, token)
	if err != nil {
		return err
	}

	err = l.sessions.Revoke(ctx, token)
	if err != nil {
		return err
	}

	if account != nil {
		l.recorder.Record(ctx, AuditEntry{
			Action:  AuditActionLogout,
			ActorID: account.GetID(),
		})
	}

	return nil
}
