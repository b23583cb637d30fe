package business

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

// ResetNotifier delivers a password reset code to its owner. Delivery is
// best effort, a failure is logged and never blocks the reset record from
// being created.
type ResetNotifier interface {
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// NoopResetNotifier drops the code. Useful in tests and local setups where
// the code is read from diagnostics output instead.
type NoopResetNotifier struct{}

func (NoopResetNotifier) SendPasswordResetCode(_ context.Context, _, _ string) error {
	return nil
}

// PasswordResetBusiness implements password reset by one time code.
type PasswordResetBusiness interface {
	// Request issues a fresh code for the email, invalidating any prior
	// pending request. For an unknown email it does nothing and reports
	// no error, so the caller's response shape never reveals whether the
	// account exists.
	Request(ctx context.Context, email string) error
	// Verify peeks at the pending code without consuming it, letting a user
	// confirm the code before choosing a new password.
	Verify(ctx context.Context, email, code string) (bool, error)
	// ConsumeAndReset validates the code, sets the new password, deletes the
	// reset request and revokes every session for the account.
	ConsumeAndReset(ctx context.Context, email, code, newPassword string) (*models.Account, error)
}

func NewPasswordResetBusiness(
	codeLength int,
	codeTTL time.Duration,
	resetRepo repository.PasswordResetRepository,
	accountRepo repository.AccountRepository,
	sessions SessionBusiness,
	hasher *utils.BCrypt,
	notifier ResetNotifier,
	recorder AuditRecorder,
) PasswordResetBusiness {
	return &passwordResetBusiness{
		codeLength:  codeLength,
		codeTTL:     codeTTL,
		resetRepo:   resetRepo,
		accountRepo: accountRepo,
		sessions:    sessions,
		hasher:      hasher,
		notifier:    notifier,
		recorder:    recorder,
		now:         time.Now,
	}
}

type passwordResetBusiness struct {
	codeLength  int
	codeTTL     time.Duration
	resetRepo   repository.PasswordResetRepository
	accountRepo repository.AccountRepository
	sessions    SessionBusiness
	hasher      *utils.BCrypt
	notifier    ResetNotifier
	recorder    AuditRecorder
	now         func() time.Time
}

func (p *passwordResetBusiness) Request(ctx context.Context, email string) error {
	log := util.Log(ctx)

	account, err := p.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		// Report success upstream regardless, only the log knows.
		log.Debug("password reset requested for unknown email")
		return nil
	}

	// A new request supersedes any pending one.
	err = p.resetRepo.DeleteByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := utils.GenerateNumericCode(p.codeLength)
	if err != nil {
		return errors.Wrap(err, "could not generate reset code")
	}

	request := &models.PasswordResetRequest{
		Email:     email,
		Code:      code,
		ExpiresAt: p.now().Add(p.codeTTL),
	}
	err = p.resetRepo.Save(ctx, request)
	if err != nil {
		return err
	}

	err = p.notifier.SendPasswordResetCode(ctx, account.Email, code)
	if err != nil {
		log.WithError(err).WithField("account_id", account.GetID()).
			Warn("could not deliver password reset code")
	}

	return nil
}

func (p *passwordResetBusiness) Verify(ctx context.Context, email, code string) (bool, error) {
	request, err := p.resetRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return p.requestMatches(request, code), nil
}

func (p *passwordResetBusiness) ConsumeAndReset(ctx context.Context, email, code, newPassword string) (*models.Account, error) {
	request, err := p.resetRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !p.requestMatches(request, code) {
		return nil, ErrResetCodeInvalid
	}

	account, err := p.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrResetCodeInvalid
	}

	passwordHash, err := p.hasher.Hash(ctx, []byte(newPassword))
	if err != nil {
		return nil, errors.Wrap(err, "could not hash password")
	}

	account.PasswordHash = passwordHash
	account.MustChangePassword = false
	err = p.accountRepo.Save(ctx, account)
	if err != nil {
		return nil, err
	}

	// The code is single use, consuming it deletes the record.
	err = p.resetRepo.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// Old bearer tokens must stop working the moment the password changes.
	err = p.sessions.RevokeAll(ctx, account.GetID())
	if err != nil {
		return nil, err
	}

	p.recorder.Record(ctx, AuditEntry{
		Action:  AuditActionPasswordReset,
		ActorID: account.GetID(),
	})

	return account, nil
}

func (p *passwordResetBusiness) requestMatches(request *models.PasswordResetRequest, code string) bool {
	if request == nil || code == "" {
		return false
	}
	if p.now().After(request.ExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(request.Code), []byte(code)) == 1
}
