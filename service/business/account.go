package business

import (
	"context"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/pkg/errors"
)

// AccountBusiness covers account creation and password maintenance for an
// authenticated account.
type AccountBusiness interface {
	// Register creates an active student account with a password.
	Register(ctx context.Context, email, name, password string) (*models.Account, error)
	// Enroll creates an invite style account with no password yet. The
	// owner sets one through the password reset flow and is forced to
	// change it on first login if an interim one was communicated.
	Enroll(ctx context.Context, email, name string, role models.Role) (*models.Account, error)
	// ChangePassword replaces the password after re-verifying the old one,
	// clears the must change flag and revokes every session. Callers log in
	// again with the new password.
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

func NewAccountBusiness(
	accountRepo repository.AccountRepository,
	sessions SessionBusiness,
	hasher *utils.BCrypt,
	recorder AuditRecorder,
) AccountBusiness {
	return &accountBusiness{
		accountRepo: accountRepo,
		sessions:    sessions,
		hasher:      hasher,
		recorder:    recorder,
	}
}

type accountBusiness struct {
	accountRepo repository.AccountRepository
	sessions    SessionBusiness
	hasher      *utils.BCrypt
	recorder    AuditRecorder
}

func (a *accountBusiness) Register(ctx context.Context, email, name, password string) (*models.Account, error) {
	existing, err := a.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	passwordHash, err := a.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return nil, errors.Wrap(err, "could not hash password")
	}

	account := &models.Account{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         models.RoleStudent.String(),
		Active:       true,
	}

	err = a.accountRepo.Save(ctx, account)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (a *accountBusiness) Enroll(ctx context.Context, email, name string, role models.Role) (*models.Account, error) {
	if !role.Valid() {
		return nil, errors.Errorf("unknown role %q", role)
	}

	existing, err := a.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	account := &models.Account{
		Email:              email,
		Name:               name,
		Role:               role.String(),
		Active:             true,
		MustChangePassword: true,
	}

	err = a.accountRepo.Save(ctx, account)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (a *accountBusiness) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := a.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrNotFound
	}

	if len(account.PasswordHash) == 0 ||
		!a.hasher.Verify(ctx, account.PasswordHash, []byte(oldPassword)) {
		return ErrInvalidCredentials
	}

	passwordHash, err := a.hasher.Hash(ctx, []byte(newPassword))
	if err != nil {
		return errors.Wrap(err, "could not hash password")
	}

	account.PasswordHash = passwordHash
	account.MustChangePassword = false
	err = a.accountRepo.Save(ctx, account)
	if err != nil {
		return err
	}

	// Every bearer token dies with the old password.
	err = a.sessions.RevokeAll(ctx, accountID)
	if err != nil {
		return err
	}

	a.recorder.Record(ctx, AuditEntry{
		Action:  AuditActionPasswordChanged,
		ActorID: accountID,
	})

	return nil
}
