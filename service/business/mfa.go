package business

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpPeriod = 30

// MfaSetup is returned from Setup for enrolment into an authenticator app.
type MfaSetup struct {
	Secret          string
	ProvisioningURI string
}

// MfaBusiness manages the TOTP second factor and its login challenge
// handshake. The per account state machine is
// NO_MFA -> SETUP_PENDING -> ENABLED -> (disable) -> NO_MFA.
type MfaBusiness interface {
	// Setup generates a fresh shared secret stored disabled. Re-running
	// setup replaces a pending secret but fails once MFA is enabled,
	// disabling first is required.
	Setup(ctx context.Context, accountID string) (*MfaSetup, error)
	// ConfirmEnable flips the pending secret to enabled once the caller
	// proves possession with a current code. A wrong code leaves the
	// pending secret intact.
	ConfirmEnable(ctx context.Context, accountID, code string) error
	// Disable removes the secret. A currently valid code is required, so a
	// stolen session alone cannot strip the second factor.
	Disable(ctx context.Context, accountID, code string) error
	// Enabled reports whether the account has an enabled secret.
	Enabled(ctx context.Context, accountID string) (bool, error)
	// CreateChallenge mints the short lived token bridging a successful
	// password check and the second factor, bound to the source IP.
	CreateChallenge(ctx context.Context, accountID, sourceIP string) (string, error)
	// VerifyChallenge checks the code against the challenge owner's enabled
	// secret, then consumes the challenge atomically. Exactly one of any
	// set of racing callers can succeed.
	VerifyChallenge(ctx context.Context, challengeToken, code, sourceIP string) (*models.Account, error)
}

func NewMfaBusiness(
	issuer string,
	codeSkew uint,
	challengeTTL time.Duration,
	secretRepo repository.MfaSecretRepository,
	challengeRepo repository.MfaChallengeRepository,
	accountRepo repository.AccountRepository,
	recorder AuditRecorder,
) MfaBusiness {
	return &mfaBusiness{
		issuer:        issuer,
		codeSkew:      codeSkew,
		challengeTTL:  challengeTTL,
		secretRepo:    secretRepo,
		challengeRepo: challengeRepo,
		accountRepo:   accountRepo,
		recorder:      recorder,
		now:           time.Now,
	}
}

type mfaBusiness struct {
	issuer        string
	codeSkew      uint
	challengeTTL  time.Duration
	secretRepo    repository.MfaSecretRepository
	challengeRepo repository.MfaChallengeRepository
	accountRepo   repository.AccountRepository
	recorder      AuditRecorder
	now           func() time.Time
}

func (m *mfaBusiness) Setup(ctx context.Context, accountID string) (*MfaSetup, error) {
	account, err := m.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}

	existing, err := m.secretRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Enabled {
		return nil, ErrMfaAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: account.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not generate totp secret")
	}

	secret := existing
	if secret == nil {
		secret = &models.MfaSecret{AccountID: accountID}
	}
	secret.Secret = key.Secret()
	secret.Enabled = false

	err = m.secretRepo.Save(ctx, secret)
	if err != nil {
		return nil, err
	}

	return &MfaSetup{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

func (m *mfaBusiness) ConfirmEnable(ctx context.Context, accountID, code string) error {
	secret, err := m.secretRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if secret == nil {
		return ErrMfaNotConfigured
	}
	if secret.Enabled {
		return ErrMfaAlreadyEnabled
	}

	if !m.codeValid(code, secret.Secret) {
		return ErrInvalidMfaCode
	}

	// The enabled flag only ever flips on a verified code in this request.
	secret.Enabled = true
	err = m.secretRepo.Save(ctx, secret)
	if err != nil {
		return err
	}

	m.recorder.Record(ctx, AuditEntry{
		Action:  AuditActionMfaEnabled,
		ActorID: accountID,
	})

	return nil
}

func (m *mfaBusiness) Disable(ctx context.Context, accountID, code string) error {
	secret, err := m.secretRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if secret == nil || !secret.Enabled {
		return ErrMfaNotConfigured
	}

	if !m.codeValid(code, secret.Secret) {
		return ErrInvalidMfaCode
	}

	err = m.secretRepo.DeleteByAccountID(ctx, accountID)
	if err != nil {
		return err
	}

	m.recorder.Record(ctx, AuditEntry{
		Action:  AuditActionMfaDisabled,
		ActorID: accountID,
	})

	return nil
}

func (m *mfaBusiness) Enabled(ctx context.Context, accountID string) (bool, error) {
	secret, err := m.secretRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return secret != nil && secret.Enabled, nil
}

func (m *mfaBusiness) CreateChallenge(ctx context.Context, accountID, sourceIP string) (string, error) {
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return "", errors.Wrap(err, "could not generate challenge token")
	}

	challenge := &models.MfaChallenge{
		Token:     token,
		AccountID: accountID,
		SourceIP:  sourceIP,
		ExpiresAt: m.now().Add(m.challengeTTL),
	}

	err = m.challengeRepo.Save(ctx, challenge)
	if err != nil {
		return "", err
	}

	return token, nil
}

// VerifyChallenge verifies first and consumes after. Consuming first would
// let anyone holding a stolen challenge token burn the owner's only valid
// attempt with a garbage code, verifying first means a wrong code fails
// without invalidating the challenge. The race between two correct
// submissions is settled by the conditional delete: the loser sees the
// challenge already gone and is told it expired.
func (m *mfaBusiness) VerifyChallenge(ctx context.Context, challengeToken, code, sourceIP string) (*models.Account, error) {
	log := util.Log(ctx)

	challenge, err := m.challengeRepo.Peek(ctx, challengeToken)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.IsExpired(m.now()) {
		return nil, ErrChallengeExpired
	}
	if challenge.SourceIP != sourceIP {
		// Reported as expiry on purpose, an IP mismatch reveals nothing.
		log.WithField("account_id", challenge.AccountID).Warn("mfa challenge presented from a different IP")
		return nil, ErrChallengeExpired
	}

	secret, err := m.secretRepo.GetByAccountID(ctx, challenge.AccountID)
	if err != nil {
		return nil, err
	}
	if secret == nil || !secret.Enabled {
		return nil, ErrMfaNotConfigured
	}

	if !m.codeValid(code, secret.Secret) {
		m.recorder.Record(ctx, AuditEntry{
			Action:   AuditActionMfaRejected,
			ActorID:  challenge.AccountID,
			SourceIP: sourceIP,
		})
		return nil, ErrInvalidMfaCode
	}

	consumed, err := m.challengeRepo.ConsumeIfPresent(ctx, challengeToken)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent request won the consume, only it may proceed.
		return nil, ErrChallengeExpired
	}

	account, err := m.accountRepo.GetByID(ctx, challenge.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrChallengeExpired
	}

	// The account is re-read after the consume, so a deactivation or
	// suspension applied mid-handshake stops the session from ever being
	// minted. The password already verified, state errors reveal nothing.
	if !account.Active {
		return nil, ErrAccountDisabled
	}
	if account.IsSuspended(m.now()) {
		return nil, ErrAccountSuspended
	}

	return account, nil
}

func (m *mfaBusiness) codeValid(code, secret string) bool {
	valid, err := totp.ValidateCustom(code, secret, m.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      m.codeSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}
