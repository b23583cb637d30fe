package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/IamDejman/demirti-web-sub003/config"
	"github.com/IamDejman/demirti-web-sub003/service/business"
	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/gorilla/securecookie"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
)

const (
	SessionCookieName = "session_storage"
	SessionCookieKey  = "sess_token"
)

type AuthServer struct {
	sessionCookieCodec []securecookie.Codec
	service            *frame.Service
	config             *config.AuthConfig

	// Repository dependencies
	accountRepo   repository.AccountRepository
	sessionRepo   repository.SessionRepository
	resetRepo     repository.PasswordResetRepository
	secretRepo    repository.MfaSecretRepository
	challengeRepo repository.MfaChallengeRepository

	// Business dependencies
	accountBiz       business.AccountBusiness
	loginBiz         business.LoginBusiness
	sessionBiz       business.SessionBusiness
	resetBiz         business.PasswordResetBusiness
	mfaBiz           business.MfaBusiness
	impersonationBiz business.ImpersonationBusiness

	limiter *business.RateLimiter
	backoff *business.BackoffCounter
}

type Dependencies struct {
	AccountRepo   repository.AccountRepository
	SessionRepo   repository.SessionRepository
	ResetRepo     repository.PasswordResetRepository
	SecretRepo    repository.MfaSecretRepository
	ChallengeRepo repository.MfaChallengeRepository

	Account       business.AccountBusiness
	Login         business.LoginBusiness
	Session       business.SessionBusiness
	Reset         business.PasswordResetBusiness
	Mfa           business.MfaBusiness
	Impersonation business.ImpersonationBusiness

	Limiter *business.RateLimiter
	Backoff *business.BackoffCounter
}

func NewAuthServer(ctx context.Context, service *frame.Service, authConfig *config.AuthConfig, deps Dependencies) *AuthServer {
	log := util.Log(ctx)

	h := &AuthServer{
		service: service,
		config:  authConfig,

		accountRepo:   deps.AccountRepo,
		sessionRepo:   deps.SessionRepo,
		resetRepo:     deps.ResetRepo,
		secretRepo:    deps.SecretRepo,
		challengeRepo: deps.ChallengeRepo,

		accountBiz:       deps.Account,
		loginBiz:         deps.Login,
		sessionBiz:       deps.Session,
		resetBiz:         deps.Reset,
		mfaBiz:           deps.Mfa,
		impersonationBiz: deps.Impersonation,

		limiter: deps.Limiter,
		backoff: deps.Backoff,
	}

	err := h.setupCookieCodec(authConfig)
	if err != nil {
		log.WithError(err).Fatal("failed to setup session cookie codec")
	}

	return h
}

func (h *AuthServer) Service() *frame.Service {
	return h.service
}

func (h *AuthServer) Config() *config.AuthConfig {
	return h.config
}

func (h *AuthServer) setupCookieCodec(authConfig *config.AuthConfig) error {
	hashKey := []byte(authConfig.SecureCookieHashKey)
	blockKey := []byte(authConfig.SecureCookieBlockKey)
	if len(hashKey) == 0 {
		return errors.New("secure cookie hash key is not configured")
	}

	h.sessionCookieCodec = securecookie.CodecsFromPairs(hashKey, blockKey)
	return nil
}

type ErrorResponse struct {
	Code          int    `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int    `json:"retry_after_seconds,omitempty"`
}

// statusForError maps business error kinds onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, business.ErrInvalidCredentials),
		errors.Is(err, business.ErrInvalidMfaCode),
		errors.Is(err, business.ErrChallengeExpired),
		errors.Is(err, business.ErrResetCodeInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, business.ErrRateLimited),
		errors.Is(err, business.ErrBackoffBlocked):
		return http.StatusTooManyRequests
	case errors.Is(err, business.ErrAccountDisabled),
		errors.Is(err, business.ErrAccountSuspended),
		errors.Is(err, business.ErrNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, business.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, business.ErrAccountExists),
		errors.Is(err, business.ErrMfaAlreadyEnabled),
		errors.Is(err, business.ErrMfaNotConfigured):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps err onto the JSON error envelope. Internal failures are
// logged in full and redacted for the caller unless ExposeErrors is set.
func (h *AuthServer) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	log := h.service.Log(ctx).WithError(err)

	code := statusForError(err)
	resp := &ErrorResponse{
		Code:    code,
		Message: err.Error(),
	}

	if code == http.StatusInternalServerError {
		log.Error("internal service error")
		if !h.config.ExposeErrors {
			resp.Message = "internal processing error"
		}
	} else {
		log.Debug("request rejected")
	}

	if retryAfter, ok := business.RetryAfterFromError(err); ok {
		resp.RetryAfterSec = int(retryAfter.Seconds())
		resp.Message = resp.Message + ", retry later"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	encodeErr := json.NewEncoder(w).Encode(resp)
	if encodeErr != nil {
		log.WithError(encodeErr).Error("could not write error to response")
	}
}

func (h *AuthServer) writeJSON(ctx context.Context, w http.ResponseWriter, code int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		util.Log(ctx).WithError(err).Error("could not write response")
	}
	return nil
}

type accountSummary struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

func summariseAccount(account *models.Account) accountSummary {
	return accountSummary{
		ID:                 account.GetID(),
		Email:              account.Email,
		Name:               account.Name,
		Role:               account.Role,
		MustChangePassword: account.MustChangePassword,
	}
}
