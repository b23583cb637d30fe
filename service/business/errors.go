package business

import (
	"errors"
	"fmt"
	"time"
)

// Stable error kinds returned to callers. Handlers map these onto HTTP
// statuses, the wording is safe to show to end users.
var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike, so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrRateLimited signals the fixed window limit was exceeded.
	ErrRateLimited = errors.New("too many attempts, try again later")

	// ErrBackoffBlocked signals the consecutive failure cooldown is active.
	ErrBackoffBlocked = errors.New("too many failed attempts, try again later")

	// ErrChallengeExpired covers a missing, expired, IP mismatched or already
	// consumed MFA challenge. One kind on purpose, the caller learns nothing
	// about which condition tripped.
	ErrChallengeExpired = errors.New("challenge is invalid or expired")

	ErrInvalidMfaCode = errors.New("verification code is incorrect")

	// ErrResetCodeInvalid covers a wrong, expired or consumed reset code.
	ErrResetCodeInvalid = errors.New("reset code is invalid or expired")

	ErrAccountDisabled  = errors.New("account is disabled")
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountExists    = errors.New("account already exists")

	ErrMfaAlreadyEnabled = errors.New("multi factor authentication is already enabled")
	ErrMfaNotConfigured  = errors.New("multi factor authentication is not configured")

	ErrNotFound     = errors.New("record not found")
	ErrNotPermitted = errors.New("operation not permitted")
)

// RetryError wraps ErrRateLimited or ErrBackoffBlocked with a retry hint.
// errors.Is still matches the wrapped kind.
type RetryError struct {
	Kind       error
	RetryAfter time.Duration
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", e.Kind.Error(), e.RetryAfter)
}

func (e *RetryError) Unwrap() error {
	return e.Kind
}

// RetryAfterFromError extracts the retry hint if err carries one.
func RetryAfterFromError(err error) (time.Duration, bool) {
	var retryErr *RetryError
	if errors.As(err, &retryErr) {
		return retryErr.RetryAfter, true
	}
	return 0, false
}
