package repository

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/pitabwire/frame"
)

type mfaSecretRepository struct {
	service *frame.Service
}

// NewMfaSecretRepository creates a new instance of MfaSecretRepository
func NewMfaSecretRepository(service *frame.Service) MfaSecretRepository {
	return &mfaSecretRepository{
		service: service,
	}
}

// GetByAccountID retrieves the secret for an account
func (r *mfaSecretRepository) GetByAccountID(ctx context.Context, accountID string) (*models.MfaSecret, error) {
	var secret models.MfaSecret
	err := r.service.DB(ctx, true).First(&secret, "account_id = ?", accountID).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &secret, nil
}

// Save creates or updates a secret record
func (r *mfaSecretRepository) Save(ctx context.Context, secret *models.MfaSecret) error {
	if secret.ID == "" {
		return r.service.DB(ctx, false).Create(secret).Error
	}
	return r.service.DB(ctx, false).Save(secret).Error
}

// DeleteByAccountID removes the secret for an account
func (r *mfaSecretRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	return r.service.DB(ctx, false).Delete(&models.MfaSecret{}, "account_id = ?", accountID).Error
}

type mfaChallengeRepository struct {
	service *frame.Service
}

// NewMfaChallengeRepository creates a new instance of MfaChallengeRepository
func NewMfaChallengeRepository(service *frame.Service) MfaChallengeRepository {
	return &mfaChallengeRepository{
		service: service,
	}
}

// Save creates a challenge record
func (r *mfaChallengeRepository) Save(ctx context.Context, challenge *models.MfaChallenge) error {
	return r.service.DB(ctx, false).Create(challenge).Error
}

// Peek reads a challenge by token without deleting it
func (r *mfaChallengeRepository) Peek(ctx context.Context, token string) (*models.MfaChallenge, error) {
	var challenge models.MfaChallenge
	err := r.service.DB(ctx, true).First(&challenge, "token = ?", token).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}

// ConsumeIfPresent deletes the challenge row and reports whether this call
// removed it. The conditional delete is a single statement so concurrent
// callers race on the row lock, not on a read-then-delete gap.
func (r *mfaChallengeRepository) ConsumeIfPresent(ctx context.Context, token string) (bool, error) {
	result := r.service.DB(ctx, false).Delete(&models.MfaChallenge{}, "token = ?", token)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired removes expired challenges
func (r *mfaChallengeRepository) DeleteExpired(ctx context.Context) error {
	return r.service.DB(ctx, false).Delete(&models.MfaChallenge{}, "expires_at < ?", time.Now()).Error
}
