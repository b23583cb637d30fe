package repository

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/pitabwire/frame"
)

type passwordResetRepository struct {
	service *frame.Service
}

// NewPasswordResetRepository creates a new instance of PasswordResetRepository
func NewPasswordResetRepository(service *frame.Service) PasswordResetRepository {
	return &passwordResetRepository{
		service: service,
	}
}

// GetByEmail retrieves the pending reset request for an email
func (r *passwordResetRepository) GetByEmail(ctx context.Context, email string) (*models.PasswordResetRequest, error) {
	var request models.PasswordResetRequest
	err := r.service.DB(ctx, true).First(&request, "email = ?", models.NormaliseEmail(email)).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// Save creates or updates a reset request record
func (r *passwordResetRepository) Save(ctx context.Context, request *models.PasswordResetRequest) error {
	request.Email = models.NormaliseEmail(request.Email)
	if request.ID == "" {
		return r.service.DB(ctx, false).Create(request).Error
	}
	return r.service.DB(ctx, false).Save(request).Error
}

// DeleteByEmail removes any pending reset request for an email
func (r *passwordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.service.DB(ctx, false).
		Delete(&models.PasswordResetRequest{}, "email = ?", models.NormaliseEmail(email)).Error
}

// DeleteExpired removes expired reset requests
func (r *passwordResetRepository) DeleteExpired(ctx context.Context) error {
	return r.service.DB(ctx, false).Delete(&models.PasswordResetRequest{}, "expires_at < ?", time.Now()).Error
}
