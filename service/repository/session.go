package repository

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/pitabwire/frame"
)

type sessionRepository struct {
	service *frame.Service
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(service *frame.Service) SessionRepository {
	return &sessionRepository{
		service: service,
	}
}

// GetByToken retrieves a session by its bearer token
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.service.DB(ctx, true).First(&session, "token = ?", token).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Save creates or updates a session record
func (r *sessionRepository) Save(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		// Create new record
		return r.service.DB(ctx, false).Create(session).Error
	}
	// Update existing record
	return r.service.DB(ctx, false).Save(session).Error
}

// DeleteByToken removes one session row, idempotently
func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.service.DB(ctx, false).Delete(&models.Session{}, "token = ?", token).Error
}

// DeleteByAccountID removes every session owned by an account
func (r *sessionRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	return r.service.DB(ctx, false).Delete(&models.Session{}, "account_id = ?", accountID).Error
}

// DeleteExpired removes expired sessions
func (r *sessionRepository) DeleteExpired(ctx context.Context) error {
	return r.service.DB(ctx, false).Delete(&models.Session{}, "expires_at < ?", time.Now()).Error
}
