package repository

import (
	"context"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/pitabwire/frame"
)

type accountRepository struct {
	service *frame.Service
}

// NewAccountRepository creates a new instance of AccountRepository
func NewAccountRepository(service *frame.Service) AccountRepository {
	return &accountRepository{
		service: service,
	}
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.service.DB(ctx, true).First(&account, "id = ?", id).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByEmail retrieves an account by its normalised email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.service.DB(ctx, true).First(&account, "email = ?", models.NormaliseEmail(email)).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Save creates or updates an account record
func (r *accountRepository) Save(ctx context.Context, account *models.Account) error {
	account.Email = models.NormaliseEmail(account.Email)
	if account.ID == "" {
		// Create new record
		return r.service.DB(ctx, false).Create(account).Error
	}
	// Update existing record
	return r.service.DB(ctx, false).Save(account).Error
}
