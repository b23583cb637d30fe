package repository

import (
	"context"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/pitabwire/frame"
)

type impersonationRepository struct {
	service *frame.Service
}

// NewImpersonationRepository creates a new instance of ImpersonationRepository
func NewImpersonationRepository(service *frame.Service) ImpersonationRepository {
	return &impersonationRepository{
		service: service,
	}
}

// Save creates an impersonation record
func (r *impersonationRepository) Save(ctx context.Context, record *models.Impersonation) error {
	return r.service.DB(ctx, false).Create(record).Error
}

// GetByOperatorID lists impersonations performed by an operator
func (r *impersonationRepository) GetByOperatorID(ctx context.Context, operatorID string) ([]*models.Impersonation, error) {
	var records []*models.Impersonation
	err := r.service.DB(ctx, true).Find(&records, "operator_id = ?", operatorID).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

type auditRepository struct {
	service *frame.Service
}

// NewAuditRepository creates a new instance of AuditRepository
func NewAuditRepository(service *frame.Service) AuditRepository {
	return &auditRepository{
		service: service,
	}
}

// Save creates an audit record
func (r *auditRepository) Save(ctx context.Context, record *models.AuditRecord) error {
	return r.service.DB(ctx, false).Create(record).Error
}

// GetByActorID lists audit records for an actor
func (r *auditRepository) GetByActorID(ctx context.Context, actorID string) ([]*models.AuditRecord, error) {
	var records []*models.AuditRecord
	err := r.service.DB(ctx, true).Find(&records, "actor_id = ?", actorID).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
