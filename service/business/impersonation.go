package business

import (
	"context"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/pitabwire/util"
)

// ImpersonationResult carries the minted session and a summary of the
// assumed identity.
type ImpersonationResult struct {
	Token  string
	Target *models.Account
}

// ImpersonationBusiness lets an elevated operator obtain a session as
// another identity for support purposes. No password or MFA check runs on
// the target, trust is delegated entirely to the operator's own
// authentication, which is why the operation is role gated and every use is
// recorded.
type ImpersonationBusiness interface {
	// Impersonate resolves targetIdentifier (account id or email), issues a
	// session for the target and records the operator to target linkage.
	Impersonate(ctx context.Context, operatorID, targetIdentifier string) (*ImpersonationResult, error)
}

func NewImpersonationBusiness(
	accountRepo repository.AccountRepository,
	impersonationRepo repository.ImpersonationRepository,
	sessions SessionBusiness,
	recorder AuditRecorder,
) ImpersonationBusiness {
	return &impersonationBusiness{
		accountRepo:       accountRepo,
		impersonationRepo: impersonationRepo,
		sessions:          sessions,
		recorder:          recorder,
		now:               time.Now,
	}
}

type impersonationBusiness struct {
	accountRepo       repository.AccountRepository
	impersonationRepo repository.ImpersonationRepository
	sessions          SessionBusiness
	recorder          AuditRecorder
	now               func() time.Time
}

func (i *impersonationBusiness) Impersonate(ctx context.Context, operatorID, targetIdentifier string) (*ImpersonationResult, error) {
	log := util.Log(ctx).WithField("operator_id", operatorID)

	operator, err := i.accountRepo.GetByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if operator == nil {
		return nil, ErrNotFound
	}
	if !models.Role(operator.Role).CanImpersonate() {
		log.Warn("impersonation attempted without an elevated role")
		return nil, ErrNotPermitted
	}

	target, err := i.resolveTarget(ctx, targetIdentifier)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrNotFound
	}
	// Operators cannot assume other elevated identities. The rejection is
	// indistinguishable from an unknown target.
	if models.Role(target.Role).CanImpersonate() {
		log.WithField("target_id", target.GetID()).Warn("impersonation of an elevated account refused")
		return nil, ErrNotFound
	}

	token, err := i.sessions.Issue(ctx, target.GetID())
	if err != nil {
		return nil, err
	}

	err = i.impersonationRepo.Save(ctx, &models.Impersonation{
		OperatorID: operatorID,
		TargetID:   target.GetID(),
		StartedAt:  i.now(),
	})
	if err != nil {
		return nil, err
	}

	i.recorder.Record(ctx, AuditEntry{
		Action:   AuditActionImpersonation,
		ActorID:  operatorID,
		TargetID: target.GetID(),
	})

	return &ImpersonationResult{
		Token:  token,
		Target: target,
	}, nil
}

func (i *impersonationBusiness) resolveTarget(ctx context.Context, identifier string) (*models.Account, error) {
	target, err := i.accountRepo.GetByID(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if target != nil {
		return target, nil
	}
	return i.accountRepo.GetByEmail(ctx, identifier)
}
