package business

import (
	"context"
	"testing"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type impersonationFixture struct {
	accountRepo       *fakeAccountRepo
	sessionRepo       *fakeSessionRepo
	impersonationRepo *fakeImpersonationRepo
	sessions          SessionBusiness
	recorder          *recordingAuditRecorder
	biz               ImpersonationBusiness
}

func newImpersonationFixture() *impersonationFixture {
	f := &impersonationFixture{
		accountRepo:       newFakeAccountRepo(),
		sessionRepo:       newFakeSessionRepo(),
		impersonationRepo: newFakeImpersonationRepo(),
		recorder:          &recordingAuditRecorder{},
	}
	f.sessions = NewSessionBusiness(time.Hour, f.sessionRepo, f.accountRepo)
	f.biz = NewImpersonationBusiness(f.accountRepo, f.impersonationRepo, f.sessions, f.recorder)
	return f
}

func (f *impersonationFixture) addAccount(t *testing.T, id, email string, role models.Role) *models.Account {
	t.Helper()
	account := activeAccount(id, email)
	account.Role = role.String()
	require.NoError(t, f.accountRepo.Save(context.Background(), account))
	return account
}

func TestImpersonateIssuesSessionForTarget(t *testing.T) {
	ctx := context.Background()
	f := newImpersonationFixture()
	f.addAccount(t, "op-1", "admin@example.com", models.RoleAdmin)
	f.addAccount(t, "acc-1", "student@example.com", models.RoleStudent)

	result, err := f.biz.Impersonate(ctx, "op-1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", result.Target.GetID())

	// The minted session belongs to the target, not the operator.
	resolved, err := f.sessions.Validate(ctx, result.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "acc-1", resolved.GetID())

	records, err := f.impersonationRepo.GetByOperatorID(ctx, "op-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "acc-1", records[0].TargetID)
	assert.True(t, f.recorder.has(AuditActionImpersonation))
}

func TestImpersonateResolvesTargetByEmail(t *testing.T) {
	ctx := context.Background()
	f := newImpersonationFixture()
	f.addAccount(t, "op-1", "admin@example.com", models.RoleAdmin)
	f.addAccount(t, "acc-1", "student@example.com", models.RoleStudent)

	result, err := f.biz.Impersonate(ctx, "op-1", "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", result.Target.GetID())
}

func TestImpersonateRequiresElevatedRole(t *testing.T) {
	ctx := context.Background()
	f := newImpersonationFixture()
	f.addAccount(t, "acc-1", "student@example.com", models.RoleStudent)
	f.addAccount(t, "acc-2", "other@example.com", models.RoleStudent)

	for _, role := range []models.Role{models.RoleGuest, models.RoleStudent, models.RoleFacilitator, models.RoleAlumni} {
		operator := f.addAccount(t, "op-"+role.String(), role.String()+"@example.com", role)

		_, err := f.biz.Impersonate(ctx, operator.GetID(), "acc-2")
		assert.ErrorIs(t, err, ErrNotPermitted, "role %s", role)
	}
}

func TestImpersonateUnknownPartiesRejected(t *testing.T) {
	ctx := context.Background()
	f := newImpersonationFixture()
	f.addAccount(t, "op-1", "admin@example.com", models.RoleAdmin)

	_, err := f.biz.Impersonate(ctx, "ghost-operator", "anyone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.biz.Impersonate(ctx, "op-1", "ghost-target")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImpersonateElevatedTargetLooksUnknown(t *testing.T) {
	ctx := context.Background()
	f := newImpersonationFixture()
	f.addAccount(t, "op-1", "admin@example.com", models.RoleAdmin)
	f.addAccount(t, "op-2", "other.admin@example.com", models.RoleAdmin)

	// Refusal is indistinguishable from an unknown target.
	_, err := f.biz.Impersonate(ctx, "op-1", "op-2")
	assert.ErrorIs(t, err, ErrNotFound)

	records, repoErr := f.impersonationRepo.GetByOperatorID(ctx, "op-1")
	require.NoError(t, repoErr)
	assert.Empty(t, records)
}
