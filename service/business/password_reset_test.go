package business

import (
	"context"
	"testing"
	"time"

	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type capturingNotifier struct {
	email string
	code  string
}

func (c *capturingNotifier) SendPasswordResetCode(_ context.Context, email, code string) error {
	c.email = email
	c.code = code
	return nil
}

type resetFixture struct {
	accountRepo *fakeAccountRepo
	sessionRepo *fakeSessionRepo
	resetRepo   *fakeResetRepo
	sessions    SessionBusiness
	notifier    *capturingNotifier
	recorder    *recordingAuditRecorder
	biz         PasswordResetBusiness
}

func newResetFixture() *resetFixture {
	f := &resetFixture{
		accountRepo: newFakeAccountRepo(),
		sessionRepo: newFakeSessionRepo(),
		resetRepo:   newFakeResetRepo(),
		notifier:    &capturingNotifier{},
		recorder:    &recordingAuditRecorder{},
	}
	f.sessions = NewSessionBusiness(time.Hour, f.sessionRepo, f.accountRepo)
	f.biz = NewPasswordResetBusiness(6, 15*time.Minute,
		f.resetRepo, f.accountRepo, f.sessions,
		utils.NewBCryptWithCost(bcrypt.MinCost), f.notifier, f.recorder)
	return f
}

func TestPasswordResetRequestUnknownEmailSilentlySucceeds(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()

	require.NoError(t, f.biz.Request(ctx, "ghost@example.com"))
	assert.Empty(t, f.notifier.code)

	request, err := f.resetRepo.GetByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, request)
}

func TestPasswordResetRequestIssuesCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	require.NoError(t, f.accountRepo.Save(ctx, activeAccount("acc-1", "owner@example.com")))

	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))

	assert.Equal(t, "owner@example.com", f.notifier.email)
	assert.Len(t, f.notifier.code, 6)

	valid, err := f.biz.Verify(ctx, "owner@example.com", f.notifier.code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestPasswordResetNewRequestSupersedesOld(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	require.NoError(t, f.accountRepo.Save(ctx, activeAccount("acc-1", "owner@example.com")))

	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))
	firstCode := f.notifier.code

	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))
	secondCode := f.notifier.code

	if firstCode != secondCode {
		valid, err := f.biz.Verify(ctx, "owner@example.com", firstCode)
		require.NoError(t, err)
		assert.False(t, valid, "superseded code must stop working")
	}

	valid, err := f.biz.Verify(ctx, "owner@example.com", secondCode)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestPasswordResetVerifyDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	require.NoError(t, f.accountRepo.Save(ctx, activeAccount("acc-1", "owner@example.com")))
	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))

	for i := 0; i < 3; i++ {
		valid, err := f.biz.Verify(ctx, "owner@example.com", f.notifier.code)
		require.NoError(t, err)
		assert.True(t, valid)
	}

	valid, err := f.biz.Verify(ctx, "owner@example.com", "000000x")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestPasswordResetConsumeSetsPasswordAndRevokesSessions(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()

	account := activeAccount("acc-1", "owner@example.com")
	account.MustChangePassword = true
	require.NoError(t, f.accountRepo.Save(ctx, account))

	token, err := f.sessions.Issue(ctx, account.GetID())
	require.NoError(t, err)

	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))

	updated, err := f.biz.ConsumeAndReset(ctx, "owner@example.com", f.notifier.code, "new-password")
	require.NoError(t, err)
	require.NotNil(t, updated)

	hasher := utils.NewBCryptWithCost(bcrypt.MinCost)
	assert.True(t, hasher.Verify(ctx, updated.PasswordHash, []byte("new-password")))
	assert.False(t, updated.MustChangePassword)

	// Existing sessions die with the old password.
	resolved, err := f.sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	// The code is single use.
	_, err = f.biz.ConsumeAndReset(ctx, "owner@example.com", f.notifier.code, "another")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)

	assert.True(t, f.recorder.has(AuditActionPasswordReset))
}

func TestPasswordResetConsumeWrongCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	require.NoError(t, f.accountRepo.Save(ctx, activeAccount("acc-1", "owner@example.com")))
	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))

	_, err := f.biz.ConsumeAndReset(ctx, "owner@example.com", "bogus-code", "new-password")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)

	// The pending code survives a failed attempt.
	valid, err := f.biz.Verify(ctx, "owner@example.com", f.notifier.code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestPasswordResetExpiredCodeRejected(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	require.NoError(t, f.accountRepo.Save(ctx, activeAccount("acc-1", "owner@example.com")))
	require.NoError(t, f.biz.Request(ctx, "owner@example.com"))

	impl := f.biz.(*passwordResetBusiness)
	impl.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	valid, err := f.biz.Verify(ctx, "owner@example.com", f.notifier.code)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = f.biz.ConsumeAndReset(ctx, "owner@example.com", f.notifier.code, "new-password")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)
}
