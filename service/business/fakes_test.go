package business

import (
	"context"
	"sync"

	"github.com/IamDejman/demirti-web-sub003/service/models"
)

// In-memory repository fakes backing the tests in this package. They mirror
// the persistence contracts closely enough to exercise the full business
// flows, including the conditional challenge consume.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*models.Account)}
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id], nil
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Email == models.NormaliseEmail(email) {
			return account, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) Save(ctx context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account.GetID() == "" {
		account.GenID(ctx)
	}
	account.Email = models.NormaliseEmail(account.Email)
	f.accounts[account.GetID()] = account
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionRepo) GetByToken(_ context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[token], nil
}

func (f *fakeSessionRepo) Save(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session.GetID() == "" {
		session.GenID(ctx)
	}
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessionRepo) DeleteByToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionRepo) DeleteByAccountID(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, session := range f.sessions {
		if session.AccountID == accountID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	return nil
}

func (f *fakeSessionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeResetRepo struct {
	mu       sync.Mutex
	requests map[string]*models.PasswordResetRequest
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{requests: make(map[string]*models.PasswordResetRequest)}
}

func (f *fakeResetRepo) GetByEmail(_ context.Context, email string) (*models.PasswordResetRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[models.NormaliseEmail(email)], nil
}

func (f *fakeResetRepo) Save(ctx context.Context, request *models.PasswordResetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.GetID() == "" {
		request.GenID(ctx)
	}
	f.requests[models.NormaliseEmail(request.Email)] = request
	return nil
}

func (f *fakeResetRepo) DeleteByEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.requests, models.NormaliseEmail(email))
	return nil
}

func (f *fakeResetRepo) DeleteExpired(_ context.Context) error {
	return nil
}

type fakeMfaSecretRepo struct {
	mu      sync.Mutex
	secrets map[string]*models.MfaSecret
}

func newFakeMfaSecretRepo() *fakeMfaSecretRepo {
	return &fakeMfaSecretRepo{secrets: make(map[string]*models.MfaSecret)}
}

func (f *fakeMfaSecretRepo) GetByAccountID(_ context.Context, accountID string) (*models.MfaSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.secrets[accountID], nil
}

func (f *fakeMfaSecretRepo) Save(ctx context.Context, secret *models.MfaSecret) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if secret.GetID() == "" {
		secret.GenID(ctx)
	}
	f.secrets[secret.AccountID] = secret
	return nil
}

func (f *fakeMfaSecretRepo) DeleteByAccountID(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.secrets, accountID)
	return nil
}

type fakeMfaChallengeRepo struct {
	mu         sync.Mutex
	challenges map[string]*models.MfaChallenge
}

func newFakeMfaChallengeRepo() *fakeMfaChallengeRepo {
	return &fakeMfaChallengeRepo{challenges: make(map[string]*models.MfaChallenge)}
}

func (f *fakeMfaChallengeRepo) Save(ctx context.Context, challenge *models.MfaChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if challenge.GetID() == "" {
		challenge.GenID(ctx)
	}
	f.challenges[challenge.Token] = challenge
	return nil
}

func (f *fakeMfaChallengeRepo) Peek(_ context.Context, token string) (*models.MfaChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.challenges[token], nil
}

func (f *fakeMfaChallengeRepo) ConsumeIfPresent(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, present := f.challenges[token]
	if present {
		delete(f.challenges, token)
	}
	return present, nil
}

func (f *fakeMfaChallengeRepo) DeleteExpired(_ context.Context) error {
	return nil
}

type fakeImpersonationRepo struct {
	mu      sync.Mutex
	records []*models.Impersonation
}

func newFakeImpersonationRepo() *fakeImpersonationRepo {
	return &fakeImpersonationRepo{}
}

func (f *fakeImpersonationRepo) Save(ctx context.Context, record *models.Impersonation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.GetID() == "" {
		record.GenID(ctx)
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeImpersonationRepo) GetByOperatorID(_ context.Context, operatorID string) ([]*models.Impersonation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Impersonation
	for _, record := range f.records {
		if record.OperatorID == operatorID {
			out = append(out, record)
		}
	}
	return out, nil
}

// recordingAuditRecorder captures entries for assertions.
type recordingAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *recordingAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAuditRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

func (r *recordingAuditRecorder) has(action string) bool {
	for _, a := range r.actions() {
		if a == action {
			return true
		}
	}
	return false
}
