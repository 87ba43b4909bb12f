package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/google/uuid"
)

// MemoryStore implements Store with maps guarded by one mutex. It honours
// the same uniqueness and atomicity rules as SQLStore and returns copies, so
// callers never share state with the store.
type MemoryStore struct {
	mu sync.Mutex

	accounts     map[string]*models.Account
	byEmail      map[string]string
	byCredential map[string]string
	transactions map[string]*models.Transaction

	history       []models.CredentialHistory
	activity      []models.Activity
	notifications []models.NotificationAttempt
	failures      []models.Failure

	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]*models.Account),
		byEmail:      make(map[string]string),
		byCredential: make(map[string]string),
		transactions: make(map[string]*models.Transaction),
	}
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.WarnedAt != nil {
		w := *a.WarnedAt
		c.WarnedAt = &w
	}
	return &c
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneAccount(m.accounts[id]), nil
}

func (m *MemoryStore) FindByEmailAndCredential(_ context.Context, email, credential string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok || m.accounts[id].Credential != credential {
		return nil, common.ErrNotFound
	}
	return cloneAccount(m.accounts[id]), nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (m *MemoryStore) FindByPaymentRef(_ context.Context, ref string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[ref]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *MemoryStore) CredentialExists(_ context.Context, credential string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.byCredential[credential]
	return ok, nil
}

func (m *MemoryStore) Create(_ context.Context, na models.NewAccount, t models.Transaction) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[na.Email]; ok {
		return nil, common.ErrDuplicateIdentity
	}
	if _, ok := m.transactions[t.PaymentRef]; ok {
		return nil, common.ErrDuplicatePayment
	}
	if _, ok := m.byCredential[na.Credential]; ok {
		return nil, common.ErrCredentialCollision
	}

	if na.ID == "" {
		na.ID = uuid.NewString()
	}
	a := &models.Account{
		ID:            na.ID,
		Email:         na.Email,
		Name:          na.Name,
		Phone:         na.Phone,
		Credential:    na.Credential,
		PaymentRef:    na.PaymentRef,
		Status:        models.StatusActive,
		CreatedAt:     na.PaidAt,
		LastPaymentAt: na.PaidAt,
		ExpiresAt:     na.ExpiresAt,
		UpdatedAt:     na.PaidAt,
	}
	m.accounts[a.ID] = a
	m.byEmail[a.Email] = a.ID
	m.byCredential[a.Credential] = a.ID
	m.history = append(m.history, models.CredentialHistory{
		ID: uuid.NewString(), AccountID: a.ID, Credential: a.Credential,
		Kind: models.CredentialInitial, IssuedAt: na.PaidAt, ExpiresAt: na.ExpiresAt,
	})
	m.putTransaction(t, a.ID, na.PaidAt)

	return cloneAccount(a), nil
}

func (m *MemoryStore) Renew(_ context.Context, accountID, credential string, t models.Transaction, mode models.RenewMode, validity time.Duration, now time.Time) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if a.Status == models.StatusDisabled {
		return nil, common.ErrAccountDisabled
	}
	if _, ok := m.transactions[t.PaymentRef]; ok {
		return nil, common.ErrDuplicatePayment
	}
	if mode == models.RenewIfLapsed && a.IsActive(now) {
		m.putTransaction(t, accountID, now)
		return cloneAccount(a), nil
	}
	if owner, ok := m.byCredential[credential]; ok && owner != accountID {
		return nil, common.ErrCredentialCollision
	}

	delete(m.byCredential, a.Credential)
	m.byCredential[credential] = accountID

	a.Credential = credential
	a.PaymentRef = t.PaymentRef
	a.Status = models.StatusActive
	a.LastPaymentAt = now
	a.ExpiresAt = renewedExpiry(a.ExpiresAt, validity, now)
	a.WarnedAt = nil
	a.UpdatedAt = now

	m.history = append(m.history, models.CredentialHistory{
		ID: uuid.NewString(), AccountID: accountID, Credential: credential,
		Kind: models.CredentialRenewal, IssuedAt: now, ExpiresAt: a.ExpiresAt,
	})
	m.putTransaction(t, accountID, now)

	return cloneAccount(a), nil
}

func (m *MemoryStore) RecordTransaction(_ context.Context, t models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[t.PaymentRef]; ok {
		return common.ErrDuplicatePayment
	}
	m.putTransaction(t, t.AccountID, t.CreatedAt)
	return nil
}

// putTransaction must be called with m.mu held.
func (m *MemoryStore) putTransaction(t models.Transaction, accountID string, at time.Time) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.AccountID = accountID
	if t.Status == "" {
		t.Status = models.TransactionPaid
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = at
	}
	m.transactions[t.PaymentRef] = &t
}

func (m *MemoryStore) MarkExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, a := range m.accounts {
		if a.Status == models.StatusActive && a.ExpiresAt.Before(now) {
			a.Status = models.StatusExpired
			a.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListExpiringBetween(_ context.Context, from, to time.Time) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Account
	for _, a := range m.accounts {
		if a.Status == models.StatusActive && a.WarnedAt == nil &&
			a.ExpiresAt.After(from) && !a.ExpiresAt.After(to) {
			result = append(result, cloneAccount(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpiresAt.Before(result[j].ExpiresAt) })
	return result, nil
}

func (m *MemoryStore) MarkWarned(_ context.Context, accountID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok {
		return common.ErrNotFound
	}
	a.WarnedAt = &at
	return nil
}

func (m *MemoryStore) Disable(_ context.Context, accountID string, now time.Time) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok {
		return nil, common.ErrNotFound
	}
	a.Status = models.StatusDisabled
	a.UpdatedAt = now
	return cloneAccount(a), nil
}

func (m *MemoryStore) Enable(_ context.Context, accountID string, now time.Time) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if a.ExpiresAt.After(now) {
		a.Status = models.StatusActive
	} else {
		a.Status = models.StatusExpired
	}
	a.UpdatedAt = now
	return cloneAccount(a), nil
}

func (m *MemoryStore) RecordActivity(_ context.Context, a models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.activity = append(m.activity, a)
	return nil
}

func (m *MemoryStore) RecordNotification(_ context.Context, n models.NotificationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MemoryStore) RecordFailure(_ context.Context, f models.Failure) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	m.failures = append(m.failures, f)
	return nil
}

func (m *MemoryStore) List(_ context.Context, limit, offset int) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	result := make([]*models.Account, 0, end-offset)
	for _, a := range all[offset:end] {
		result = append(result, cloneAccount(a))
	}
	return result, nil
}

func (m *MemoryStore) Stats(_ context.Context, now, soon time.Time) (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &models.Stats{Total: int64(len(m.accounts))}
	for _, a := range m.accounts {
		switch {
		case a.Status == models.StatusDisabled:
			s.Disabled++
		case a.IsExpired(now):
			s.Expired++
		default:
			s.Active++
			if !a.ExpiresAt.After(soon) {
				s.ExpiringSoon++
			}
		}
	}
	for _, t := range m.transactions {
		s.Transactions++
		s.RevenueMinor += t.Amount
	}
	since := now.Add(-24 * time.Hour)
	for _, a := range m.activity {
		if a.Action == models.ActionLogin && !a.CreatedAt.Before(since) {
			s.LoginsLast24h++
		}
	}
	for _, n := range m.notifications {
		if !n.Success {
			s.FailedNotifies++
		}
	}
	return s, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return common.ErrInternal
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// History returns the credential history of one account, oldest first.
func (m *MemoryStore) History(accountID string) []models.CredentialHistory {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.CredentialHistory
	for _, h := range m.history {
		if h.AccountID == accountID {
			out = append(out, h)
		}
	}
	return out
}

// Activities returns a copy of the activity log.
func (m *MemoryStore) Activities() []models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Activity(nil), m.activity...)
}

// Notifications returns a copy of the recorded notification attempts.
func (m *MemoryStore) Notifications() []models.NotificationAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.NotificationAttempt(nil), m.notifications...)
}

// Failures returns a copy of the recorded failures.
func (m *MemoryStore) Failures() []models.Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Failure(nil), m.failures...)
}

// TransactionCount returns the number of recorded transactions.
func (m *MemoryStore) TransactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}
