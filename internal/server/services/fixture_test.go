package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/auth"
	"github.com/dmitrijs2005/accessportal/internal/server/config"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
	"github.com/dmitrijs2005/accessportal/internal/server/storage"
	"github.com/dmitrijs2005/accessportal/internal/timex"
)

// T0 lies in the future so grants signed on the test clock are still valid
// for the real-time denylist.
var T0 = time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

const validity = 90 * timex.Day

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type sent struct {
	kind     models.NotificationKind
	email    string
	code     string
	daysLeft int
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

func (d *recordingDispatcher) add(kind models.NotificationKind, a *models.Account, days int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sent{kind: kind, email: a.Email, code: a.Credential, daysLeft: days})
	return !d.fail
}

func (d *recordingDispatcher) SendWelcome(_ context.Context, a *models.Account) bool {
	return d.add(models.NotifyWelcome, a, 0)
}

func (d *recordingDispatcher) SendExpirationWarning(_ context.Context, a *models.Account, days int) bool {
	return d.add(models.NotifyExpirationWarning, a, days)
}

func (d *recordingDispatcher) SendRenewalConfirmation(_ context.Context, a *models.Account) bool {
	return d.add(models.NotifyRenewal, a, 0)
}

func (d *recordingDispatcher) SendCode(_ context.Context, a *models.Account) bool {
	return d.add(models.NotifyResend, a, 0)
}

func (d *recordingDispatcher) count(kind models.NotificationKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// seqCodes hands out codes in order, then repeats the last one.
type seqCodes struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func (g *seqCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return "", errors.New("no codes")
	}
	c := g.codes[min(g.i, len(g.codes)-1)]
	g.i++
	return c, nil
}

type harness struct {
	svc      *AccessService
	store    *storage.MemoryStore
	payments *payments.Static
	notes    *recordingDispatcher
	clock    *clock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.JWTSecret = "test-secret"
	cfg.SessionTTL = 24 * time.Hour
	cfg.ValidityPeriod = validity
	cfg.WarningWindow = 7 * timex.Day
	cfg.PaymentTimeout = 50 * time.Millisecond
	return cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    storage.NewMemoryStore(),
		payments: payments.NewStatic(false, "http://portal"),
		notes:    &recordingDispatcher{},
		clock:    &clock{t: T0},
	}
	h.svc = NewAccessService(h.store, h.payments, h.notes,
		auth.NewMemoryDenylist(), auth.NewMemoryLockout(5, 15*time.Minute),
		testConfig(), logging.Nop{})
	h.svc.now = h.clock.Now
	return h
}

// pay registers a paid checkout for email.
func (h *harness) pay(ref, email string) {
	h.payments.Add(payments.Payment{Ref: ref, Paid: true, Email: email, Name: "Ana", Amount: 50000, Currency: "mxn"})
}

// confirmNew provisions an account at the current clock.
func (h *harness) confirmNew(t *testing.T, ref, email string) *models.Account {
	t.Helper()
	h.pay(ref, email)
	c, err := h.svc.ConfirmPayment(context.Background(), ref)
	if err != nil {
		t.Fatalf("ConfirmPayment(%s): %v", ref, err)
	}
	return c.Account
}

// failingStore injects errors into selected MemoryStore mutations.
// beforeRenew runs once ahead of the first Renew to interleave a competing
// caller between the account lookup and the locked write.
type failingStore struct {
	*storage.MemoryStore
	createErr   error
	renewErr    error
	expireErr   error
	beforeRenew func()
}

func (f *failingStore) Create(ctx context.Context, na models.NewAccount, tx models.Transaction) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.MemoryStore.Create(ctx, na, tx)
}

func (f *failingStore) Renew(ctx context.Context, id, cred string, tx models.Transaction, mode models.RenewMode, v time.Duration, now time.Time) (*models.Account, error) {
	if f.renewErr != nil {
		return nil, f.renewErr
	}
	if hook := f.beforeRenew; hook != nil {
		f.beforeRenew = nil
		hook()
	}
	return f.MemoryStore.Renew(ctx, id, cred, tx, mode, v, now)
}

func (f *failingStore) MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	if f.expireErr != nil {
		return 0, f.expireErr
	}
	return f.MemoryStore.MarkExpiredBefore(ctx, now)
}

// blockingProvider never answers before the context ends.
type blockingProvider struct{ payments.Provider }

func (blockingProvider) Verify(ctx context.Context, _ string) (*payments.Payment, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
