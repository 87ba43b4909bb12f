package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/dbx"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/accessportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SQLStore implements Store over PostgreSQL. Multi-row mutations run in a
// single transaction through dbx.WithTx with repositories bound to it.
type SQLStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newID       func() string
}

// NewSQLStore wraps an open database. Migrations are not run here.
func NewSQLStore(db *sql.DB, m repomanager.RepositoryManager) *SQLStore {
	return &SQLStore{db: db, repomanager: m, newID: uuid.NewString}
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
}

func (s *SQLStore) FindByEmailAndCredential(ctx context.Context, email, credential string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByEmailAndCredential(ctx, email, credential)
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}

func (s *SQLStore) FindByPaymentRef(ctx context.Context, ref string) (*models.Transaction, error) {
	return s.repomanager.Transactions(s.db).GetByPaymentRef(ctx, ref)
}

func (s *SQLStore) CredentialExists(ctx context.Context, credential string) (bool, error) {
	return s.repomanager.Accounts(s.db).CredentialExists(ctx, credential)
}

func (s *SQLStore) Create(ctx context.Context, na models.NewAccount, t models.Transaction) (*models.Account, error) {
	if na.ID == "" {
		na.ID = s.newID()
	}
	acct := &models.Account{
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
	}
	t = s.prepareTransaction(t, acct.ID, na.PaidAt)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Create(ctx, acct); err != nil {
			return err
		}
		if err := s.repomanager.History(tx).Add(ctx, &models.CredentialHistory{
			ID:         s.newID(),
			AccountID:  acct.ID,
			Credential: acct.Credential,
			Kind:       models.CredentialInitial,
			IssuedAt:   na.PaidAt,
			ExpiresAt:  na.ExpiresAt,
		}); err != nil {
			return err
		}
		return s.repomanager.Transactions(tx).Create(ctx, &t)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *SQLStore) Renew(ctx context.Context, accountID, credential string, t models.Transaction, mode models.RenewMode, validity time.Duration, now time.Time) (*models.Account, error) {
	var renewed *models.Account
	t = s.prepareTransaction(t, accountID, now)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		current, err := repo.GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if current.Status == models.StatusDisabled {
			return common.ErrAccountDisabled
		}

		if err := s.repomanager.Transactions(tx).Create(ctx, &t); err != nil {
			return err
		}
		if mode == models.RenewIfLapsed && current.IsActive(now) {
			renewed = current
			return nil
		}

		expiresAt := renewedExpiry(current.ExpiresAt, validity, now)
		renewed, err = repo.Renew(ctx, accounts.Renewal{
			AccountID:  accountID,
			Credential: credential,
			PaymentRef: t.PaymentRef,
			PaidAt:     now,
			ExpiresAt:  expiresAt,
		})
		if err != nil {
			return err
		}

		return s.repomanager.History(tx).Add(ctx, &models.CredentialHistory{
			ID:         s.newID(),
			AccountID:  accountID,
			Credential: credential,
			Kind:       models.CredentialRenewal,
			IssuedAt:   now,
			ExpiresAt:  expiresAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return renewed, nil
}

func (s *SQLStore) RecordTransaction(ctx context.Context, t models.Transaction) error {
	t = s.prepareTransaction(t, t.AccountID, t.CreatedAt)
	return s.repomanager.Transactions(s.db).Create(ctx, &t)
}

func (s *SQLStore) MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	return s.repomanager.Accounts(s.db).MarkExpiredBefore(ctx, now)
}

func (s *SQLStore) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.Account, error) {
	return s.repomanager.Accounts(s.db).ListExpiringBetween(ctx, from, to)
}

func (s *SQLStore) MarkWarned(ctx context.Context, accountID string, at time.Time) error {
	return s.repomanager.Accounts(s.db).MarkWarned(ctx, accountID, at)
}

func (s *SQLStore) Disable(ctx context.Context, accountID string, now time.Time) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).Disable(ctx, accountID, now)
}

func (s *SQLStore) Enable(ctx context.Context, accountID string, now time.Time) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).Enable(ctx, accountID, now)
}

func (s *SQLStore) RecordActivity(ctx context.Context, a models.Activity) error {
	if a.ID == "" {
		a.ID = s.newID()
	}
	return s.repomanager.Activity(s.db).Add(ctx, &a)
}

func (s *SQLStore) RecordNotification(ctx context.Context, n models.NotificationAttempt) error {
	if n.ID == "" {
		n.ID = s.newID()
	}
	return s.repomanager.Notifications(s.db).Add(ctx, &n)
}

func (s *SQLStore) RecordFailure(ctx context.Context, f models.Failure) error {
	if f.ID == "" {
		f.ID = s.newID()
	}
	return s.repomanager.Failures(s.db).Add(ctx, &f)
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	return s.repomanager.Accounts(s.db).List(ctx, limit, offset)
}

func (s *SQLStore) Stats(ctx context.Context, now, soon time.Time) (*models.Stats, error) {
	stats, err := s.repomanager.Accounts(s.db).CountByStatus(ctx, now, soon)
	if err != nil {
		return nil, err
	}
	if stats.Transactions, stats.RevenueMinor, err = s.repomanager.Transactions(s.db).Totals(ctx); err != nil {
		return nil, err
	}
	if stats.LoginsLast24h, err = s.repomanager.Activity(s.db).CountSince(ctx, models.ActionLogin, now.Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	if stats.FailedNotifies, err = s.repomanager.Notifications(s.db).CountFailed(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) prepareTransaction(t models.Transaction, accountID string, at time.Time) models.Transaction {
	if t.ID == "" {
		t.ID = s.newID()
	}
	t.AccountID = accountID
	if t.Status == "" {
		t.Status = models.TransactionPaid
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = at
	}
	return t
}

// renewedExpiry extends from the later of now and the current expiry, so
// early renewals keep their remaining time.
func renewedExpiry(current time.Time, validity time.Duration, now time.Time) time.Time {
	base := now
	if current.After(now) {
		base = current
	}
	return base.Add(validity)
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenPostgres opens the pool, verifies connectivity and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return NewSQLStore(db, m), nil
}
