// Package storage is the account store: durable records of accounts,
// credential history, transactions, activity, notification attempts and
// failures. Two backends share one contract: SQLStore (PostgreSQL) and
// MemoryStore.
package storage

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// Store is the persistence contract used by the access service. Lookups
// return common.ErrNotFound when nothing matches. Create and Renew are
// atomic: either every row is written or none is.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindByEmailAndCredential requires both values to match one account.
	FindByEmailAndCredential(ctx context.Context, email, credential string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByPaymentRef(ctx context.Context, ref string) (*models.Transaction, error)
	CredentialExists(ctx context.Context, credential string) (bool, error)

	// Create writes the account, its initial history entry and the paying
	// transaction. It fails with ErrDuplicateIdentity, ErrDuplicatePayment
	// or ErrCredentialCollision on the matching unique clash.
	Create(ctx context.Context, acct models.NewAccount, tx models.Transaction) (*models.Account, error)
	// Renew extends access to max(now, expires_at) + validity under a row
	// lock, installs credential, reactivates the account, clears the warning
	// marker and writes the renewal history entry and transaction. Disabled
	// accounts yield ErrAccountDisabled. With RenewIfLapsed an account that
	// is active at now under the lock only gets the transaction and is
	// returned unchanged.
	Renew(ctx context.Context, accountID, credential string, tx models.Transaction, mode models.RenewMode, validity time.Duration, now time.Time) (*models.Account, error)
	// RecordTransaction stores a confirmation that does not change account
	// state.
	RecordTransaction(ctx context.Context, tx models.Transaction) error

	// MarkExpiredBefore expires active accounts whose expiry is before now.
	MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.Account, error)
	MarkWarned(ctx context.Context, accountID string, at time.Time) error
	Disable(ctx context.Context, accountID string, now time.Time) (*models.Account, error)
	Enable(ctx context.Context, accountID string, now time.Time) (*models.Account, error)

	RecordActivity(ctx context.Context, a models.Activity) error
	RecordNotification(ctx context.Context, n models.NotificationAttempt) error
	RecordFailure(ctx context.Context, f models.Failure) error

	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	// Stats counts accounts by state; ExpiringSoon covers now < expires_at <= soon.
	Stats(ctx context.Context, now, soon time.Time) (*models.Stats, error)

	Ping(ctx context.Context) error
	Close() error
}
