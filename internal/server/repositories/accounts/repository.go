package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// Repository persists accounts. Lookups return common.ErrNotFound when no
// row matches.
type Repository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByEmailAndCredential(ctx context.Context, email, credential string) (*models.Account, error)
	CredentialExists(ctx context.Context, credential string) (bool, error)
	Renew(ctx context.Context, r Renewal) (*models.Account, error)
	MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.Account, error)
	MarkWarned(ctx context.Context, id string, at time.Time) error
	Disable(ctx context.Context, id string, now time.Time) (*models.Account, error)
	Enable(ctx context.Context, id string, now time.Time) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	CountByStatus(ctx context.Context, now, soon time.Time) (*models.Stats, error)
}

// Renewal describes the fields replaced when access is extended.
type Renewal struct {
	AccountID  string
	Credential string
	PaymentRef string
	PaidAt     time.Time
	ExpiresAt  time.Time
}
