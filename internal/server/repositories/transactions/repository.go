package transactions

import (
	"context"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrDuplicatePayment when the payment
	// reference was already recorded.
	Create(ctx context.Context, t *models.Transaction) error
	GetByPaymentRef(ctx context.Context, ref string) (*models.Transaction, error)
	Totals(ctx context.Context) (count int64, amount int64, err error)
}
