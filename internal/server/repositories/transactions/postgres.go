// Package transactions records confirmed payments keyed by payment reference.
package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/dbx"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

const constraintPaymentRef = "transactions_payment_ref_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) error {
	query :=
		`INSERT INTO transactions (id, account_id, payment_ref, amount, currency, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query, t.ID, t.AccountID, t.PaymentRef, t.Amount, t.Currency, t.Status, t.CreatedAt)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok && constraint == constraintPaymentRef {
			return common.ErrDuplicatePayment
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByPaymentRef(ctx context.Context, ref string) (*models.Transaction, error) {
	query :=
		`SELECT id, account_id, payment_ref, amount, currency, status, created_at
		 FROM transactions
		 WHERE payment_ref = $1
		 `

	t := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, ref).
		Scan(&t.ID, &t.AccountID, &t.PaymentRef, &t.Amount, &t.Currency, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Totals(ctx context.Context) (int64, int64, error) {
	var count, amount int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*), COALESCE(sum(amount), 0) FROM transactions`).Scan(&count, &amount)
	if err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return count, amount, nil
}
