// Package notifications records every notification delivery attempt.
package notifications

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accessportal/internal/dbx"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, n *models.NotificationAttempt) error {
	query :=
		`INSERT INTO notification_attempts (id, account_id, kind, channel, success, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query, n.ID, n.AccountID, n.Kind, n.Channel, n.Success, n.Error, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountFailed(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notification_attempts WHERE NOT success`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
