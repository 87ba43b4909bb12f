// Package activity writes the account audit trail.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/dbx"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, a *models.Activity) error {
	query :=
		`INSERT INTO activity_log (id, account_id, action, detail, origin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query, a.ID, a.AccountID, a.Action, a.Detail, a.Origin, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, action models.ActivityAction, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM activity_log WHERE action = $1 AND created_at >= $2`, action, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
