// Package failures persists records of failed store mutations.
package failures

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

func (r *PostgresRepository) Add(ctx context.Context, f *models.Failure) error {
	query :=
		`INSERT INTO operation_failures (id, operation, account_ref, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	if _, err := r.db.ExecContext(ctx, query, f.ID, f.Operation, f.AccountRef, f.Detail, f.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
