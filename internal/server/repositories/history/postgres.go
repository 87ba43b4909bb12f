// Package history keeps the append-only log of issued credentials.
package history

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

func (r *PostgresRepository) Add(ctx context.Context, h *models.CredentialHistory) error {
	query :=
		`INSERT INTO credential_history (id, account_id, credential, kind, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query, h.ID, h.AccountID, h.Credential, h.Kind, h.IssuedAt, h.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.CredentialHistory, error) {
	query :=
		`SELECT id, account_id, credential, kind, issued_at, expires_at
		 FROM credential_history
		 WHERE account_id = $1
		 ORDER BY issued_at
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.CredentialHistory
	for rows.Next() {
		h := &models.CredentialHistory{}
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Credential, &h.Kind, &h.IssuedAt, &h.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
