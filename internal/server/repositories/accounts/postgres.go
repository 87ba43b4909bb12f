// Package accounts stores customer accounts and their current credential.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/dbx"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

const (
	constraintEmail      = "accounts_email_key"
	constraintCredential = "accounts_credential_key"
)

const columns = `id, email, name, phone, credential, payment_ref, status, created_at, last_payment_at, expires_at, warned_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	a := &models.Account{}
	var warned sql.NullTime
	err := s.Scan(&a.ID, &a.Email, &a.Name, &a.Phone, &a.Credential, &a.PaymentRef, &a.Status,
		&a.CreatedAt, &a.LastPaymentAt, &a.ExpiresAt, &warned, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if warned.Valid {
		t := warned.Time
		a.WarnedAt = &t
	}
	return a, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Create inserts a. Unique clashes are reported as ErrDuplicateIdentity
// (email) or ErrCredentialCollision (credential).
func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, email, name, phone, credential, payment_ref, status, created_at, last_payment_at, expires_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Name, a.Phone, a.Credential, a.PaymentRef, a.Status,
		a.CreatedAt, a.LastPaymentAt, a.ExpiresAt)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			switch constraint {
			case constraintEmail:
				return common.ErrDuplicateIdentity
			case constraintCredential:
				return common.ErrCredentialCollision
			}
		}
		return fmt.Errorf("db error: %w", err)
	}
	a.UpdatedAt = a.CreatedAt
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE email = $1`, email)
}

// GetByEmailAndCredential matches both values; there is no credential-only
// lookup.
func (r *PostgresRepository) GetByEmailAndCredential(ctx context.Context, email, credential string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE email = $1 AND credential = $2`, email, credential)
}

func (r *PostgresRepository) CredentialExists(ctx context.Context, credential string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE credential = $1)`, credential).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Renew replaces the credential and expiry, reactivates the account and
// clears the warning marker.
func (r *PostgresRepository) Renew(ctx context.Context, rn Renewal) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET credential = $2, payment_ref = $3, status = 'active', last_payment_at = $4,
		     expires_at = $5, warned_at = NULL, updated_at = $4
		 WHERE id = $1
		 RETURNING ` + columns

	a, err := r.getOne(ctx, query, rn.AccountID, rn.Credential, rn.PaymentRef, rn.PaidAt, rn.ExpiresAt)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok && constraint == constraintCredential {
			return nil, common.ErrCredentialCollision
		}
		return nil, err
	}
	return a, nil
}

// MarkExpiredBefore flips every active account whose expiry has passed. The
// condition is re-evaluated per row, so a concurrent renewal is never undone.
func (r *PostgresRepository) MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE accounts SET status = 'expired', updated_at = $1
		 WHERE status = 'active' AND expires_at < $1
		 `

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListExpiringBetween returns active accounts with from < expires_at <= to
// that have not been warned in their current validity period.
func (r *PostgresRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.Account, error) {
	query :=
		`SELECT ` + columns + ` FROM accounts
		 WHERE status = 'active' AND expires_at > $1 AND expires_at <= $2 AND warned_at IS NULL
		 ORDER BY expires_at
		 `
	return r.getMany(ctx, query, from, to)
}

func (r *PostgresRepository) MarkWarned(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET warned_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Disable(ctx context.Context, id string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts SET status = 'disabled', updated_at = $2
		 WHERE id = $1
		 RETURNING ` + columns
	return r.getOne(ctx, query, id, now)
}

// Enable lifts a disable. The account comes back expired when its validity
// already lapsed.
func (r *PostgresRepository) Enable(ctx context.Context, id string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET status = CASE WHEN expires_at > $2 THEN 'active' ELSE 'expired' END, updated_at = $2
		 WHERE id = $1
		 RETURNING ` + columns
	return r.getOne(ctx, query, id, now)
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.getMany(ctx, query, limit, offset)
}

// CountByStatus fills the account counters of Stats. Accounts past their
// expiry but not yet swept count as expired.
func (r *PostgresRepository) CountByStatus(ctx context.Context, now, soon time.Time) (*models.Stats, error) {
	query :=
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'active' AND expires_at > $1),
		        count(*) FILTER (WHERE status = 'expired' OR (status = 'active' AND expires_at <= $1)),
		        count(*) FILTER (WHERE status = 'disabled'),
		        count(*) FILTER (WHERE status = 'active' AND expires_at > $1 AND expires_at <= $2)
		 FROM accounts
		 `

	s := &models.Stats{}
	err := r.db.QueryRowContext(ctx, query, now, soon).Scan(&s.Total, &s.Active, &s.Expired, &s.Disabled, &s.ExpiringSoon)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
