package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// DisableAccount revokes access for the email. Its credential stops
// authenticating immediately.
func (s *AccessService) DisableAccount(ctx context.Context, email string) (*models.Account, error) {
	return s.setDisabled(ctx, email, true)
}

// EnableAccount lifts a disable. The account returns to active or expired
// depending on its expiry.
func (s *AccessService) EnableAccount(ctx context.Context, email string) (*models.Account, error) {
	return s.setDisabled(ctx, email, false)
}

func (s *AccessService) setDisabled(ctx context.Context, email string, disable bool) (*models.Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	op, action := "enable_account", models.ActionEnable
	update := s.store.Enable
	if disable {
		op, action = "disable_account", models.ActionDisable
		update = s.store.Disable
	}

	updated, err := update(ctx, acct.ID, s.now().UTC())
	if err != nil {
		return nil, s.fail(ctx, op, email, err)
	}
	s.recordActivity(ctx, updated.ID, action, "admin", "")
	s.log.Info(ctx, "account status changed", "account_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// ListAccounts pages through accounts. A non-positive limit selects the
// default page size; the limit is capped.
func (s *AccessService) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// Stats returns dashboard counters; ExpiringSoon uses the warning window.
func (s *AccessService) Stats(ctx context.Context) (*models.Stats, error) {
	now := s.now().UTC()
	return s.store.Stats(ctx, now, now.Add(s.warningWindow))
}
