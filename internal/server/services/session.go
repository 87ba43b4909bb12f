package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/server/auth"
	"github.com/dmitrijs2005/accessportal/internal/server/codegen"
	"github.com/dmitrijs2005/accessportal/internal/server/metrics"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// Login exchanges email and access code for a session grant. Failures are
// specific: ErrNotFound for an unknown email, ErrInvalidCredential for a
// wrong code, then ErrAccountDisabled and ErrAccountExpired. Repeated
// failures for one email lock it out for a while.
func (s *AccessService) Login(ctx context.Context, email, code, origin string) (*SessionGrant, error) {
	grant, err := s.login(ctx, email, code, origin)
	metrics.RecordLogin(loginOutcome(err))
	return grant, err
}

func loginOutcome(err error) string {
	for _, c := range []struct {
		err     error
		outcome string
	}{
		{common.ErrInvalidInput, "invalid"},
		{common.ErrLockedOut, "locked_out"},
		{common.ErrNotFound, "unknown_email"},
		{common.ErrInvalidCredential, "bad_code"},
		{common.ErrAccountDisabled, "disabled"},
		{common.ErrAccountExpired, "expired"},
	} {
		if errors.Is(err, c.err) {
			return c.outcome
		}
	}
	if err != nil {
		return "error"
	}
	return "ok"
}

func (s *AccessService) login(ctx context.Context, email, code, origin string) (*SessionGrant, error) {
	email = common.NormalizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and code are required", common.ErrInvalidInput)
	}

	allowed, err := s.lockout.Allowed(ctx, email)
	if err != nil {
		s.log.Warn(ctx, "lockout check failed", "email", email, "error", err)
	} else if !allowed {
		return nil, common.ErrLockedOut
	}

	// Malformed codes never reach the credential lookup.
	var acct *models.Account
	if codegen.Known(code) {
		acct, err = s.store.FindByEmailAndCredential(ctx, email, code)
	} else {
		err = common.ErrNotFound
	}
	if isNotFound(err) {
		s.loginFailed(ctx, email)
		if _, err := s.store.FindByEmail(ctx, email); err != nil {
			if isNotFound(err) {
				return nil, common.ErrNotFound
			}
			return nil, fmt.Errorf("find account: %w", err)
		}
		return nil, common.ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	if acct.Status == models.StatusDisabled {
		return nil, common.ErrAccountDisabled
	}
	if acct.IsExpired(s.now()) {
		return nil, common.ErrAccountExpired
	}

	if err := s.lockout.Reset(ctx, email); err != nil {
		s.log.Warn(ctx, "lockout reset failed", "email", email, "error", err)
	}

	grant, err := s.issueSession(acct)
	if err != nil {
		return nil, err
	}
	s.recordActivity(ctx, acct.ID, models.ActionLogin, "", origin)
	s.log.Info(ctx, "login", "account_id", acct.ID)
	return grant, nil
}

func (s *AccessService) loginFailed(ctx context.Context, email string) {
	locked, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		s.log.Warn(ctx, "lockout record failed", "email", email, "error", err)
		return
	}
	if locked {
		s.log.Warn(ctx, "login locked out", "email", email)
	}
}

// Authenticate resolves a bearer token to its account. The token must be
// valid and not revoked and the account must still have access.
func (s *AccessService) Authenticate(ctx context.Context, token string) (*models.Account, *auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret, s.now())
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("denylist: %w", err)
	}
	if revoked {
		return nil, nil, common.ErrTokenRevoked
	}

	acct, err := s.store.FindByID(ctx, claims.AccountID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("find account: %w", err)
	}
	if acct.Status == models.StatusDisabled {
		return nil, nil, common.ErrAccountDisabled
	}
	if !acct.IsActive(s.now()) {
		return nil, nil, common.ErrAccountExpired
	}
	return acct, claims, nil
}

// Logout revokes the grant until its own expiry.
func (s *AccessService) Logout(ctx context.Context, token, origin string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret, s.now())
	if err != nil {
		return err
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.recordActivity(ctx, claims.AccountID(), models.ActionLogout, "", origin)
	return nil
}

// RefreshSession replaces a valid grant with a new one and revokes the old.
func (s *AccessService) RefreshSession(ctx context.Context, token string) (*SessionGrant, error) {
	acct, claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	grant, err := s.issueSession(acct)
	if err != nil {
		return nil, err
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return grant, nil
}

// ResendCode sends the current code of an active account again. It reports
// whether any channel delivered it.
func (s *AccessService) ResendCode(ctx context.Context, email string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("find account: %w", err)
	}
	if acct.Status == models.StatusDisabled {
		return false, common.ErrAccountDisabled
	}
	if !acct.IsActive(s.now()) {
		return false, common.ErrAccountExpired
	}
	return s.notifier.SendCode(ctx, acct), nil
}
