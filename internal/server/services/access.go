// Package services contains server-side business logic. AccessService owns
// the access-code lifecycle: payment confirmation, renewal, login, sessions,
// expiration sweeping and administrative state changes.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/auth"
	"github.com/dmitrijs2005/accessportal/internal/server/codegen"
	"github.com/dmitrijs2005/accessportal/internal/server/config"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/dmitrijs2005/accessportal/internal/server/notify"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
	"github.com/dmitrijs2005/accessportal/internal/server/storage"
)

// CodeGenerator produces candidate access codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// Confirmation is the outcome of a confirmed payment.
type Confirmation struct {
	Account *models.Account
	// IsNewCredential is true when a credential was issued by this call.
	IsNewCredential bool
	// Superseded marks a replayed payment whose credential was replaced by
	// a later renewal. The caller must not hand out the current credential.
	Superseded bool
}

// SessionGrant is a signed bearer token bound to one account.
type SessionGrant struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

// AccessService implements the account state machine
// NONE -> ACTIVE -> EXPIRED, with DISABLED reachable from any state.
type AccessService struct {
	store    storage.Store
	payments payments.Provider
	notifier notify.Dispatcher
	codes    CodeGenerator
	denylist auth.Denylist
	lockout  auth.Lockout
	log      logging.Logger

	jwtSecret      []byte
	sessionTTL     time.Duration
	validity       time.Duration
	warningWindow  time.Duration
	paymentTimeout time.Duration
	currency       string

	now func() time.Time
}

// NewAccessService wires the service from its collaborators and server
// config. Codes come from the crypto-random generator of cfg.CodeFormat;
// an unknown format falls back to the alphanumeric default.
func NewAccessService(
	store storage.Store,
	provider payments.Provider,
	notifier notify.Dispatcher,
	denylist auth.Denylist,
	lockout auth.Lockout,
	cfg *config.Config,
	log logging.Logger,
) *AccessService {
	codes, err := codegen.ForFormat(cfg.CodeFormat)
	if err != nil {
		codes = codegen.New()
	}
	return &AccessService{
		store:          store,
		payments:       provider,
		notifier:       notifier,
		codes:          codes,
		denylist:       denylist,
		lockout:        lockout,
		log:            log.With("module", "access"),
		jwtSecret:      []byte(cfg.JWTSecret),
		sessionTTL:     cfg.SessionTTL,
		validity:       cfg.ValidityPeriod,
		warningWindow:  cfg.WarningWindow,
		paymentTimeout: cfg.PaymentTimeout,
		currency:       cfg.Currency,
		now:            time.Now,
	}
}

// WarningWindow is the pre-expiry lookahead used by Sweep and Stats.
func (s *AccessService) WarningWindow() time.Duration { return s.warningWindow }

// nextCode draws a code that is not yet in use. The store's unique key is
// still the final arbiter; callers retry on ErrCredentialCollision.
func (s *AccessService) nextCode(ctx context.Context) (string, error) {
	for i := 0; i < codegen.MaxAttempts; i++ {
		code, err := s.codes.Generate()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		exists, err := s.store.CredentialExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", common.ErrCodeSpaceExhausted
}

// issueSession signs a grant for acct. The grant never outlives the
// account's access.
func (s *AccessService) issueSession(acct *models.Account) (*SessionGrant, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	if acct.ExpiresAt.Before(expiresAt) {
		expiresAt = acct.ExpiresAt
	}
	token, _, err := auth.GenerateToken(acct.ID, acct.Email, s.jwtSecret, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &SessionGrant{Token: token, ExpiresAt: expiresAt, Account: acct}, nil
}

// IssueSession signs a grant for an account that currently has access.
func (s *AccessService) IssueSession(acct *models.Account) (*SessionGrant, error) {
	if acct.Status == models.StatusDisabled {
		return nil, common.ErrAccountDisabled
	}
	if !acct.IsActive(s.now()) {
		return nil, common.ErrAccountExpired
	}
	return s.issueSession(acct)
}

func (s *AccessService) recordActivity(ctx context.Context, accountID string, action models.ActivityAction, detail, origin string) {
	err := s.store.RecordActivity(context.WithoutCancel(ctx), models.Activity{
		AccountID: accountID,
		Action:    action,
		Detail:    detail,
		Origin:    origin,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Warn(ctx, "record activity", "action", action, "account_id", accountID, "error", err)
	}
}

// fail logs a failed store mutation and writes the durable failure record.
// The returned error wraps the original.
func (s *AccessService) fail(ctx context.Context, op, accountRef string, err error) error {
	s.log.Error(ctx, "store mutation failed", "operation", op, "account", accountRef, "error", err)
	rerr := s.store.RecordFailure(context.WithoutCancel(ctx), models.Failure{
		Operation:  op,
		AccountRef: accountRef,
		Detail:     err.Error(),
		CreatedAt:  s.now().UTC(),
	})
	if rerr != nil {
		s.log.Error(ctx, "record failure", "operation", op, "error", rerr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeEmail(email string) (string, error) {
	email = common.NormalizeEmail(email)
	if email == "" || !common.LooksLikeEmail(email) {
		return "", fmt.Errorf("%w: email", common.ErrInvalidInput)
	}
	return email, nil
}

func isNotFound(err error) bool { return errors.Is(err, common.ErrNotFound) }
