// Package httpapi exposes the access portal over HTTP with chi.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/auth"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
	"github.com/dmitrijs2005/accessportal/internal/server/services"
)

// Service is the part of services.AccessService the handlers use.
type Service interface {
	StartCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
	ConfirmPayment(ctx context.Context, paymentRef string) (*services.Confirmation, error)
	RenewAccess(ctx context.Context, email, paymentRef string) (*services.Confirmation, error)
	IssueSession(acct *models.Account) (*services.SessionGrant, error)
	Login(ctx context.Context, email, code, origin string) (*services.SessionGrant, error)
	Authenticate(ctx context.Context, token string) (*models.Account, *auth.Claims, error)
	Logout(ctx context.Context, token, origin string) error
	RefreshSession(ctx context.Context, token string) (*services.SessionGrant, error)
	ResendCode(ctx context.Context, email string) (bool, error)
	DisableAccount(ctx context.Context, email string) (*models.Account, error)
	EnableAccount(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// WebhookParser authenticates provider callbacks.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error)
}

// SweepTrigger runs an expiration sweep on demand.
type SweepTrigger interface {
	RunNow(ctx context.Context) (services.SweepReport, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes handler behaviour.
type Options struct {
	// ExposeErrorDetail adds the internal error text to error bodies. Only
	// for development.
	ExposeErrorDetail bool
	AdminSecret       string
	HealthTimeout     time.Duration
}

// Handler serves the portal endpoints.
type Handler struct {
	svc      Service
	webhooks WebhookParser
	sweeps   SweepTrigger
	store    Pinger
	opts     Options
	log      logging.Logger
}

func NewHandler(svc Service, webhooks WebhookParser, sweeps SweepTrigger, store Pinger, opts Options, log logging.Logger) *Handler {
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 2 * time.Second
	}
	return &Handler{
		svc:      svc,
		webhooks: webhooks,
		sweeps:   sweeps,
		store:    store,
		opts:     opts,
		log:      log.With("module", "http"),
	}
}
