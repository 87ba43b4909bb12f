// Package payments adapts the hosted checkout provider: it creates checkout
// sessions, verifies that a session was paid and authenticates webhooks.
package payments

import (
	"context"
	"errors"
)

// Payment is what the portal needs to know about a checkout: whether it was
// paid, and who paid.
type Payment struct {
	Ref      string
	Paid     bool
	Email    string
	Name     string
	Phone    string
	Amount   int64
	Currency string
}

// CheckoutRequest is the payer data collected before redirecting to checkout.
type CheckoutRequest struct {
	Name  string
	Email string
	Phone string
}

// CheckoutSession is the provider's hosted checkout page.
type CheckoutSession struct {
	ID  string
	URL string
}

// EventCheckoutCompleted is the only webhook event the portal acts on.
const EventCheckoutCompleted = "checkout.session.completed"

// WebhookEvent is an authenticated provider notification.
type WebhookEvent struct {
	ID         string
	Type       string
	PaymentRef string
}

// ErrInvalidSignature is returned for webhooks that fail authentication.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Provider is implemented by every payment backend.
type Provider interface {
	Verify(ctx context.Context, ref string) (*Payment, error)
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
