package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// sessionAPI is the part of the Stripe checkout-session client in use.
type sessionAPI interface {
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeConfig holds the Stripe Checkout settings.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// PriceID selects a catalog price. When empty an inline price is built
	// from ProductName, Currency and UnitAmount.
	PriceID     string
	ProductName string
	Currency    string
	UnitAmount  int64
	SuccessURL  string
	CancelURL   string
}

// StripeProvider implements Provider on Stripe Checkout.
type StripeProvider struct {
	sessions sessionAPI
	cfg      StripeConfig
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	sc := client.New(cfg.SecretKey, nil)
	return &StripeProvider{sessions: sc.CheckoutSessions, cfg: cfg}
}

// Verify retrieves the checkout session. Payer identity comes from the
// customer details Stripe collected, falling back to the metadata attached
// at checkout creation.
func (p *StripeProvider) Verify(ctx context.Context, ref string) (*Payment, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.sessions.Get(ref, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve session: %w", err)
	}
	return paymentFromSession(s), nil
}

func paymentFromSession(s *stripe.CheckoutSession) *Payment {
	pay := &Payment{
		Ref:      s.ID,
		Paid:     s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Amount:   s.AmountTotal,
		Currency: string(s.Currency),
	}
	if d := s.CustomerDetails; d != nil {
		pay.Email, pay.Name, pay.Phone = d.Email, d.Name, d.Phone
	}
	pay.Email = firstNonEmpty(pay.Email, s.CustomerEmail, s.Metadata["email"])
	pay.Name = firstNonEmpty(pay.Name, s.Metadata["name"], s.Metadata["nombre"])
	pay.Phone = firstNonEmpty(pay.Phone, s.Metadata["phone"], s.Metadata["telefono"])
	return pay
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if p.cfg.PriceID != "" {
		item.Price = stripe.String(p.cfg.PriceID)
	} else {
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(p.cfg.Currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(p.cfg.ProductName),
			},
			UnitAmount: stripe.Int64(p.cfg.UnitAmount),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  []*stripe.CheckoutSessionLineItemParams{item},
		SuccessURL: stripe.String(p.cfg.SuccessURL),
		CancelURL:  stripe.String(p.cfg.CancelURL),
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
		params.AddMetadata("email", req.Email)
	}
	if req.Name != "" {
		params.AddMetadata("name", req.Name)
	}
	if req.Phone != "" {
		params.AddMetadata("phone", req.Phone)
	}

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook authenticates the Stripe-Signature header and extracts the
// checkout session id of completed-checkout events.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if ev.Type == EventCheckoutCompleted && event.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode session: %w", err)
		}
		ev.PaymentRef = s.ID
	}
	return ev, nil
}
