package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/google/uuid"
)

// Static is an in-process Provider for development and tests. Payments are
// registered with Add; with AutoPay every created checkout is immediately
// paid by the requesting payer.
type Static struct {
	mu       sync.Mutex
	payments map[string]Payment
	autoPay  bool
	baseURL  string
	// Err, when set, is returned by Verify.
	Err error
}

func NewStatic(autoPay bool, baseURL string) *Static {
	return &Static{payments: make(map[string]Payment), autoPay: autoPay, baseURL: baseURL}
}

// Add registers or replaces a payment.
func (s *Static) Add(p Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.Ref] = p
}

func (s *Static) Verify(ctx context.Context, ref string) (*Payment, error) {
	s.mu.Lock()
	p, ok := s.payments[ref]
	err := s.Err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if !ok {
		return nil, fmt.Errorf("static payments: session %q: %w", ref, common.ErrNotFound)
	}
	return &p, nil
}

func (s *Static) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	id := "cs_static_" + uuid.NewString()
	s.Add(Payment{Ref: id, Paid: s.autoPay, Email: req.Email, Name: req.Name, Phone: req.Phone})
	return &CheckoutSession{ID: id, URL: s.baseURL + "/success?session_id=" + id}, nil
}

// ParseWebhook accepts an unsigned {"type": ..., "session_id": ...} body.
// The signature must equal "static".
func (s *Static) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if signature != "static" {
		return nil, ErrInvalidSignature
	}
	var body struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	return &WebhookEvent{ID: body.ID, Type: body.Type, PaymentRef: body.SessionID}, nil
}
