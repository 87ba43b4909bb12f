package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

type fakeSessions struct {
	session   *stripe.CheckoutSession
	err       error
	gotID     string
	gotParams *stripe.CheckoutSessionParams
}

func (f *fakeSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.gotID, f.gotParams = id, params
	return f.session, f.err
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.gotParams = params
	return f.session, f.err
}

func newTestProvider(f *fakeSessions, cfg StripeConfig) *StripeProvider {
	return &StripeProvider{sessions: f, cfg: cfg}
}

func TestStripeVerify_Paid(t *testing.T) {
	f := &fakeSessions{session: &stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   50000,
		Currency:      stripe.CurrencyMXN,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "ana@example.com", Name: "Ana", Phone: "+5215512345678",
		},
	}}
	p := newTestProvider(f, StripeConfig{})

	ctx := context.Background()
	got, err := p.Verify(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", f.gotID)
	assert.Equal(t, ctx, f.gotParams.Context)
	assert.Equal(t, &Payment{Ref: "cs_1", Paid: true, Email: "ana@example.com", Name: "Ana",
		Phone: "+5215512345678", Amount: 50000, Currency: "mxn"}, got)
}

func TestStripeVerify_MetadataFallback(t *testing.T) {
	f := &fakeSessions{session: &stripe.CheckoutSession{
		ID:            "cs_2",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      map[string]string{"nombre": "Luis", "email": "luis@example.com", "telefono": "5512345678"},
	}}

	got, err := newTestProvider(f, StripeConfig{}).Verify(context.Background(), "cs_2")
	require.NoError(t, err)
	assert.False(t, got.Paid)
	assert.Equal(t, "luis@example.com", got.Email)
	assert.Equal(t, "Luis", got.Name)
	assert.Equal(t, "5512345678", got.Phone)
}

func TestStripeVerify_Error(t *testing.T) {
	f := &fakeSessions{err: errors.New("no such checkout.session")}

	_, err := newTestProvider(f, StripeConfig{}).Verify(context.Background(), "cs_x")
	assert.ErrorContains(t, err, "no such checkout.session")
}

func TestStripeCreateCheckout_InlinePrice(t *testing.T) {
	f := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new"}}
	p := newTestProvider(f, StripeConfig{
		ProductName: "Acceso", Currency: "mxn", UnitAmount: 50000,
		SuccessURL: "https://portal/success", CancelURL: "https://portal/payment",
	})

	got, err := p.CreateCheckout(context.Background(), CheckoutRequest{Name: "Ana", Email: "ana@example.com", Phone: "+52"})
	require.NoError(t, err)
	assert.Equal(t, &CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new"}, got)

	params := f.gotParams
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Nil(t, item.Price)
	require.NotNil(t, item.PriceData)
	assert.Equal(t, int64(50000), *item.PriceData.UnitAmount)
	assert.Equal(t, "mxn", *item.PriceData.Currency)
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "ana@example.com", *params.CustomerEmail)
	assert.Equal(t, "Ana", params.Metadata["name"])
	assert.Equal(t, "+52", params.Metadata["phone"])
	assert.True(t, *params.PhoneNumberCollection.Enabled)
}

func TestStripeCreateCheckout_CatalogPrice(t *testing.T) {
	f := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_new"}}
	p := newTestProvider(f, StripeConfig{PriceID: "price_123"})

	_, err := p.CreateCheckout(context.Background(), CheckoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "price_123", *f.gotParams.LineItems[0].Price)
	assert.Nil(t, f.gotParams.LineItems[0].PriceData)
	assert.Nil(t, f.gotParams.CustomerEmail)
}

func signPayload(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeParseWebhook(t *testing.T) {
	const secret = "whsec_test"
	p := newTestProvider(&fakeSessions{}, StripeConfig{WebhookSecret: secret})

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed",` +
		`"data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"paid"}}}`)

	t.Run("valid", func(t *testing.T) {
		ev, err := p.ParseWebhook(payload, signPayload(secret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, &WebhookEvent{ID: "evt_1", Type: EventCheckoutCompleted, PaymentRef: "cs_1"}, ev)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := p.ParseWebhook(payload, signPayload("whsec_other", payload, time.Now()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := p.ParseWebhook(payload, signPayload(secret, payload, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("other event type", func(t *testing.T) {
		other := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
		ev, err := p.ParseWebhook(other, signPayload(secret, other, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "charge.refunded", ev.Type)
		assert.Empty(t, ev.PaymentRef)
	})
}
