package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_VerifyAndCheckout(t *testing.T) {
	ctx := context.Background()
	s := NewStatic(true, "http://localhost:3000")

	_, err := s.Verify(ctx, "cs_missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	cs, err := s.CreateCheckout(ctx, CheckoutRequest{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cs.ID, "cs_static_"))
	assert.Contains(t, cs.URL, cs.ID)

	p, err := s.Verify(ctx, cs.ID)
	require.NoError(t, err)
	assert.True(t, p.Paid)
	assert.Equal(t, "ana@example.com", p.Email)

	s.Err = errors.New("gateway down")
	_, err = s.Verify(ctx, cs.ID)
	assert.EqualError(t, err, "gateway down")
}

func TestStatic_VerifyHonoursContext(t *testing.T) {
	s := NewStatic(false, "")
	s.Add(Payment{Ref: "cs_1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Verify(ctx, "cs_1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatic_ParseWebhook(t *testing.T) {
	s := NewStatic(false, "")

	ev, err := s.ParseWebhook([]byte(`{"type":"checkout.session.completed","session_id":"cs_1"}`), "static")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", ev.PaymentRef)

	_, err = s.ParseWebhook([]byte(`{}`), "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = s.ParseWebhook([]byte(`{`), "static")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
