package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/config"
	"github.com/dmitrijs2005/accessportal/internal/server/notify"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageBackend = config.StorageMemory
	c.LogBackend = "slog"
	c.AdminSecret = "s3cret"
	c.TimeZone = "UTC"
	return c
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := memoryConfig()
	c.StorageBackend = "mongo"
	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "invalid config")
}

func TestNewApp_MemoryWiring(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.NotNil(t, app.limiter)
	assert.False(t, app.sweeper.Next().IsZero())

	rr := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewApp_ProdRequiresStripe(t *testing.T) {
	c := memoryConfig()
	c.Env = config.EnvProd
	c.JWTSecret = "prod-jwt"
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.ErrorContains(t, err, "stripe secret key is required in prod")

	c.JWTSecret = "secretKey"
	c.StripeSecretKey = "sk_live"
	c.StripeWebhookSecret = "whsec"
	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "default jwt secret")
}

func TestApp_ProdPaymentProvider(t *testing.T) {
	c := memoryConfig()
	c.Env = config.EnvProd
	app := &App{config: c, logger: logging.Nop{}}

	_, err := app.paymentProvider()
	assert.Error(t, err, "no static fallback in prod")

	c.StripeSecretKey = "sk_live"
	c.StripeWebhookSecret = "whsec"
	provider, err := app.paymentProvider()
	require.NoError(t, err)
	assert.IsType(t, &payments.StripeProvider{}, provider)
}

func TestApp_DefaultsWithoutProviders(t *testing.T) {
	app := &App{config: memoryConfig(), logger: logging.Nop{}}

	provider, err := app.paymentProvider()
	require.NoError(t, err)
	_, ok := provider.(*payments.Static)
	assert.True(t, ok, "static payments without a stripe key")

	d, err := app.dispatcher(nil, nil)
	require.NoError(t, err)
	assert.IsType(t, notify.Noop{}, d)

	app.config.ChatURL = "http://chat.local/send"
	d, err = app.dispatcher(nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.MultiDispatcher{}, d)
}
