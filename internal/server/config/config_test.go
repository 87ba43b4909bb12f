package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, EnvDev, c.Env)
	assert.Equal(t, StoragePostgres, c.StorageBackend)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, 90*timex.Day, c.ValidityPeriod)
	assert.Equal(t, 7*timex.Day, c.WarningWindow)
	assert.Equal(t, "0 3 * * *", c.SweepSchedule)
	assert.Equal(t, "mxn", c.Currency)
	assert.Equal(t, int64(50000), c.UnitAmount)
	assert.Equal(t, 10*time.Second, c.PaymentTimeout)
	assert.Equal(t, 10*time.Second, c.NotifyTimeout)
	assert.Equal(t, 5, c.LockoutMax)
	assert.Equal(t, 15*time.Minute, c.LockoutWindow)
	assert.Equal(t, CodeAlphanumeric, c.CodeFormat)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	stubEnv(t, map[string]string{})

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestConfig_CheckoutURLs(t *testing.T) {
	c := &Config{FrontendURL: "https://portal.example"}
	assert.Equal(t, "https://portal.example/success?session_id={CHECKOUT_SESSION_ID}", c.CheckoutSuccessURL())
	assert.Equal(t, "https://portal.example/payment", c.CheckoutCancelURL())

	c.SuccessURL = "https://x/ok"
	c.CancelURL = "https://x/no"
	assert.Equal(t, "https://x/ok", c.CheckoutSuccessURL())
	assert.Equal(t, "https://x/no", c.CheckoutCancelURL())
}

func TestConfig_Validate(t *testing.T) {
	prod := func(c *Config) {
		c.Env = EnvProd
		c.AdminSecret = "s"
		c.JWTSecret = "prod-jwt"
		c.StripeSecretKey = "sk_live"
		c.StripeWebhookSecret = "whsec"
	}
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "memory without dsn", mutate: func(c *Config) { c.StorageBackend = StorageMemory; c.DatabaseDSN = "" }, ok: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "mysql" }},
		{name: "no jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }},
		{name: "zero validity", mutate: func(c *Config) { c.ValidityPeriod = 0 }},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }},
		{name: "prod without admin secret", mutate: func(c *Config) { prod(c); c.AdminSecret = "" }},
		{name: "prod with default jwt secret", mutate: func(c *Config) { prod(c); c.JWTSecret = defaultJWTSecret }},
		{name: "prod without stripe key", mutate: func(c *Config) { prod(c); c.StripeSecretKey = "" }},
		{name: "prod without webhook secret", mutate: func(c *Config) { prod(c); c.StripeWebhookSecret = "" }},
		{name: "prod fully configured", mutate: prod, ok: true},
		{name: "numeric codes", mutate: func(c *Config) { c.CodeFormat = CodeNumeric }, ok: true},
		{name: "unknown code format", mutate: func(c *Config) { c.CodeFormat = "emoji" }},
		{name: "bad time zone", mutate: func(c *Config) { c.TimeZone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
