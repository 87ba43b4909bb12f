package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/timex"
	"github.com/joho/godotenv"
)

// Test seams.
var (
	loadDotEnv = func() error { return godotenv.Load() }
	lookupEnv  = os.LookupEnv
)

type envBinding struct {
	// names are tried in order; the first one set wins.
	names []string
	set   func(string) error
}

func stringVar(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func durationVar(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func envBindings(c *Config) []envBinding {
	return []envBinding{
		{[]string{"PORT"}, func(v string) error { c.HTTPAddr = ":" + v; return nil }},
		{[]string{"PORTAL_HTTP_ADDR"}, stringVar(&c.HTTPAddr)},
		{[]string{"PORTAL_ENV"}, stringVar(&c.Env)},
		{[]string{"PORTAL_LOG_BACKEND"}, stringVar(&c.LogBackend)},
		{[]string{"PORTAL_STORAGE_BACKEND"}, stringVar(&c.StorageBackend)},
		{[]string{"PORTAL_DATABASE_DSN", "DATABASE_URL"}, stringVar(&c.DatabaseDSN)},

		{[]string{"PORTAL_JWT_SECRET", "JWT_SECRET"}, stringVar(&c.JWTSecret)},
		{[]string{"PORTAL_SESSION_TTL"}, durationVar(&c.SessionTTL)},
		{[]string{"PORTAL_VALIDITY_PERIOD"}, durationVar(&c.ValidityPeriod)},
		{[]string{"PORTAL_WARNING_WINDOW"}, durationVar(&c.WarningWindow)},
		{[]string{"PORTAL_SWEEP_SCHEDULE"}, stringVar(&c.SweepSchedule)},
		{[]string{"PORTAL_TIME_ZONE", "TZ"}, stringVar(&c.TimeZone)},
		{[]string{"PORTAL_CODE_FORMAT"}, stringVar(&c.CodeFormat)},

		{[]string{"STRIPE_SECRET_KEY"}, stringVar(&c.StripeSecretKey)},
		{[]string{"STRIPE_WEBHOOK_SECRET"}, stringVar(&c.StripeWebhookSecret)},
		{[]string{"STRIPE_PRICE_ID"}, stringVar(&c.StripePriceID)},
		{[]string{"PORTAL_PRODUCT_NAME"}, stringVar(&c.ProductName)},
		{[]string{"PORTAL_CURRENCY"}, stringVar(&c.Currency)},
		{[]string{"PORTAL_UNIT_AMOUNT"}, func(v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			c.UnitAmount = n
			return nil
		}},
		{[]string{"FRONTEND_URL"}, stringVar(&c.FrontendURL)},
		{[]string{"PORTAL_SUCCESS_URL"}, stringVar(&c.SuccessURL)},
		{[]string{"PORTAL_CANCEL_URL"}, stringVar(&c.CancelURL)},
		{[]string{"PORTAL_PAYMENT_TIMEOUT"}, durationVar(&c.PaymentTimeout)},

		{[]string{"PORTAL_SMTP_HOST"}, stringVar(&c.SMTPHost)},
		{[]string{"PORTAL_SMTP_PORT"}, intVar(&c.SMTPPort)},
		{[]string{"PORTAL_SMTP_USER"}, stringVar(&c.SMTPUser)},
		{[]string{"PORTAL_SMTP_PASSWORD"}, stringVar(&c.SMTPPassword)},
		{[]string{"PORTAL_SMTP_FROM"}, stringVar(&c.SMTPFrom)},
		{[]string{"PORTAL_CHAT_URL"}, stringVar(&c.ChatURL)},
		{[]string{"PORTAL_CHAT_TOKEN"}, stringVar(&c.ChatToken)},
		{[]string{"PORTAL_NOTIFY_TIMEOUT"}, durationVar(&c.NotifyTimeout)},

		{[]string{"PORTAL_ALLOWED_ORIGINS"}, func(v string) error {
			c.AllowedOrigins = splitList(v)
			return nil
		}},
		{[]string{"PORTAL_ADMIN_SECRET", "ADMIN_SECRET"}, stringVar(&c.AdminSecret)},
		{[]string{"PORTAL_REDIS_ADDR"}, stringVar(&c.RedisAddr)},
		{[]string{"PORTAL_RATE_LIMIT_RPS"}, func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			c.RateLimitRPS = f
			return nil
		}},
		{[]string{"PORTAL_RATE_LIMIT_BURST"}, intVar(&c.RateLimitBurst)},
		{[]string{"PORTAL_LOCKOUT_MAX"}, intVar(&c.LockoutMax)},
		{[]string{"PORTAL_LOCKOUT_WINDOW"}, durationVar(&c.LockoutWindow)},

		{[]string{"PORTAL_S3_ACCESS_KEY"}, stringVar(&c.S3AccessKey)},
		{[]string{"PORTAL_S3_SECRET_KEY"}, stringVar(&c.S3SecretKey)},
		{[]string{"PORTAL_S3_BUCKET"}, stringVar(&c.S3Bucket)},
		{[]string{"PORTAL_S3_REGION"}, stringVar(&c.S3Region)},
		{[]string{"PORTAL_S3_BASE_ENDPOINT"}, stringVar(&c.S3BaseEndpoint)},
	}
}

// parseEnv loads an optional .env file into the process environment and then
// overlays every recognised variable onto config. A missing .env is fine; an
// unparsable value panics.
func parseEnv(config *Config) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load .env: %w", err))
	}

	for _, b := range envBindings(config) {
		for _, name := range b.names {
			v, ok := lookupEnv(name)
			if !ok || v == "" {
				continue
			}
			if err := b.set(v); err != nil {
				panic(fmt.Errorf("env %s: %w", name, err))
			}
			break
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
