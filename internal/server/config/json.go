package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/flagx"
	"github.com/dmitrijs2005/accessportal/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// use timex.Duration so both "15m"/"90d" strings and integer nanoseconds are
// accepted. Only keys present in the file override the current values.
type JsonConfig struct {
	HTTPAddr       string `json:"http_addr"`
	Env            string `json:"env"`
	LogBackend     string `json:"log_backend"`
	StorageBackend string `json:"storage_backend"`
	DatabaseDSN    string `json:"database_dsn"`

	JWTSecret      string          `json:"jwt_secret"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	ValidityPeriod *timex.Duration `json:"validity_period"`
	WarningWindow  *timex.Duration `json:"warning_window"`
	SweepSchedule  string          `json:"sweep_schedule"`
	TimeZone       string          `json:"time_zone"`
	CodeFormat     string          `json:"code_format"`

	StripeSecretKey     string          `json:"stripe_secret_key"`
	StripeWebhookSecret string          `json:"stripe_webhook_secret"`
	StripePriceID       string          `json:"stripe_price_id"`
	ProductName         string          `json:"product_name"`
	Currency            string          `json:"currency"`
	UnitAmount          *int64          `json:"unit_amount"`
	FrontendURL         string          `json:"frontend_url"`
	SuccessURL          string          `json:"success_url"`
	CancelURL           string          `json:"cancel_url"`
	PaymentTimeout      *timex.Duration `json:"payment_timeout"`

	SMTPHost      string          `json:"smtp_host"`
	SMTPPort      *int            `json:"smtp_port"`
	SMTPUser      string          `json:"smtp_user"`
	SMTPPassword  string          `json:"smtp_password"`
	SMTPFrom      string          `json:"smtp_from"`
	ChatURL       string          `json:"chat_url"`
	ChatToken     string          `json:"chat_token"`
	NotifyTimeout *timex.Duration `json:"notify_timeout"`

	AllowedOrigins []string        `json:"allowed_origins"`
	AdminSecret    string          `json:"admin_secret"`
	RedisAddr      string          `json:"redis_addr"`
	RateLimitRPS   *float64        `json:"rate_limit_rps"`
	RateLimitBurst *int            `json:"rate_limit_burst"`
	LockoutMax     *int            `json:"lockout_max"`
	LockoutWindow  *timex.Duration `json:"lockout_window"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. An
// unreadable file or invalid JSON panics, as a broken config must stop
// startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.Env, c.Env)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	setString(&config.JWTSecret, c.JWTSecret)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.ValidityPeriod, c.ValidityPeriod)
	setDuration(&config.WarningWindow, c.WarningWindow)
	setString(&config.SweepSchedule, c.SweepSchedule)
	setString(&config.TimeZone, c.TimeZone)
	setString(&config.CodeFormat, c.CodeFormat)

	setString(&config.StripeSecretKey, c.StripeSecretKey)
	setString(&config.StripeWebhookSecret, c.StripeWebhookSecret)
	setString(&config.StripePriceID, c.StripePriceID)
	setString(&config.ProductName, c.ProductName)
	setString(&config.Currency, c.Currency)
	setValue(&config.UnitAmount, c.UnitAmount)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.SuccessURL, c.SuccessURL)
	setString(&config.CancelURL, c.CancelURL)
	setDuration(&config.PaymentTimeout, c.PaymentTimeout)

	setString(&config.SMTPHost, c.SMTPHost)
	setValue(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.ChatURL, c.ChatURL)
	setString(&config.ChatToken, c.ChatToken)
	setDuration(&config.NotifyTimeout, c.NotifyTimeout)

	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.AdminSecret, c.AdminSecret)
	setString(&config.RedisAddr, c.RedisAddr)
	setValue(&config.RateLimitRPS, c.RateLimitRPS)
	setValue(&config.RateLimitBurst, c.RateLimitBurst)
	setValue(&config.LockoutMax, c.LockoutMax)
	setDuration(&config.LockoutWindow, c.LockoutWindow)

	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
