// Package server initializes and runs the access portal: storage, payment
// provider, notification channels, the expiration sweeper and the HTTP API,
// with graceful shutdown on SIGINT and SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/dmitrijs2005/accessportal/internal/server/auth"
	"github.com/dmitrijs2005/accessportal/internal/server/config"
	"github.com/dmitrijs2005/accessportal/internal/server/httpapi"
	"github.com/dmitrijs2005/accessportal/internal/server/notify"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
	"github.com/dmitrijs2005/accessportal/internal/server/reports"
	"github.com/dmitrijs2005/accessportal/internal/server/services"
	"github.com/dmitrijs2005/accessportal/internal/server/storage"
	"github.com/dmitrijs2005/accessportal/internal/server/sweeper"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   storage.Store
	service *services.AccessService
	sweeper *sweeper.Sweeper
	limiter *httpapi.RateLimiter
	server  *http.Server
	closers []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(c.LogBackend, !c.IsProd())
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	store, err := storage.Open(ctx, c.StorageBackend, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	app.store = store
	app.closers = append(app.closers, store)

	denylist, lockout, err := app.sessionStores(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	provider, err := app.paymentProvider()
	if err != nil {
		app.close()
		return nil, err
	}

	dispatcher, err := app.dispatcher(store, loc)
	if err != nil {
		app.close()
		return nil, err
	}

	app.service = services.NewAccessService(store, provider, dispatcher, denylist, lockout, c, logger)

	archive, err := app.archive(ctx)
	if err != nil {
		app.close()
		return nil, err
	}
	app.sweeper, err = sweeper.New(app.service, archive, c.SweepSchedule, loc, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("sweeper init error: %w", err)
	}

	if c.RateLimitRPS > 0 {
		app.limiter = httpapi.NewRateLimiter(c.RateLimitRPS, c.RateLimitBurst, logger)
	}
	h := httpapi.NewHandler(app.service, provider, app.sweeper, store, httpapi.Options{
		ExposeErrorDetail: !c.IsProd(),
		AdminSecret:       c.AdminSecret,
	}, logger)
	app.server = &http.Server{
		Addr:              c.HTTPAddr,
		Handler:           httpapi.NewRouter(h, httpapi.RouterOptions{AllowedOrigins: c.AllowedOrigins, Limiter: app.limiter}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return app, nil
}

// sessionStores picks Redis for the denylist and lockout when configured so
// that replicas share them.
func (app *App) sessionStores(ctx context.Context) (auth.Denylist, auth.Lockout, error) {
	c := app.config
	if c.RedisAddr == "" {
		app.logger.Warn(ctx, "redis not configured, session state is process-local")
		return auth.NewMemoryDenylist(), auth.NewMemoryLockout(c.LockoutMax, c.LockoutWindow), nil
	}
	client, err := auth.NewRedisClient(ctx, auth.RedisConfig{Addr: c.RedisAddr})
	if err != nil {
		return nil, nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, client)
	return auth.NewRedisDenylist(client, ""), auth.NewRedisLockout(client, "", c.LockoutMax, c.LockoutWindow), nil
}

// paymentProvider falls back to auto-approving static payments only outside
// prod.
func (app *App) paymentProvider() (payments.Provider, error) {
	c := app.config
	if c.StripeSecretKey == "" {
		if c.IsProd() {
			return nil, errors.New("stripe secret key is required in prod")
		}
		app.logger.Warn(context.Background(), "stripe not configured, using static payments with automatic approval")
		return payments.NewStatic(true, c.FrontendURL), nil
	}
	return payments.NewStripeProvider(payments.StripeConfig{
		SecretKey:     c.StripeSecretKey,
		WebhookSecret: c.StripeWebhookSecret,
		PriceID:       c.StripePriceID,
		ProductName:   c.ProductName,
		Currency:      c.Currency,
		UnitAmount:    c.UnitAmount,
		SuccessURL:    c.CheckoutSuccessURL(),
		CancelURL:     c.CheckoutCancelURL(),
	}), nil
}

func (app *App) dispatcher(store storage.Store, loc *time.Location) (notify.Dispatcher, error) {
	c := app.config
	var channels []notify.Channel
	if c.SMTPHost != "" {
		channels = append(channels, notify.NewEmailChannel(notify.EmailConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
			FromName: c.ProductName,
		}))
	}
	if c.ChatURL != "" {
		channels = append(channels, notify.NewChatChannel(c.ChatURL, c.ChatToken, &http.Client{Timeout: c.NotifyTimeout}))
	}
	if len(channels) == 0 {
		app.logger.Warn(context.Background(), "no notification channel configured")
		return notify.Noop{}, nil
	}

	tmpl, err := notify.NewTemplates(c.ProductName, c.FrontendURL+"/login", loc)
	if err != nil {
		return nil, fmt.Errorf("templates init error: %w", err)
	}
	return notify.NewMultiDispatcher(store, tmpl, c.NotifyTimeout, app.logger, channels...), nil
}

func (app *App) archive(ctx context.Context) (reports.Archive, error) {
	c := app.config
	if c.S3Bucket == "" {
		return reports.Noop{}, nil
	}
	a, err := reports.NewS3Archive(ctx, reports.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("report archive init error: %w", err)
	}
	return a, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.server.Addr)
	if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Env, "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	app.sweeper.Start(ctx)

	if app.limiter != nil {
		app.limiter.StartCleanup(time.Minute, ctx.Done())
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.sweeper.Stop(sctx); err != nil {
		app.logger.Warn(sctx, "sweeper stop", "error", err)
	}
	app.close()
	app.logger.Info(sctx, "App stopped")
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close", "error", err)
		}
	}
	app.closers = nil
}
