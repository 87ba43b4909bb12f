package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/accessportal/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the middleware stack around the handlers.
type RouterOptions struct {
	AllowedOrigins []string
	// Limiter is optional.
	Limiter *RateLimiter
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(h *Handler, ro RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ro.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Secret", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(limitBody)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Webhooks are signed and retried by the provider, so they skip the
	// client rate limit.
	r.Post("/webhook", h.Webhook)
	r.Post("/webhook/stripe", h.Webhook)

	r.Group(func(r chi.Router) {
		if ro.Limiter != nil {
			r.Use(ro.Limiter.Handler)
		}

		r.Post("/create-checkout", h.CreateCheckout)
		r.Post("/create-checkout-session", h.CreateCheckout)
		r.Post("/verify-payment", h.VerifyPayment)
		r.Post("/renew-access", h.RenewAccess)
		r.Post("/login", h.Login)
		r.Post("/resend-code", h.ResendCode)
		r.Post("/resend-notification", h.ResendCode)

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/login-code", h.Login)
			r.Get("/me", h.Me)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.adminOnly)
			r.Get("/stats", h.AdminStats)
			r.Get("/users", h.AdminUsers)
			r.Post("/users/{email}/disable", h.AdminDisable)
			r.Post("/users/{email}/enable", h.AdminEnable)
			r.Post("/sweep", h.AdminSweep)
		})
	})

	return r
}
