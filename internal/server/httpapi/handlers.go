package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
	"github.com/dmitrijs2005/accessportal/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.HealthTimeout)
	defer cancel()

	status, store, code := "ok", "up", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn(ctx, "health: store ping failed", "error", err)
		status, store, code = "degraded", "down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"services": map[string]string{"store": store},
	})
}

func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		h.writeError(w, r, fmt.Errorf("%w: email is required", common.ErrInvalidInput))
		return
	}

	cs, err := h.svc.StartCheckout(r.Context(), payments.CheckoutRequest{Name: in.Name, Email: in.Email, Phone: in.Phone})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": cs.ID, "url": cs.URL})
}

// Webhook handles signed provider callbacks. Business rejections are
// acknowledged so the provider stops retrying; internal failures answer 500
// so it retries.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: read body: %v", common.ErrInvalidInput, err))
		return
	}

	ev, err := h.webhooks.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn(r.Context(), "webhook rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid signature"})
		return
	}

	if ev.Type != payments.EventCheckoutCompleted || ev.PaymentRef == "" {
		h.log.Debug(r.Context(), "webhook ignored", "event_id", ev.ID, "type", ev.Type)
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	c, err := h.svc.ConfirmPayment(r.Context(), ev.PaymentRef)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.writeError(w, r, err)
			return
		}
		h.log.Warn(r.Context(), "webhook confirmation rejected", "event_id", ev.ID, "payment_ref", ev.PaymentRef, "error", err)
	} else {
		h.log.Info(r.Context(), "webhook confirmed payment",
			"event_id", ev.ID, "account_id", c.Account.ID, "new_credential", c.IsNewCredential)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.svc.ConfirmPayment(r.Context(), in.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeConfirmation(w, r, c)
}

func (h *Handler) RenewAccess(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email     string `json:"email"`
		SessionID string `json:"stripe_session_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.svc.RenewAccess(r.Context(), in.Email, in.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeConfirmation(w, r, c)
}

func (h *Handler) writeConfirmation(w http.ResponseWriter, r *http.Request, c *services.Confirmation) {
	isNew := c.IsNewCredential
	if c.Superseded {
		writeJSON(w, http.StatusOK, sessionResponse{
			Success:    true,
			User:       userOf(c.Account, false),
			IsNew:      &isNew,
			Superseded: true,
		})
		return
	}

	grant, err := h.svc.IssueSession(c.Account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Token:   grant.Token,
		User:    userOf(c.Account, true),
		IsNew:   &isNew,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email      string `json:"email"`
		Code       string `json:"code"`
		AccessCode string `json:"accessCode"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	code := in.Code
	if code == "" {
		code = in.AccessCode
	}

	grant, err := h.svc.Login(r.Context(), in.Email, code, clientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Token:   grant.Token,
		User:    userOf(grant.Account, false),
	})
}

func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	delivered, err := h.svc.ResendCode(r.Context(), in.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": delivered})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acct, _, err := h.svc.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userOf(acct, false)})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	grant, err := h.svc.RefreshSession(r.Context(), bearerToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": grant.Token, "expiresAt": grant.ExpiresAt})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), bearerToken(r), clientIP(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	limit, err1 := queryInt(r, "limit")
	offset, err2 := queryInt(r, "offset")
	if err := errors.Join(err1, err2); err != nil {
		h.writeError(w, r, err)
		return
	}

	accts, err := h.svc.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	users := make([]adminAccountView, 0, len(accts))
	for _, a := range accts {
		users = append(users, adminAccountOf(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "limit": limit, "offset": offset})
}

func (h *Handler) AdminDisable(w http.ResponseWriter, r *http.Request) {
	h.adminSetStatus(w, r, h.svc.DisableAccount)
}

func (h *Handler) AdminEnable(w http.ResponseWriter, r *http.Request) {
	h.adminSetStatus(w, r, h.svc.EnableAccount)
}

func (h *Handler) adminSetStatus(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*models.Account, error)) {
	acct, err := apply(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminAccountOf(acct))
}

func (h *Handler) AdminSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeps.RunNow(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", common.ErrInvalidInput, name)
	}
	return n, nil
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// clientIP returns the host part of RemoteAddr, which middleware.RealIP
// has already resolved from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
