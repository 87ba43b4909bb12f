package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/accessportal/internal/common"
)

type errorClass struct {
	err    error
	status int
}

var errorClasses = []errorClass{
	{common.ErrInvalidInput, http.StatusBadRequest},
	{common.ErrDuplicateIdentity, http.StatusBadRequest},
	{common.ErrPaymentNotCompleted, http.StatusBadRequest},
	{common.ErrInvalidCredential, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenRevoked, http.StatusUnauthorized},
	{common.ErrAccountExpired, http.StatusForbidden},
	{common.ErrAccountDisabled, http.StatusForbidden},
	{common.ErrNotFound, http.StatusNotFound},
	{common.ErrLockedOut, http.StatusTooManyRequests},
	{common.ErrPaymentUnverified, http.StatusBadGateway},
}

// classify maps err to a status code and the sentinel it matched.
func classify(err error) (int, error) {
	for _, c := range errorClasses {
		if errors.Is(err, c.err) {
			return c.status, c.err
		}
	}
	return http.StatusInternalServerError, common.ErrInternal
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	status, _ := classify(err)
	return status
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// writeError renders err. Only the matched sentinel's text reaches the
// client unless detail exposure is on.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, public := classify(err)
	body := errorBody{Error: public.Error()}
	if h.opts.ExposeErrorDetail {
		body.Detail = err.Error()
	}

	ctx := r.Context()
	switch {
	case status >= http.StatusInternalServerError:
		h.log.Error(ctx, "request failed", "path", r.URL.Path, "status", status, "error", err)
	case errors.Is(err, context.Canceled):
	default:
		h.log.Debug(ctx, "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}
