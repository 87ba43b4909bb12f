package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// requestLogger logs one line per request.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly requires the X-Admin-Secret header. An empty configured secret
// disables the admin surface.
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := h.opts.AdminSecret
		got := r.Header.Get("X-Admin-Secret")
		if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			h.log.Warn(r.Context(), "admin request rejected", "path", r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: common.ErrInvalidCredential.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
