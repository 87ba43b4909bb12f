package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Post("/admin/users/{email}/disable", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/admin/users/{email}/disable", "404"))
	for _, email := range []string{"a@x.com", "b@x.com"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/users/"+email+"/disable", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/admin/users/{email}/disable", "404"))
	assert.Equal(t, 2.0, after-before)
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(sweepAccounts.WithLabelValues("expired"))
	RecordSweep(0, 2, 1, 3, true)
	assert.Equal(t, 3.0, testutil.ToFloat64(sweepAccounts.WithLabelValues("expired"))-before)

	RecordLogin("ok")
	RecordConfirmation("new")
	RecordNotification("welcome", "email", false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(notifications.WithLabelValues("welcome", "email", "false")), 1.0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordSweep(time.Second, 0, 0, 0, true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "access_portal_sweeper_runs_total"))
}
