package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordLogin(true)
	c.RecordLogin(false)
	c.RecordLogin(false)
	c.RecordOrder(3, 2500)
	c.RecordOrder(1, 999)
	c.RecordCheckoutFailure("validation")
	c.RecordStockSkipped(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.orders))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.orderItems))
	assert.Equal(t, 3499.0, testutil.ToFloat64(c.revenueCents))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkoutFails.WithLabelValues("validation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.stockSkipped))
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest(http.MethodGet, "/api/products", http.StatusOK, 20*time.Millisecond)
	c.RecordHTTPRequest(http.MethodGet, "/api/products", http.StatusOK, 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/products", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.httpLatency))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordStockSkipped(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "storefront_stock_skipped_total 1"))
}
