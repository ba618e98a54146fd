package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStatement(t *testing.T) {
	m := New()

	m.ObserveStatement("insert", 3*time.Millisecond, nil)
	m.ObserveStatement("insert", time.Millisecond, nil)
	m.ObserveStatement("select", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeOps.WithLabelValues("insert", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("select", "false")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.storeOps.WithLabelValues("select", "true")))
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}), "/app_package")

	req := httptest.NewRequest(http.MethodPut, "/app_package/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("PUT", "/app_package", "422")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestMiddleware_DefaultStatusOK(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}), "/app_package")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app_package?id=1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/app_package", "200")))
}

func TestMiddleware_SkipsMetricsPath(t *testing.T) {
	m := New()
	h := m.Middleware(m.Handler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, 0, testutil.CollectAndCount(m.httpRequests))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveStatement("update", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "toolserve_store_operations_total"))
	assert.True(t, strings.Contains(body, "toolserve_store_operation_duration_seconds"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.ObserveStatement("insert", time.Millisecond, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.storeOps.WithLabelValues("insert", "true")))
}

func TestMiddleware_UnknownPathsShareOneSeries(t *testing.T) {
	m := New()
	h := m.Middleware(http.NotFoundHandler(), "/app_package", "/healthz")

	for _, path := range []string{"/a1", "/a2", "/app_package/1/x", "/"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.httpRequests))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", OtherLabel, "404")))
}

func TestMiddleware_UnknownMethodsShareOneSeries(t *testing.T) {
	m := New()
	h := m.Middleware(http.NotFoundHandler(), "/app_package")

	for _, method := range []string{"FOO", "BAR", "get"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/app_package", nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(OtherLabel, "/app_package", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/app_package", "404")))
}

func TestRouteKey(t *testing.T) {
	tests := map[string]string{
		"":              "/",
		"/":             "/",
		"/app_package":  "/app_package",
		"/app_package/": "/app_package",
		"/healthz//":    "/healthz",
	}
	for in, want := range tests {
		assert.Equal(t, want, routeKey(in), in)
	}
}
