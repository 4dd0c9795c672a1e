package httpapi

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRecorder_WriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: rr}

	recorder.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, recorder.statusCode())
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, recorder.statusCode())

	n, err := recorder.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, recorder.bytes)
}

func TestHTTPStatusBucket(t *testing.T) {
	assert.Equal(t, "1xx", httpStatusBucket(101))
	assert.Equal(t, "2xx", httpStatusBucket(204))
	assert.Equal(t, "3xx", httpStatusBucket(302))
	assert.Equal(t, "4xx", httpStatusBucket(404))
	assert.Equal(t, "5xx", httpStatusBucket(503))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/consumption", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/consumption", entry["path"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(4), entry["bytes"])
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(metrics))
	r.Get("/users/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, path := range []string{"/users/a", "/users/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/users/{userId}", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("unmatched", "4xx")))
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		page, size, total, start, end int
	}{
		{1, 50, 0, 0, 0},
		{1, 2, 5, 0, 2},
		{3, 2, 5, 4, 5},
		{4, 2, 5, 5, 5},
		{math.MaxInt, 200, 5, 5, 5},
		{math.MaxInt / 2, math.MaxInt / 2, 1, 1, 1},
	}
	for _, tc := range cases {
		start, end := pageBounds(tc.page, tc.size, tc.total)
		assert.Equal(t, tc.start, start, "page=%d size=%d total=%d", tc.page, tc.size, tc.total)
		assert.Equal(t, tc.end, end, "page=%d size=%d total=%d", tc.page, tc.size, tc.total)
	}
}
