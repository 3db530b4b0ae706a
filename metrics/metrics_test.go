package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNopMetrics(t *testing.T) {
	m := NewNop()
	require.NotPanics(t, func() {
		m.RecordMatchRun(ResultSuccess, 5)
		m.ObserveShuffleTrials(3)
		m.ObserveHTTPRequest(http.MethodGet, "/", 200, 0.1)
	})
}

func TestPrometheusCollectorRecordsMatchRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordMatchRun(ResultSuccess, 4)
	p.RecordMatchRun(ResultSuccess, 6)
	p.RecordMatchRun(ResultAlreadyMatched, 4)
	p.ObserveShuffleTrials(2)

	require.Equal(t, 2.0, testutil.ToFloat64(p.matchRuns.WithLabelValues(ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.matchRuns.WithLabelValues(ResultAlreadyMatched)))
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

type recordingCollector struct {
	NopMetrics
	routes   []string
	statuses []int
}

func (r *recordingCollector) ObserveHTTPRequest(_, route string, status int, _ float64) {
	r.routes = append(r.routes, route)
	r.statuses = append(r.statuses, status)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	rec := &recordingCollector{}
	r := chi.NewRouter()
	r.Use(Middleware(rec))
	r.Get("/occasions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/occasions/abc", nil))

	require.Equal(t, []string{"/occasions/{id}"}, rec.routes)
	require.Equal(t, []int{http.StatusTeapot}, rec.statuses)
}
