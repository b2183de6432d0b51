package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
)

func routeLabels(t *testing.T, c prometheus.MetricsCollector, family string) map[string]float64 {
	t.Helper()
	mfs, err := c.Gatherer().Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			var route, status string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "status_code":
					status = lp.GetValue()
				}
			}
			out[route+" "+status] = m.GetCounter().GetValue()
		}
	}
	return out
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "mw"}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewNMRMetrics(c)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+id, nil))
	}

	got := routeLabels(t, c, "mw_http_requests_total")
	assert.Equal(t, map[string]float64{"/api/v1/analyses/{id} 404": 2}, got)
}

func TestMetrics_NilMetrics(t *testing.T) {
	h := Metrics(nil)(statusHandler(http.StatusOK))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutePattern_NoRouteContext(t *testing.T) {
	assert.Equal(t, unmatchedRoute, routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)))
}

//Personal.AI order the ending
