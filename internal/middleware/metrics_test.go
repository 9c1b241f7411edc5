package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/digital-evidence-archive/dea-backend/internal/telemetry"
)

const auditCSVRoute = "/cases/:caseId/audit/:auditId/csv"

func newMetricsRouter(status int) *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET(auditCSVRoute, func(c *gin.Context) { c.Status(status) })
	return r
}

func serveMetrics(r *gin.Engine, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

// ---------------------------------------------------------------------------
// MetricsMiddleware
// ---------------------------------------------------------------------------

func TestMetricsMiddleware_CountsByRouteTemplate(t *testing.T) {
	counter := telemetry.HTTPRequestsTotal.WithLabelValues("GET", auditCSVRoute, "200")
	before := testutil.ToFloat64(counter)

	r := newMetricsRouter(http.StatusOK)
	serveMetrics(r, "/cases/01HV0000000000000000000001/audit/01HV0000000000000000000002/csv")
	serveMetrics(r, "/cases/01HV0000000000000000000003/audit/01HV0000000000000000000004/csv")

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("http_requests_total delta = %v, want 2", got)
	}
}

func TestMetricsMiddleware_RecordsErrorStatus(t *testing.T) {
	counter := telemetry.HTTPRequestsTotal.WithLabelValues("GET", auditCSVRoute, "500")
	before := testutil.ToFloat64(counter)

	serveMetrics(newMetricsRouter(http.StatusInternalServerError), "/cases/a/audit/b/csv")

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("http_requests_total{status=500} delta = %v, want 1", got)
	}
}

func TestMetricsMiddleware_NoRouteLabel(t *testing.T) {
	counter := telemetry.HTTPRequestsTotal.WithLabelValues("GET", "<no-route>", "404")
	before := testutil.ToFloat64(counter)

	r := gin.New()
	r.Use(MetricsMiddleware())
	serveMetrics(r, "/does-not-exist")

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("http_requests_total{path=<no-route>} delta = %v, want 1", got)
	}
}

// histogramSamples returns the observation count of the HTTPRequestDuration series
// for method and path, or 0 when the series does not exist yet.
func histogramSamples(t *testing.T, method, path string) uint64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 256)
	telemetry.HTTPRequestDuration.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		labels := map[string]string{}
		for _, lp := range dm.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		if labels["method"] == method && labels["path"] == path {
			return dm.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestMetricsMiddleware_ObservesDuration(t *testing.T) {
	before := histogramSamples(t, http.MethodGet, auditCSVRoute)

	serveMetrics(newMetricsRouter(http.StatusOK), "/cases/x/audit/y/csv")

	if got := histogramSamples(t, http.MethodGet, auditCSVRoute) - before; got != 1 {
		t.Errorf("duration samples for %s = %d, want 1", auditCSVRoute, got)
	}
}
