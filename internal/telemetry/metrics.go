// Package telemetry provides application-level observability for the evidence archive.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are served on
// the side-channel HTTP server started by main.go when running as a long-lived server:
//
//	GET http(s)://<host>:<DEA_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// In Lambda mode there is no scrape endpoint; the counters still exist but are only
// useful to tests.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Audit query lifecycle: queries started, polls by observed status, rows exported
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /cases/:caseId/audit) rather than
// the raw request URL so case and audit ids never become label values.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Audit query metrics.
//
// AuditQueriesStartedTotal{audit_type, outcome} counts StartAudit calls; outcome is
// "started" or "failed".
//
// AuditQueryPollsTotal{audit_type, status} counts result polls by the backend status
// observed, which shows how many polls a typical query needs before Complete.
//
// AuditRowsExportedTotal{audit_type} counts CSV rows rendered.
//
// Example PromQL queries:
//   - Polls per completed query: sum(rate(dea_audit_query_polls_total[1h])) / sum(rate(dea_audit_query_polls_total{status="Complete"}[1h]))
//   - Failed starts:             sum by (audit_type) (increase(dea_audit_queries_started_total{outcome="failed"}[1h]))
var (
	AuditQueriesStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dea_audit_queries_started_total",
			Help: "Total number of audit queries requested, by audit type and outcome.",
		},
		[]string{"audit_type", "outcome"},
	)

	AuditQueryPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dea_audit_query_polls_total",
			Help: "Total number of audit result polls, by audit type and observed query status.",
		},
		[]string{"audit_type", "status"},
	)

	AuditRowsExportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dea_audit_rows_exported_total",
			Help: "Total number of audit CSV rows rendered, by audit type.",
		},
		[]string{"audit_type"},
	)
)

// AuditEventsRecordedTotal{event_type, result} counts audit events written by the recorder.
var AuditEventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dea_audit_events_recorded_total",
		Help: "Total number of audit events written to the audit log, by event type and result.",
	},
	[]string{"event_type", "result"},
)
