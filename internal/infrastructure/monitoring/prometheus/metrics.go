package prometheus

import (
	"strconv"
	"time"
)

// Analysis outcome label values.
const (
	StatusOK       = "ok"
	StatusCached   = "cached"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// NMRMetrics holds every metric the checker exports.
type NMRMetrics struct {
	// Analysis
	AnalysesTotal         CounterVec
	AnalysisDuration      HistogramVec
	SignalsParsed         HistogramVec
	ImpuritiesFlagged     CounterVec
	ValidationIssuesTotal CounterVec

	// Infrastructure
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	SideEffectErrors CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultAnalysisDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultSignalCountBuckets      = []float64{0, 1, 2, 5, 10, 20, 50, 100}
)

// NewNMRMetrics registers all metrics on collector.
func NewNMRMetrics(collector MetricsCollector) *NMRMetrics {
	return &NMRMetrics{
		AnalysesTotal:         collector.RegisterCounter("analyses_total", "Analyses by outcome", "status"),
		AnalysisDuration:      collector.RegisterHistogram("analysis_duration_seconds", "Pipeline run time", DefaultAnalysisDurationBuckets),
		SignalsParsed:         collector.RegisterHistogram("signals_parsed", "Signal entries found per report", DefaultSignalCountBuckets),
		ImpuritiesFlagged:     collector.RegisterCounter("impurities_flagged_total", "Entries classified as impurities", "solvent"),
		ValidationIssuesTotal: collector.RegisterCounter("validation_issues_total", "Format validator issues reported"),

		CacheHitsTotal:   collector.RegisterCounter("cache_hits_total", "Cache hits", "cache"),
		CacheMissesTotal: collector.RegisterCounter("cache_misses_total", "Cache misses", "cache"),
		SideEffectErrors: collector.RegisterCounter("side_effect_errors_total", "Failed history, archive or event writes", "component"),

		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests"),

		GRPCRequestsTotal:   collector.RegisterCounter("grpc_requests_total", "Total gRPC calls", "service", "method", "code"),
		GRPCRequestDuration: collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC call duration", DefaultHTTPDurationBuckets, "service", "method"),
	}
}

// Helpers. All of them accept a nil *NMRMetrics.

// RecordAnalysis records one completed pipeline run.
func RecordAnalysis(m *NMRMetrics, solvent string, entries, impurities, issues int, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(StatusOK).Inc()
	m.AnalysisDuration.WithLabelValues().Observe(d.Seconds())
	m.SignalsParsed.WithLabelValues().Observe(float64(entries))
	if impurities > 0 {
		if solvent == "" {
			solvent = "unknown"
		}
		m.ImpuritiesFlagged.WithLabelValues(solvent).Add(float64(impurities))
	}
	if issues > 0 {
		m.ValidationIssuesTotal.WithLabelValues().Add(float64(issues))
	}
}

// RecordAnalysisStatus counts an analysis that did not run the pipeline.
func RecordAnalysisStatus(m *NMRMetrics, status string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(status).Inc()
}

// RecordCacheAccess counts a hit or a miss on cache.
func RecordCacheAccess(m *NMRMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordSideEffectError counts a failed write to an optional adapter.
func RecordSideEffectError(m *NMRMetrics, component string) {
	if m == nil {
		return
	}
	m.SideEffectErrors.WithLabelValues(component).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(m *NMRMetrics, method, route string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGRPCRequest records one finished unary call or stream.
func RecordGRPCRequest(m *NMRMetrics, service, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(d.Seconds())
}

//Personal.AI order the ending
