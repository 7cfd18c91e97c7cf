package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics shared by the whole API surface.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Domain counters for the authorization/session/2FA/audit core.
var (
	authzDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denials_total",
			Help: "Authorization denials by permission.",
		},
		[]string{"permission"},
	)

	sessionPreemptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_preemptions_total",
		Help: "Sessions terminated because a newer login for the same user was observed.",
	})

	twoFactorChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twofactor_checks_total",
			Help: "Two-factor code verifications by outcome.",
		},
		[]string{"outcome"},
	)

	auditAppendsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_appends_total",
		Help: "Audit entries appended.",
	})

	auditDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_drops_total",
		Help: "Audit entries dropped because the backing store was unavailable.",
	})

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service considers itself ready.",
	})
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		authzDenialsTotal, sessionPreemptionsTotal, twoFactorChecksTotal,
		auditAppendsTotal, auditDropsTotal, ready,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady flips the readiness gauge.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

// CountAuthzDenial records a denied permission check.
func CountAuthzDenial(permission string) {
	authzDenialsTotal.WithLabelValues(permission).Inc()
}

// CountSessionPreemption records one preempted session.
func CountSessionPreemption() { sessionPreemptionsTotal.Inc() }

// CountTwoFactorCheck records a verification outcome ("ok" or "fail").
func CountTwoFactorCheck(outcome string) {
	twoFactorChecksTotal.WithLabelValues(outcome).Inc()
}

// CountAuditAppend records a persisted audit entry.
func CountAuditAppend() { auditAppendsTotal.Inc() }

// CountAuditDrop records a swallowed audit write failure.
func CountAuditDrop() { auditDropsTotal.Inc() }

// CanonicalPath reduces a request path to a low-cardinality metrics label.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	// Admin pages nest arbitrarily deep; collapse them per section.
	if strings.HasPrefix(path, "/admin/") {
		parts := strings.SplitN(path[len("/admin/"):], "/", 2)
		if len(parts) == 2 {
			return "/admin/" + parts[0] + "/*"
		}
	}
	return path
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for metrics labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
