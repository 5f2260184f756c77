package middleware

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/eventroutes/pkg/authmw"
	"github.com/vango-dev/eventroutes/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "eventroutes").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "eventroutes",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Metrics holds the navigation metrics. A nil *Metrics records nothing.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
	resolutionsTotal   *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// NewMetrics registers the navigation metrics with the configured registry.
// Registering twice with the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigation transitions by target route, kind and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "kind", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Time spent in the navigation middleware chain in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of rejected navigations by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "error_type"}),

		resolutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolutions_total",
			Help:        "Total number of path resolutions by matched route and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket navigation sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Middleware returns navigation middleware recording m.
func (m *Metrics) Middleware() router.Middleware {
	if m == nil {
		return passThrough
	}
	return router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
		route := routeLabel(t.To)
		kind := t.Kind.String()

		start := time.Now()
		err := next()
		m.navigationDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		status := "success"
		var redirect *router.RedirectError
		switch {
		case err == nil && t.Admitted():
		case err == nil:
			status = "aborted"
		case errors.As(err, &redirect):
			status = "redirect"
		default:
			status = "error"
			m.navigationErrors.WithLabelValues(route, categorizeError(err)).Inc()
		}
		m.navigationsTotal.WithLabelValues(route, kind, status).Inc()

		return err
	})
}

// RecordResolve records the outcome of resolving a path outside navigation,
// such as an HTTP request for the SPA shell.
func (m *Metrics) RecordResolve(r *router.Resolved, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = categorizeError(err)
	}
	m.resolutionsTotal.WithLabelValues(routeLabel(r), status).Inc()
}

// SessionOpened records a new navigation session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// SessionClosed records the end of a navigation session.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// globalMetrics is the singleton used by Prometheus.
var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

// Prometheus creates navigation middleware backed by a process-wide metrics
// instance, created on first call.
//
// Metrics collected:
//   - eventroutes_navigations_total: transitions by route, kind and status
//   - eventroutes_navigation_duration_seconds: middleware chain duration
//   - eventroutes_navigation_errors_total: rejections by route and error type
//   - eventroutes_resolutions_total: path resolutions (via RecordResolve)
//   - eventroutes_active_sessions: open WebSocket sessions
//   - eventroutes_websocket_errors_total: WebSocket errors by type
//
// Example:
//
//	nav := router.NewNavigator(table,
//	    router.WithMiddleware(middleware.Prometheus()),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) router.Middleware {
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(opts...)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return m.Middleware()
}

// GetMetrics returns the process-wide metrics, or nil if Prometheus has not
// been called.
func GetMetrics() *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

var passThrough = router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
	return next()
})

// routeLabel keeps label cardinality bounded by using route names.
func routeLabel(r *router.Resolved) string {
	if r == nil || r.Name == "" {
		return "unmatched"
	}
	return r.Name
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, router.ErrNotFound):
		return "not_found"
	case errors.Is(err, router.ErrMissingParam), errors.Is(err, router.ErrInvalidParam):
		return "bad_params"
	case errors.Is(err, router.ErrInvalidPath), errors.Is(err, router.ErrBackslashInPath),
		errors.Is(err, router.ErrNullByteInPath), errors.Is(err, router.ErrInvalidPercentEscape),
		errors.Is(err, router.ErrPathEscapesRoot), errors.Is(err, router.ErrEncodedSlashInSegment):
		return "invalid_path"
	case errors.Is(err, router.ErrRedirectLoop):
		return "redirect_loop"
	case errors.Is(err, router.ErrAborted):
		return "aborted"
	case errors.Is(err, authmw.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, authmw.ErrForbidden):
		return "forbidden"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "unauthorized"):
		return "unauthorized"
	case strings.Contains(errStr, "forbidden"):
		return "forbidden"
	case strings.Contains(errStr, "not found"):
		return "not_found"
	default:
		return "internal"
	}
}
