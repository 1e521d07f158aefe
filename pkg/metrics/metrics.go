package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resolver metrics
	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_resolve_total",
			Help: "Total number of namespace resolutions by namespace and result",
		},
		[]string{"namespace", "result"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_cache_hits_total",
			Help: "Total number of resolver cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_cache_misses_total",
			Help: "Total number of resolver cache misses",
		},
	)

	SourceLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_source_load_failures_total",
			Help: "Total number of source load failures by namespace and format",
		},
		[]string{"namespace", "format"},
	)

	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_resolve_duration_seconds",
			Help:    "Namespace resolution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace"},
	)

	RegisteredNamespaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strata_registered_namespaces",
			Help: "Number of namespaces registered with the resolver",
		},
	)

	// Watcher metrics
	WatchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_watch_events_total",
			Help: "Total number of file change events by namespace",
		},
		[]string{"namespace"},
	)

	// Migration metrics
	MigrationPhase = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strata_migration_phase",
			Help: "Current migration phase (0=not_started, 1-3=phaseN, 4=completed, 5=failed)",
		},
	)

	MigrationStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_migration_steps_total",
			Help: "Total number of migration steps executed by result",
		},
		[]string{"result"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(SourceLoadFailures)
	prometheus.MustRegister(ResolveDuration)
	prometheus.MustRegister(RegisteredNamespaces)
	prometheus.MustRegister(WatchEventsTotal)
	prometheus.MustRegister(MigrationPhase)
	prometheus.MustRegister(MigrationStepsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
