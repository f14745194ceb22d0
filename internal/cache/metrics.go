package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	// cacheLookups counts Resolve calls by outcome ("hit" or "miss").
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_cache_lookups_total",
			Help: "Slug cache lookups by result.",
		},
		[]string{"result"},
	)

	cacheLoads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_cache_loads_total",
		Help: "Slug resolutions fetched from the store.",
	})

	cacheLoadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_cache_load_errors_total",
		Help: "Slug resolutions that failed to load.",
	})

	cacheLoadSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redirect_cache_load_duration_seconds",
		Help:    "Duration of store loads in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	cacheInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_cache_invalidations_total",
		Help: "Explicit slug invalidations.",
	})

	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_cache_evictions_total",
		Help: "Entries removed by the LRU policy or by invalidation.",
	})
)

func init() {
	prometheus.MustRegister(cacheLookups, cacheLoads, cacheLoadErrors, cacheLoadSeconds, cacheInvalidations, cacheEvictions)
}
