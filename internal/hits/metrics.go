package hits

import "github.com/prometheus/client_golang/prometheus"

var (
	hitsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_hits_enqueued_total",
		Help: "Hits accepted into the recording queue.",
	})

	// hitsDropped counts rejected hits by reason ("full" or "closed").
	hitsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_hits_dropped_total",
			Help: "Hits rejected by the recording queue.",
		},
		[]string{"reason"},
	)

	hitsPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_hits_persisted_total",
		Help: "Hits written to the store.",
	})

	hitsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_hits_failed_total",
		Help: "Hits that failed to persist and were discarded.",
	})

	hitQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redirect_hit_queue_depth",
		Help: "Hits currently buffered.",
	})
)

func init() {
	prometheus.MustRegister(hitsEnqueued, hitsDropped, hitsPersisted, hitsFailed, hitQueueDepth)
}
