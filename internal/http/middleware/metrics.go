// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus collectors for HTTP traffic. Labels are
// method, route and status. The route label is the registered Gin pattern;
// every request served by the NoRoute fallback, which includes every
// redirect, shares UnmatchedRoute so slugs never become label values.
// Redirect outcomes are counted separately by status in
// redirect_responses_total.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// UnmatchedRoute is the path label for requests no registered route matched.
const UnmatchedRoute = "<no-route>"

var (
	httpReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	// Latency omits status to keep the histogram small.
	httpLat = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "Current number of in-flight HTTP requests.",
	})

	// Redirects and error pages are a few hundred bytes; admin lists reach
	// tens of KiB.
	httpRespSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "Size of HTTP responses in bytes.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8), // 64B..1MiB
	}, []string{"method", "path"})

	redirectOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redirect_responses_total",
		Help: "Redirect path responses by status code.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, redirectOutcomes)
}

// ObserveRedirect counts one redirect path response.
func ObserveRedirect(status int) {
	redirectOutcomes.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Metrics records request count, latency, in-flight gauge and response
// size for every request. Responses that never wrote a body (size -1) are
// left out of the size histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInflight.Inc()
		defer httpInflight.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
