// Package monitoring exposes Prometheus metrics for the queue and the
// HTTP surface.
package monitoring

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueueOps counts queue mutations by operation (issued, claimed,
	// completed, skipped) and outcome.
	QueueOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arrival",
		Subsystem: "queue",
		Name:      "operations_total",
		Help:      "Queue operations by op and outcome.",
	}, []string{"op", "outcome"})

	// QueueDepth tracks the number of unclaimed active tokens as last
	// observed by a queue read.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arrival",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Unclaimed active tokens at last queue read.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arrival",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveOp records one queue operation outcome.
func ObserveOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	QueueOps.WithLabelValues(op, outcome).Inc()
}

// Handler serves the /metrics endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// RequestDuration is an Echo middleware recording per-route latency.
func RequestDuration() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			requestDuration.WithLabelValues(
				c.Request().Method, c.Path(), strconv.Itoa(status),
			).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
