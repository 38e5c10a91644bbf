// Package metrics exposes prometheus instrumentation for the background
// worker. The HTTP API does not register these; only cmd/cron-worker serves
// a /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "storefront"
	subsystem = "cron"
)

// CronJobMetrics tracks per-job outcomes for the scheduled worker. A zero
// value (or nil) is a no-op, so tests and dev setups can skip the registry.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewCronJobMetrics registers the worker metrics on reg. Passing nil yields
// a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}

	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_success_total",
			Help:      "Scheduled job runs that completed without error.",
		}, []string{"job"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_failure_total",
			Help:      "Scheduled job runs that returned an error.",
		}, []string{"job"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_rows_affected_total",
			Help:      "Rows touched by scheduled job runs, e.g. carts swept.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.success, m.failure, m.rows)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(jobLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(jobLabel(job)).Inc()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(jobLabel(job)).Inc()
}

// AddRowsAffected records how many rows a run touched. Zero and negative
// counts are dropped.
func (c *CronJobMetrics) AddRowsAffected(job string, count int64) {
	if c == nil || c.rows == nil || count <= 0 {
		return
	}
	c.rows.WithLabelValues(jobLabel(job)).Add(float64(count))
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
