// Package metrics counts dispatcher jobs and exports them in the Prometheus
// text format, e.g. for the node_exporter textfile collector.
package metrics

import (
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ivlev/pcb2video/internal/dispatch"
)

const namespace = "pcb2video"

// Collector implements dispatch.Observer.
type Collector struct {
	registry *prometheus.Registry

	started  *prometheus.CounterVec
	finished *prometheus.CounterVec
	duration *prometheus.HistogramVec
	running  prometheus.Gauge
	skipped  prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "External processes started, by program.",
		}, []string{"program"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "External processes reaped, by program and status.",
		}, []string{"program", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of external processes.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"program"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "External processes currently running.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Frames not rendered because the file already existed.",
		}),
	}
	c.registry.MustRegister(c.started, c.finished, c.duration, c.running, c.skipped)
	return c
}

func program(job dispatch.Job) string { return filepath.Base(job.Program) }

func (c *Collector) JobStarted(job dispatch.Job) {
	c.started.WithLabelValues(program(job)).Inc()
	c.running.Inc()
}

func (c *Collector) JobFinished(job dispatch.Job, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	c.finished.WithLabelValues(program(job), status).Inc()
	c.duration.WithLabelValues(program(job)).Observe(elapsed.Seconds())
	c.running.Dec()
}

// FrameSkipped counts a frame left untouched by the overwrite policy.
func (c *Collector) FrameSkipped() { c.skipped.Inc() }

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteTextfile atomically writes all metrics to path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
