// Package metrics records job outcomes as Prometheus metrics.
//
// Every Collector owns its registry, so collectors created in tests or by
// separate orchestrators never collide. A nil *Collector is valid and
// records nothing.
//
// # Basic Usage
//
//	collector := metrics.NewCollector()
//	collector.JobConstructed(true)
//	collector.ObserveJob(metrics.StatusSucceeded, time.Since(start))
//	_ = collector.WriteTextfile("/var/lib/node_exporter/sluice.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "sluice"

// Job outcome label values
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Construction outcome label values
const (
	ResultCreated = "created"
	ResultFailed  = "failed"
)

// Collector holds the runner's metrics
type Collector struct {
	registry        *prometheus.Registry
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobsConstructed *prometheus.CounterVec
	packagesLoaded  prometheus.Counter
}

// NewCollector creates a collector with a private registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jobs_total",
			Help:      "Jobs run, by final status",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of one job run",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"status"}),
		jobsConstructed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jobs_constructed_total",
			Help:      "Job constructions from configuration, by result",
		}, []string{"result"}),
		packagesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "packages_total",
			Help:      "Data packages handed from sources to targets",
		}),
	}
	c.registry.MustRegister(c.jobsTotal, c.jobDuration, c.jobsConstructed, c.packagesLoaded)
	return c
}

// Registry exposes the underlying registry, e.g. for an HTTP handler
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveJob records one finished job run
func (c *Collector) ObserveJob(status string, d time.Duration) {
	if c == nil {
		return
	}
	c.jobsTotal.WithLabelValues(status).Inc()
	c.jobDuration.WithLabelValues(status).Observe(d.Seconds())
}

// JobConstructed records one construction attempt
func (c *Collector) JobConstructed(ok bool) {
	if c == nil {
		return
	}
	result := ResultCreated
	if !ok {
		result = ResultFailed
	}
	c.jobsConstructed.WithLabelValues(result).Inc()
}

// PackageLoaded counts one package passed to a target
func (c *Collector) PackageLoaded() {
	if c == nil {
		return
	}
	c.packagesLoaded.Inc()
}

// WriteTextfile writes the text exposition format to path, atomically
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
