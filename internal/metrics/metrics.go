// Package metrics counts batch progress with Prometheus. A batch job is
// short-lived, so counters are pushed to a Pushgateway when the run ends
// instead of being scraped.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder receives batch events.
type Recorder interface {
	IncArchives(access, status string)
	IncFiles(outcome string)
	IncUploaded(bucket string)
	ObserveArchiveDuration(access string, seconds float64)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) IncArchives(string, string)             {}
func (Noop) IncFiles(string)                        {}
func (Noop) IncUploaded(string)                     {}
func (Noop) ObserveArchiveDuration(string, float64) {}

// Prom implements Recorder on a private registry.
type Prom struct {
	reg             *prometheus.Registry
	archives        *prometheus.CounterVec
	files           *prometheus.CounterVec
	uploaded        *prometheus.CounterVec
	archiveDuration *prometheus.HistogramVec
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		reg: prometheus.NewRegistry(),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archives visited by access class and status",
		}, []string{"access", "status"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Archive files by processing outcome",
		}, []string{"outcome"}),
		uploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_uploaded_total",
			Help:      "Files transferred to storage by bucket",
		}, []string{"bucket"}),
		archiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_duration_seconds",
			Help:      "Time spent fetching, filtering and uploading one archive",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"access"}),
	}
	p.reg.MustRegister(p.archives, p.files, p.uploaded, p.archiveDuration)
	return p
}

func (p *Prom) IncArchives(access, status string) {
	p.archives.WithLabelValues(access, status).Inc()
}

func (p *Prom) IncFiles(outcome string) {
	p.files.WithLabelValues(outcome).Inc()
}

func (p *Prom) IncUploaded(bucket string) {
	p.uploaded.WithLabelValues(bucket).Inc()
}

func (p *Prom) ObserveArchiveDuration(access string, seconds float64) {
	p.archiveDuration.WithLabelValues(access).Observe(seconds)
}

// Gatherer exposes the private registry.
func (p *Prom) Gatherer() prometheus.Gatherer {
	return p.reg
}

// Push sends the collected metrics to a Pushgateway under job, grouped by run id.
func (p *Prom) Push(ctx context.Context, url, job, runID string) error {
	err := push.New(url, job).
		Gatherer(p.reg).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
