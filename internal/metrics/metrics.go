// Package metrics records Prometheus collectors for archive runs. A run is a
// short-lived process, so collectors live in a private registry that is
// flushed to a node_exporter textfile or a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label for archive runs.
const JobName = "page_archiver"

// Recorder holds the collectors for one process. A nil *Recorder discards
// every observation.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	fetchDuration    *prometheus.HistogramVec
	bytesTotal       *prometheus.CounterVec
	patternsTotal    *prometheus.CounterVec
	filesChanged     prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// New registers the archive collectors in a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_runs_total",
				Help: "Total number of archive runs, labeled by outcome and failed stage.",
			},
			[]string{"status", "stage"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "archiver_run_duration_seconds",
				Help:    "Wall time of a complete archive run.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "archiver_fetch_duration_seconds",
				Help:    "Histogram of browser fetch durations, labeled by site.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"site"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_bytes_total",
				Help: "Total rendered HTML bytes fetched, labeled by site.",
			},
			[]string{"site"},
		),
		patternsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_patterns_total",
				Help: "Pattern decisions, labeled by whether the pattern was new.",
			},
			[]string{"outcome"},
		),
		filesChanged: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "archiver_files_changed",
				Help: "Number of files changed by the last run.",
			},
		),
		lastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "archiver_last_run_timestamp_seconds",
				Help: "Unix time the last run finished.",
			},
		),
	}
}

// Registry exposes the underlying registry as a Gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveRun records the outcome of a run. stage is empty on success.
func (r *Recorder) ObserveRun(status, stage string, duration time.Duration, filesChanged int, finished time.Time) {
	if r == nil {
		return
	}
	if stage == "" {
		stage = "none"
	}
	r.runsTotal.WithLabelValues(status, stage).Inc()
	r.runDuration.Observe(duration.Seconds())
	r.filesChanged.Set(float64(filesChanged))
	r.lastRunTimestamp.Set(float64(finished.Unix()))
}

// ObserveFetch records a completed browser fetch.
func (r *Recorder) ObserveFetch(site string, duration time.Duration, bytesFetched int) {
	if r == nil {
		return
	}
	s := SanitizeSite(site)
	r.fetchDuration.WithLabelValues(s).Observe(duration.Seconds())
	if bytesFetched > 0 {
		r.bytesTotal.WithLabelValues(s).Add(float64(bytesFetched))
	}
}

// ObservePattern records whether a match created a new pattern.
func (r *Recorder) ObservePattern(isNew bool) {
	if r == nil {
		return
	}
	outcome := "reused"
	if isNew {
		outcome = "new"
	}
	r.patternsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the collected metrics in the text exposition format
// for the node_exporter textfile collector. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push sends the collected metrics to a Pushgateway, replacing the previous
// group for JobName.
func (r *Recorder) Push(ctx context.Context, gatewayURL string) error {
	if r == nil || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, JobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
