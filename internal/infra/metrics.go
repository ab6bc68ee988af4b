package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// Metrics implements domain.Recorder with Prometheus collectors on a
// private registry. The CLI has no HTTP surface, so the registry is written
// to a node_exporter textfile instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	scansTotal    prometheus.Counter
	scanDuration  prometheus.Histogram
	findings      *prometheus.GaugeVec
	findingBytes  *prometheus.GaugeVec
	ruleFailures  *prometheus.CounterVec
	cleansTotal   *prometheus.CounterVec
	cleanDuration prometheus.Histogram
	freedBytes    *prometheus.CounterVec
	cleanErrors   prometheus.Counter
	lastCleanUnix prometheus.Gauge
	prunedTotal   prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scansTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "diskclean_scans_total",
			Help: "Total number of completed scans",
		}),
		scanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "diskclean_scan_duration_seconds",
			Help:    "Scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		findings: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "diskclean_findings",
			Help: "Findings of the last scan per category",
		}, []string{"category"}),
		findingBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "diskclean_finding_bytes",
			Help: "Reclaimable bytes found by the last scan per category",
		}, []string{"category"}),
		ruleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diskclean_rule_failures_total",
			Help: "Scan rules that returned an error or panicked",
		}, []string{"rule"}),
		cleansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diskclean_cleans_total",
			Help: "Total number of clean runs",
		}, []string{"mode"}),
		cleanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "diskclean_clean_duration_seconds",
			Help:    "Clean run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		freedBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diskclean_freed_bytes_total",
			Help: "Bytes freed (or that would be freed when simulating)",
		}, []string{"mode"}),
		cleanErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "diskclean_clean_errors_total",
			Help: "Items that could not be cleaned",
		}),
		lastCleanUnix: f.NewGauge(prometheus.GaugeOpts{
			Name: "diskclean_last_clean_timestamp_seconds",
			Help: "Unix time of the last clean run",
		}),
		prunedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "diskclean_backups_pruned_total",
			Help: "Backup snapshots removed by retention",
		}),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) ObserveScan(result domain.ScanResult, durationMs int64) {
	m.scansTotal.Inc()
	m.scanDuration.Observe(float64(durationMs) / 1000)
	m.findings.Reset()
	m.findingBytes.Reset()
	for _, c := range result.Categories() {
		m.findings.WithLabelValues(string(c)).Set(float64(len(result[c])))
		m.findingBytes.WithLabelValues(string(c)).Set(float64(result.CategoryTotal(c)))
	}
}

func (m *Metrics) RuleFailed(rule string) {
	m.ruleFailures.WithLabelValues(rule).Inc()
}

func (m *Metrics) ObserveClean(outcome domain.CleanOutcome) {
	mode := "real"
	if outcome.Simulated {
		mode = "simulated"
	}
	m.cleansTotal.WithLabelValues(mode).Inc()
	m.cleanDuration.Observe((time.Duration(outcome.DurationMs) * time.Millisecond).Seconds())
	m.freedBytes.WithLabelValues(mode).Add(float64(outcome.FreedBytes))
	m.cleanErrors.Add(float64(len(outcome.Errors)))
	if !outcome.ExecutedAt.IsZero() {
		m.lastCleanUnix.Set(float64(outcome.ExecutedAt.Unix()))
	}
}

func (m *Metrics) BackupsPruned(n int) {
	m.prunedTotal.Add(float64(n))
}

var _ domain.Recorder = (*Metrics)(nil)
