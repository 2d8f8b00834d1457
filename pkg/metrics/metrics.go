// Package metrics exports Prometheus counters for session actions.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry holds all CopyFlow metrics.
type Registry struct {
	reg            *prometheus.Registry
	translations   *prometheus.CounterVec
	translateTime  prometheus.Histogram
	chunks         prometheus.Counter
	audits         *prometheus.CounterVec
	auditTime      prometheus.Histogram
	fixes          *prometheus.CounterVec
	historyEntries prometheus.Counter
	restores       prometheus.Counter
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copyflow",
			Name:      "translations_total",
			Help:      "Translation generations by outcome.",
		}, []string{"outcome"}),
		translateTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "copyflow",
			Name:      "translation_duration_seconds",
			Help:      "Wall time of translation streams.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "copyflow",
			Name:      "translation_chunks_total",
			Help:      "Streamed translation chunks applied to the buffer.",
		}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copyflow",
			Name:      "audits_total",
			Help:      "Audit passes by outcome.",
		}, []string{"outcome"}),
		auditTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "copyflow",
			Name:      "audit_duration_seconds",
			Help:      "Wall time of audit requests.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copyflow",
			Name:      "fixes_total",
			Help:      "Issue fixes by outcome (applied, not_found).",
		}, []string{"outcome"}),
		historyEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "copyflow",
			Name:      "history_entries_total",
			Help:      "History entries recorded.",
		}),
		restores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "copyflow",
			Name:      "history_restores_total",
			Help:      "History restores (undo).",
		}),
	}
	r.reg.MustRegister(
		r.translations, r.translateTime, r.chunks,
		r.audits, r.auditTime, r.fixes,
		r.historyEntries, r.restores,
	)
	return r
}

// RecordTranslation records a finished generation; outcome is ok, cancelled or failed.
func (r *Registry) RecordTranslation(outcome string, duration time.Duration) {
	r.translations.WithLabelValues(outcome).Inc()
	r.translateTime.Observe(duration.Seconds())
}

// RecordChunk records one applied translation chunk.
func (r *Registry) RecordChunk() {
	r.chunks.Inc()
}

// RecordAudit records a finished audit; outcome is ok, malformed, cancelled or failed.
func (r *Registry) RecordAudit(outcome string, duration time.Duration) {
	r.audits.WithLabelValues(outcome).Inc()
	r.auditTime.Observe(duration.Seconds())
}

// RecordFixes adds applied and not-found fix attempts.
func (r *Registry) RecordFixes(applied, notFound int) {
	if applied > 0 {
		r.fixes.WithLabelValues("applied").Add(float64(applied))
	}
	if notFound > 0 {
		r.fixes.WithLabelValues("not_found").Add(float64(notFound))
	}
}

// RecordHistoryEntry records one appended history entry.
func (r *Registry) RecordHistoryEntry() {
	r.historyEntries.Inc()
}

// RecordRestore records one history restore.
func (r *Registry) RecordRestore() {
	r.restores.Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
