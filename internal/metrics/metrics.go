// Package metrics records run counters on a private Prometheus registry and
// can dump them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the counters for one process.
type Recorder struct {
	registry      *prometheus.Registry
	groupsTotal   *prometheus.CounterVec
	chunksTotal   *prometheus.CounterVec
	missingTotal  *prometheus.CounterVec
	groupDuration *prometheus.HistogramVec
}

// NewRecorder builds a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		// Labels: outcome (succeeded/skipped/download_failed/processing_failed)
		groupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solea_groups_total",
				Help: "Song groups processed, by outcome",
			},
			[]string{"outcome"},
		),
		// Labels: result (written/skipped)
		chunksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solea_chunks_total",
				Help: "Chunks handled, by result",
			},
			[]string{"result"},
		),
		// Labels: kind (audio/notes)
		missingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solea_audit_missing_total",
				Help: "Missing chunk outputs found by the auditor",
			},
			[]string{"kind"},
		),
		groupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solea_group_duration_seconds",
				Help:    "Wall time spent on one song group",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordGroup counts a finished group and its wall time.
func (r *Recorder) RecordGroup(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.groupsTotal.WithLabelValues(outcome).Inc()
	r.groupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordChunks adds written and skipped chunk counts.
func (r *Recorder) RecordChunks(written, skipped int) {
	if r == nil {
		return
	}
	r.chunksTotal.WithLabelValues("written").Add(float64(written))
	r.chunksTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordMissing adds auditor findings.
func (r *Recorder) RecordMissing(audio, notes int) {
	if r == nil {
		return
	}
	r.missingTotal.WithLabelValues("audio").Add(float64(audio))
	r.missingTotal.WithLabelValues("notes").Add(float64(notes))
}

// WriteTextfile writes every metric to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics textfile: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics textfile: %w", err)
	}
	return nil
}
