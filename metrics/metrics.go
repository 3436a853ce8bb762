// Package metrics counts what the filter did to a program.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
)

// Recorder owns a private registry so every run can be exported on its
// own to a node exporter textfile.
type Recorder struct {
	registry *prometheus.Registry

	linesRead     prometheus.Counter
	linesEmitted  prometheus.Counter
	holes         prometheus.Counter
	overburns     prometheus.Counter
	pierces       prometheus.Counter
	materialEdits *prometheus.CounterVec
	diagnostics   *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		linesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "plasmac_filter_lines_read_total",
			Help: "Input lines read",
		}),
		linesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "plasmac_filter_lines_emitted_total",
			Help: "Lines written to the filtered program",
		}),
		holes: factory.NewCounter(prometheus.CounterOpts{
			Name: "plasmac_filter_holes_total",
			Help: "Arcs that received a velocity reduction",
		}),
		overburns: factory.NewCounter(prometheus.CounterOpts{
			Name: "plasmac_filter_overburns_total",
			Help: "Overburn arcs added after holes",
		}),
		pierces: factory.NewCounter(prometheus.CounterOpts{
			Name: "plasmac_filter_pierces_total",
			Help: "Pierces emitted in pierce only mode",
		}),
		materialEdits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plasmac_filter_material_edits_total",
			Help: "Material directives applied",
		}, []string{"op"}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plasmac_filter_diagnostics_total",
			Help: "Diagnostics raised",
		}, []string{"kind", "severity"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "plasmac_filter_run_duration_seconds",
			Help:    "Time taken to filter a program",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}
}

// Record methods are no-ops on a nil Recorder.

func (r *Recorder) RecordLines(read, emitted int) {
	if r == nil {
		return
	}
	r.linesRead.Add(float64(read))
	r.linesEmitted.Add(float64(emitted))
}

func (r *Recorder) RecordHole() {
	if r == nil {
		return
	}
	r.holes.Inc()
}

func (r *Recorder) RecordOverburn() {
	if r == nil {
		return
	}
	r.overburns.Inc()
}

func (r *Recorder) RecordPierce() {
	if r == nil {
		return
	}
	r.pierces.Inc()
}

func (r *Recorder) RecordMaterialEdit(op string) {
	if r == nil {
		return
	}
	r.materialEdits.WithLabelValues(op).Inc()
}

func (r *Recorder) RecordDiagnostics(s *diag.Sink) {
	if r == nil {
		return
	}
	for _, d := range s.All() {
		r.diagnostics.WithLabelValues(d.Kind.Label(), d.Severity().String()).Inc()
	}
}

func (r *Recorder) RecordRun(duration time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Observe(duration.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the metrics in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
