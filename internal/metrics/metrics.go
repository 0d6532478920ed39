package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label keys
const (
	LabelOp     = "op"
	LabelReason = "reason"
)

// Recorder exposes lineup engine and transport metrics on a private
// Prometheus registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	mutations    *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	shortfalls   prometheus.Counter
	saveFailures prometheus.Counter
	historyIndex prometheus.Gauge
	historySize  prometheus.Gauge
	wsClients    prometheus.Gauge
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lineup_mutations_total",
			Help: "Committed lineup mutations by operation.",
		}, []string{LabelOp}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lineup_rejections_total",
			Help: "Assignments refused by the box rules, by reason.",
		}, []string{LabelReason}),
		shortfalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lineup_autofill_shortfalls_total",
			Help: "Auto-fill passes that could not complete the current line.",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lineup_save_failures_total",
			Help: "Roster writes that failed after a committed mutation.",
		}),
		historyIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lineup_history_index",
			Help: "Position of the undo cursor.",
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lineup_history_depth",
			Help: "Number of snapshots held for undo/redo.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lineup_ws_clients",
			Help: "Connected websocket clients.",
		}),
	}
	reg.MustRegister(
		r.mutations,
		r.rejections,
		r.shortfalls,
		r.saveFailures,
		r.historyIndex,
		r.historySize,
		r.wsClients,
	)
	return r
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordMutation counts a committed operation
func (r *Recorder) RecordMutation(op string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(op).Inc()
}

// RecordRejection counts an assignment refused by a box rule
func (r *Recorder) RecordRejection(reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(reason).Inc()
}

// RecordShortfall counts an auto-fill pass that ran out of reserves
func (r *Recorder) RecordShortfall() {
	if r == nil {
		return
	}
	r.shortfalls.Inc()
}

// RecordSaveFailure counts a failed roster write
func (r *Recorder) RecordSaveFailure() {
	if r == nil {
		return
	}
	r.saveFailures.Inc()
}

// SetHistory publishes the undo cursor and the number of stored snapshots
func (r *Recorder) SetHistory(index, size int) {
	if r == nil {
		return
	}
	r.historyIndex.Set(float64(index))
	r.historySize.Set(float64(size))
}

// SetClients publishes the number of connected websocket clients
func (r *Recorder) SetClients(n int) {
	if r == nil {
		return
	}
	r.wsClients.Set(float64(n))
}
