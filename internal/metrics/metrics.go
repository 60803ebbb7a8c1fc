// Package metrics exports prometheus counters for the safety layer: handles
// handed out, handles invalidated, refused calls and open parallel regions.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "irguard"

// Recorder owns one set of collectors registered with one registry.
type Recorder struct {
	handles     *prometheus.CounterVec
	invalidated *prometheus.CounterVec
	violations  *prometheus.CounterVec
	regions     prometheus.Gauge
	passRuns    *prometheus.CounterVec
	passSeconds *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		handles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_created_total",
			Help:      "Handles handed out, by capability.",
		}, []string{"capability"}),
		invalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_invalidated_total",
			Help:      "Objects invalidated by destroy/remove/detach/transfer calls, by shape.",
		}, []string{"shape"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_violations_total",
			Help:      "Calls refused by the safety layer, by violation code.",
		}, []string{"code"}),
		regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parallel_regions_active",
			Help:      "Parallel regions currently open.",
		}),
		passRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pass_runs_total",
			Help:      "Pass executions over root operations, by pass and status.",
		}, []string{"pass", "status"}),
		passSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one pass over one root operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"pass"}),
	}
	for _, c := range []prometheus.Collector{r.handles, r.invalidated, r.violations, r.regions, r.passRuns, r.passSeconds} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// HandleCreated counts a handle of the given capability.
func (r *Recorder) HandleCreated(capability string) {
	if r == nil {
		return
	}
	r.handles.WithLabelValues(capability).Inc()
}

// Invalidated counts n objects invalidated by a call of the given shape.
func (r *Recorder) Invalidated(shape string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.invalidated.WithLabelValues(shape).Add(float64(n))
}

// Violation counts one refused call.
func (r *Recorder) Violation(code string) {
	if r == nil {
		return
	}
	r.violations.WithLabelValues(code).Inc()
}

// RegionOpened tracks a parallel region being entered.
func (r *Recorder) RegionOpened() {
	if r == nil {
		return
	}
	r.regions.Inc()
}

// RegionClosed tracks a parallel region being left.
func (r *Recorder) RegionClosed() {
	if r == nil {
		return
	}
	r.regions.Dec()
}

// PassRun records one pass execution.
func (r *Recorder) PassRun(pass, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.passRuns.WithLabelValues(pass, status).Inc()
	r.passSeconds.WithLabelValues(pass).Observe(d.Seconds())
}

// Dump writes every metric gathered by g in the prometheus text format.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
