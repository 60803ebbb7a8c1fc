package pass

import (
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"irguard/internal/ir"
	"irguard/internal/metrics"
	"irguard/internal/observ"
	"irguard/internal/trace"
)

// Manager runs a pipeline of passes over the roots of a module.
type Manager struct {
	ctx     *ir.Context
	passes  []Descriptor
	jobs    int
	sink    Sink
	metrics *metrics.Recorder
	timer   *observ.Timer
}

// Option configures a Manager.
type Option func(*Manager)

// WithJobs bounds how many roots a read-only pass processes at once.
// jobs <= 0 means GOMAXPROCS.
func WithJobs(jobs int) Option {
	return func(m *Manager) { m.jobs = jobs }
}

// WithSink receives progress events.
func WithSink(s Sink) Option {
	return func(m *Manager) { m.sink = s }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithTimer folds per-pass wall time into t.
func WithTimer(t *observ.Timer) Option {
	return func(m *Manager) { m.timer = t }
}

// NewManager creates a manager for passes over modules of c.
func NewManager(c *ir.Context, passes []Descriptor, opts ...Option) *Manager {
	m := &Manager{ctx: c, passes: passes}
	for _, opt := range opts {
		opt(m)
	}
	if m.jobs <= 0 {
		m.jobs = runtime.GOMAXPROCS(0)
	}
	return m
}

// Result summarizes one pass.
type Result struct {
	Name     string
	Parallel bool
	Roots    int
	Done     int
	Duration time.Duration
	Err      error
}

// Report lists pass results in pipeline order.
type Report struct {
	Results []Result
}

// Failed reports whether a pass returned an error.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

// Run executes the pipeline over the top-level operations of module and
// stops at the first failing pass.
func (m *Manager) Run(ctx context.Context, module ir.Module) (*Report, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("context", m.ctx.ID())
	body, err := module.Body()
	if err != nil {
		return nil, err
	}
	roots, err := body.Operations()
	if err != nil {
		return nil, err
	}
	for _, d := range m.passes {
		m.emit(Event{Pass: d.Name, Status: StatusQueued, Total: len(roots)})
	}

	report := &Report{}
	for _, d := range m.passes {
		res := m.runPass(ctx, log, d, roots)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			return report, res.Err
		}
	}
	return report, nil
}

func (m *Manager) runPass(ctx context.Context, log logr.Logger, d Descriptor, roots []ir.Operation) Result {
	parallel := !d.Mutates && m.jobs > 1 && len(roots) > 1 && m.ctx.MultithreadingEnabled()
	res := Result{Name: d.Name, Parallel: parallel, Roots: len(roots)}

	span := trace.BeginIn(trace.FromContext(ctx), trace.ScopePass, m.ctx.ID(), d.Name, trace.ParentFrom(ctx)).
		WithExtra("roots", strconv.Itoa(len(roots))).
		WithExtra("parallel", strconv.FormatBool(parallel))
	m.emit(Event{Pass: d.Name, Status: StatusWorking, Parallel: parallel, Total: len(roots)})
	start := time.Now()

	var done atomic.Int64
	runOne := func(ctx context.Context, root ir.Operation) error {
		leased, lease := m.ctx.Lease(root)
		defer lease.Revoke()
		began := time.Now()
		err := d.New().Run(ctx, leased)
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.metrics.PassRun(d.Name, status, time.Since(began))
		if err != nil {
			return errors.Wrapf(err, "pass %s on %s", d.Name, root)
		}
		n := int(done.Add(1))
		m.emit(Event{Pass: d.Name, Status: StatusWorking, Parallel: parallel, Done: n, Total: len(roots)})
		return nil
	}

	if parallel {
		res.Err = m.ctx.Parallel(func(r *ir.ParallelRegion) error {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(min(m.jobs, len(roots)))
			for _, root := range roots {
				g.Go(func() error {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					cl, err := r.Claim(root)
					if err != nil {
						return err
					}
					defer cl.Release()
					return runOne(gctx, root)
				})
			}
			return g.Wait()
		})
	} else {
		for _, root := range roots {
			if err := ctx.Err(); err != nil {
				res.Err = err
				break
			}
			if err := runOne(ctx, root); err != nil {
				res.Err = err
				break
			}
		}
	}

	res.Duration = time.Since(start)
	res.Done = int(done.Load())
	m.timer.Add(d.Name, res.Duration)
	status := StatusDone
	if res.Err != nil {
		status = StatusError
		log.Error(res.Err, "pass failed", "pass", d.Name)
	} else {
		log.V(1).Info("pass finished", "pass", d.Name, "roots", len(roots), "parallel", parallel, "duration", res.Duration)
	}
	span.End(string(status))
	m.emit(Event{Pass: d.Name, Status: status, Parallel: parallel, Done: res.Done, Total: len(roots), Err: res.Err})
	return res
}

func (m *Manager) emit(ev Event) {
	if m.sink != nil {
		m.sink.OnEvent(ev)
	}
}
