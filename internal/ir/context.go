// Package ir is the guarded surface over the native IR library.
//
// Every native call is classified once (calls.go) and routed through
// Context.invoke, which checks in order: the context is alive, every handle
// involved is live, uniqued objects are not mutated, and, in debug builds, the
// race guard agrees with the threading flags. Successful Invalidating calls
// then advance the generation counters owned by the Context, so every copy of
// an affected handle observes the invalidation.
package ir

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"irguard/internal/capi"
	"irguard/internal/diag"
	"irguard/internal/metrics"
	"irguard/internal/trace"
	"irguard/internal/types"
)

// Context owns the uniquing store and the non-uniqued object graph. Handles
// never outlive it: after Destroy every handle fails with
// ErrUseAfterInvalidation.
type Context struct {
	id      uuid.UUID
	native  *capi.Context
	uniq    *types.Interner
	tracker *tracker
	guard   guard

	log      logr.Logger
	tracer   trace.Tracer
	reporter diag.Reporter
	metrics  *metrics.Recorder
	span     *trace.Span

	policy    atomic.Bool
	destroyed atomic.Bool

	// owned holds client-owned roots: non-uniqued objects that have no
	// parent and were not destroyed. Only touched by non-inspection calls.
	mu    sync.Mutex
	owned map[capi.Ref]struct{}
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger; the default discards.
func WithLogger(l logr.Logger) Option {
	return func(c *Context) { c.log = l }
}

// WithTracer sets the tracer; the default is trace.Nop.
func WithTracer(t trace.Tracer) Option {
	return func(c *Context) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithReporter sets where refused calls are reported.
func WithReporter(r diag.Reporter) Option {
	return func(c *Context) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithMetrics sets the metrics recorder; nil records nothing.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Context) { c.metrics = m }
}

// WithMultithreading sets the initial threading policy.
func WithMultithreading(enable bool) Option {
	return func(c *Context) { c.policy.Store(enable) }
}

// NewContext creates a context. Multithreading is disabled and no parallel
// region is active unless an option says otherwise.
func NewContext(opts ...Option) *Context {
	native := capi.ContextCreate()
	c := &Context{
		id:       uuid.New(),
		native:   native,
		uniq:     native.Uniquer(),
		tracker:  newTracker(),
		log:      logr.Discard(),
		tracer:   trace.Nop,
		reporter: diag.NopReporter{},
		owned:    make(map[capi.Ref]struct{}),
	}
	c.guard.claims = newClaimTable()
	for _, opt := range opts {
		opt(c)
	}
	c.native.EnableMultithreading(c.policy.Load())
	c.log = c.log.WithValues("context", c.ID())
	c.span = trace.BeginIn(c.tracer, trace.ScopeContext, c.ID(), "context", 0)
	c.log.V(1).Info("context created", "multithreading", c.policy.Load())
	return c
}

// ID returns the random identifier used in logs, traces and diagnostics.
func (c *Context) ID() string {
	return c.id.String()
}

// Logger returns the context logger.
func (c *Context) Logger() logr.Logger {
	return c.log
}

// MultithreadingEnabled reports the policy flag.
func (c *Context) MultithreadingEnabled() bool {
	return c.policy.Load()
}

// ParallelExecutionActive reports the debug-only active-execution flag.
// Always false in release builds.
func (c *Context) ParallelExecutionActive() bool {
	return c.guard.isActive()
}

// EnableMultithreading sets the threading policy. Changing it while a
// parallel region is active is a PolicyViolation.
func (c *Context) EnableMultithreading(enable bool) error {
	if c.destroyed.Load() {
		return c.refuse("ContextEnableMultithreading", nil, ErrUseAfterInvalidation, "context was destroyed")
	}
	if c.guard.isActive() {
		return c.refuse("ContextEnableMultithreading", nil, ErrPolicyViolation,
			"threading policy changed while a parallel region is active")
	}
	c.policy.Store(enable)
	c.native.EnableMultithreading(enable)
	trace.Point(c.tracer, trace.ScopeContext, c.ID(), "policy", fmt.Sprintf("multithreading=%t", enable), nil)
	c.log.V(1).Info("threading policy changed", "multithreading", enable)
	return nil
}

// Destroy tears the context down. It fails with DanglingHandles while any
// client-owned root (a created object that was neither attached to a parent
// nor destroyed) remains, since handles into it would dangle.
func (c *Context) Destroy() error {
	err := c.invoke(CallContextDestroy, func() error {
		c.mu.Lock()
		n := len(c.owned)
		c.mu.Unlock()
		if n > 0 {
			return fmt.Errorf("%w: %d owned objects still reachable", ErrDanglingHandles, n)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.destroyed.Store(true)
	c.native.Destroy()
	c.span.End("destroyed")
	c.log.V(1).Info("context destroyed")
	return nil
}

// Destroyed reports whether Destroy succeeded.
func (c *Context) Destroyed() bool {
	return c.destroyed.Load()
}

// OwnedRoots counts client-owned roots; Destroy requires zero.
func (c *Context) OwnedRoots() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owned)
}

// LiveObjects counts non-uniqued objects with live handles issued.
func (c *Context) LiveObjects() int {
	return c.tracker.liveCount()
}

// Uniquer exposes the uniquing store for read-only uses such as snapshots.
func (c *Context) Uniquer() *types.Interner {
	return c.uniq
}

// RegisterDialect makes a dialect namespace loadable.
func (c *Context) RegisterDialect(namespace string) error {
	return c.invoke(CallContextRegisterDialect, func() error {
		c.native.RegisterDialect(namespace)
		return nil
	})
}

// LoadDialect loads a registered dialect. ErrNullHandle for unknown namespaces.
func (c *Context) LoadDialect(namespace string) (Dialect, error) {
	var d Dialect
	err := c.invoke(CallContextLoadDialect, func() error {
		ref := c.native.LoadDialect(namespace)
		if ref == capi.Null {
			return fmt.Errorf("%w: dialect %q is not registered", ErrNullHandle, namespace)
		}
		d = Dialect{c.created(ref, false)}
		return nil
	})
	return d, err
}

// Apply runs fn as the native call described by call, with the full guard
// pipeline applied to target (nil for context-level calls). It is the entry
// point for bindings not covered by the typed surface. For Invalidating
// calls the shape's effect is applied to target after fn succeeds.
func (c *Context) Apply(call Call, target Handle, fn func() error) error {
	if target == nil {
		return c.invoke(call, fn)
	}
	// invoke rejects a null target quietly before the ownership check.
	return c.invoke(call, fn, target)
}

// created issues a handle for a freshly created object. owned marks a client
// root; navigation results are never owned.
func (c *Context) created(ref capi.Ref, owned bool) object {
	if owned {
		c.mu.Lock()
		c.owned[ref] = struct{}{}
		c.mu.Unlock()
	}
	c.metrics.HandleCreated(NonUniqued.String())
	return object{ctx: c, ref: ref, gen: c.tracker.issue(ref)}
}

// derive issues a navigation handle under the lease of the handle it was
// reached from.
func (c *Context) derive(ref capi.Ref, lease *Lease) object {
	if ref == capi.Null {
		return object{}
	}
	return object{ctx: c, ref: ref, gen: c.tracker.issue(ref), lease: lease}
}

func (c *Context) isOwned(ref capi.Ref) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.owned[ref]
	return ok
}

func (c *Context) setOwned(ref capi.Ref, owned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if owned {
		c.owned[ref] = struct{}{}
	} else {
		delete(c.owned, ref)
	}
}
