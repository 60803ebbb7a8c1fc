package ir

import (
	"fmt"
	"sync"

	"irguard/internal/capi"
	"irguard/internal/trace"
)

// ParallelRegion marks a stretch of concurrent work on a context. While any
// region is active (debug builds), every non-uniqued mutation, destruction or
// creation is refused, and non-uniqued reads need a Claim.
type ParallelRegion struct {
	ctx  *Context
	once sync.Once
	span *trace.Span

	mu     sync.Mutex
	claims []*Claim
	ended  bool
}

// Claim is one goroutine's exclusive right to read an operation subtree
// inside a parallel region.
type Claim struct {
	region *ParallelRegion
	root   capi.Ref
	gid    uint64
	once   sync.Once
}

// BeginParallelRegion enters a parallel region. The threading policy must be
// enabled. The caller must End the region on every path; Parallel does that.
func (c *Context) BeginParallelRegion() (*ParallelRegion, error) {
	if c.destroyed.Load() {
		return nil, c.refuse("BeginParallelRegion", nil, ErrUseAfterInvalidation, "context was destroyed")
	}
	if !c.policy.Load() {
		return nil, c.refuse("BeginParallelRegion", nil, ErrPolicyViolation,
			"parallel region requested while multithreading is disabled")
	}
	r := &ParallelRegion{ctx: c}
	if debugChecks {
		c.guard.active.Add(1)
	}
	c.metrics.RegionOpened()
	r.span = trace.BeginIn(c.tracer, trace.ScopeRegion, c.ID(), "parallel-region", c.span.ID())
	c.log.V(1).Info("parallel region entered")
	return r, nil
}

// End leaves the region and drops its claims. Idempotent.
func (r *ParallelRegion) End() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.mu.Lock()
		claims := r.claims
		r.claims = nil
		r.ended = true
		r.mu.Unlock()
		for _, cl := range claims {
			cl.Release()
		}
		c := r.ctx
		if debugChecks {
			c.guard.active.Add(-1)
		}
		c.metrics.RegionClosed()
		r.span.End(fmt.Sprintf("%d claims", len(claims)))
		c.log.V(1).Info("parallel region left")
	})
}

// Parallel runs fn inside a region and leaves it on every exit path,
// including a panic in fn.
func (c *Context) Parallel(fn func(r *ParallelRegion) error) error {
	r, err := c.BeginParallelRegion()
	if err != nil {
		return err
	}
	defer r.End()
	return fn(r)
}

// Claim gives the calling goroutine read access to the subtree rooted at op.
// Overlapping claims of different goroutines are a ConcurrentAccessViolation.
func (r *ParallelRegion) Claim(op Operation) (*Claim, error) {
	c := r.ctx
	const call = "ParallelRegionClaim"
	if c.destroyed.Load() {
		return nil, c.refuse(call, op, ErrUseAfterInvalidation, "context was destroyed")
	}
	if op.IsNull() {
		return nil, c.refuse(call, op, ErrNullHandle, "null operation")
	}
	if op.ctx != c {
		return nil, c.refuse(call, op, ErrNotOwned, "handle belongs to another context")
	}
	if !c.live(op.info()) {
		return nil, c.refuse(call, op, ErrUseAfterInvalidation, describe(op)+" was invalidated")
	}
	r.mu.Lock()
	ended := r.ended
	r.mu.Unlock()
	if ended {
		return nil, c.refuse(call, op, ErrPolicyViolation, "claim on a region that has ended")
	}

	gid := trace.GoroutineID()
	cl := &Claim{region: r, root: op.ref, gid: gid}
	if debugChecks {
		if err := c.guard.claims.acquire(c.native, gid, op.ref); err != nil {
			return nil, c.refuse(call, op, ErrConcurrentAccessViolation, err.Error())
		}
	}
	r.mu.Lock()
	r.claims = append(r.claims, cl)
	r.mu.Unlock()
	trace.Point(c.tracer, trace.ScopeRegion, c.ID(), "claim", describe(op), nil)
	return cl, nil
}

// Release gives the subtree back. Idempotent; End releases what is left.
func (cl *Claim) Release() {
	if cl == nil {
		return
	}
	cl.once.Do(func() {
		if debugChecks {
			cl.region.ctx.guard.claims.release(cl.root, cl.gid)
		}
	})
}
