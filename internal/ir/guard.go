package ir

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"irguard/internal/capi"
	"irguard/internal/diag"
	"irguard/internal/trace"
)

// guard is the race detector: a counter of active parallel regions and the
// subtree claims held inside them. It never blocks a call, it only refuses.
type guard struct {
	active atomic.Int32
	claims *claimTable
}

func (g *guard) isActive() bool {
	return debugChecks && g.active.Load() > 0
}

// check applies the race rules to call. targets are the handles the call
// reads or writes.
func (g *guard) check(call Call, c *Context, targets []Handle) (string, error) {
	if !g.isActive() {
		return "", nil
	}
	switch call.Category {
	case CategoryCreation:
		if call.Uniqued {
			return "", nil
		}
		return "non-uniqued creation inside a parallel region", ErrUnsynchronizedConcurrentMutation
	case CategoryMutation, CategoryInvalidating:
		return call.Category.String() + " inside a parallel region", ErrUnsynchronizedConcurrentMutation
	}

	var gid uint64
	for _, h := range targets {
		info := h.info()
		if info.uniqued || info.shared {
			continue
		}
		if gid == 0 {
			gid = trace.GoroutineID()
		}
		if !g.claims.covers(c.native, gid, info.ref) {
			return fmt.Sprintf("goroutine %d reads %s without a claim on an enclosing subtree", gid, describe(h)),
				ErrConcurrentAccessViolation
		}
	}
	return "", nil
}

// invoke is the single pipeline every guarded call goes through. targets[0],
// when present, is the object the call acts on; the rest are additionally
// read (an attached child, an operand, a reference sibling).
func (c *Context) invoke(call Call, fn func() error, targets ...Handle) error {
	if c == nil {
		return errors.Wrapf(ErrNullHandle, "%s on a null handle", call.Name)
	}
	var primary Handle
	if len(targets) > 0 {
		primary = targets[0]
	}
	if c.destroyed.Load() {
		return c.refuse(call.Name, primary, ErrUseAfterInvalidation, "context was destroyed")
	}
	for _, h := range targets {
		if h.Context() == nil || h.info().null() {
			return errors.Wrapf(ErrNullHandle, "%s: null %s handle", call.Name, h.info().kind)
		}
		if h.Context() != c {
			return c.refuse(call.Name, h, ErrNotOwned, "handle belongs to another context")
		}
		if !c.live(h.info()) {
			return c.refuse(call.Name, h, ErrUseAfterInvalidation, describe(h)+" was invalidated")
		}
	}
	if primary != nil && primary.info().uniqued &&
		(call.Category == CategoryMutation || call.Category == CategoryInvalidating) {
		return c.refuse(call.Name, primary, ErrImmutableObject, "uniqued objects cannot be mutated")
	}
	if msg, err := c.guard.check(call, c, targets); err != nil {
		return c.refuse(call.Name, primary, err, msg)
	}

	// nested objects are gone once the native call returns
	var effect []capi.Ref
	if call.Category == CategoryInvalidating && primary != nil && !primary.info().uniqued {
		effect = c.collect(call.Shape, primary.info().ref)
	}

	if err := fn(); err != nil {
		if IsViolation(err) {
			return c.refuse(call.Name, primary, err, "")
		}
		return errors.Wrapf(err, "%s", call.Name)
	}

	if effect != nil {
		c.invalidate(call, primary, effect)
	}
	return nil
}

// collect lists the objects an Invalidating call will affect.
func (c *Context) collect(shape Shape, ref capi.Ref) []capi.Ref {
	switch shape {
	case ShapeDestroy, ShapeRemove:
		return append([]capi.Ref{ref}, c.native.Descendants(ref)...)
	case ShapeTransfer:
		return c.native.Children(ref)
	case ShapeDetach:
		return []capi.Ref{ref}
	}
	return nil
}

func (c *Context) invalidate(call Call, primary Handle, refs []capi.Ref) {
	switch call.Shape {
	case ShapeDestroy, ShapeRemove:
		c.tracker.kill(refs...)
		c.mu.Lock()
		for _, ref := range refs {
			delete(c.owned, ref)
		}
		c.mu.Unlock()
	case ShapeTransfer:
		c.tracker.bump(refs...)
	case ShapeDetach:
		c.tracker.bump(refs...)
		c.setOwned(refs[0], true)
	}
	c.metrics.Invalidated(call.Shape.String(), len(refs))
	trace.Point(c.tracer, trace.ScopeHandle, c.ID(), "invalidate", call.Name, map[string]string{
		"object": describe(primary),
		"shape":  call.Shape.String(),
		"count":  strconv.Itoa(len(refs)),
	})
	c.log.V(1).Info("handles invalidated", "call", call.Name, "object", describe(primary),
		"shape", call.Shape.String(), "count", len(refs))
}

// refuse wraps a violation with its call site and reports it everywhere.
func (c *Context) refuse(call string, h Handle, sentinel error, msg string) error {
	object := describe(h)
	var err error
	switch {
	case msg == "":
		err = errors.Wrapf(sentinel, "%s(%s)", call, object)
	case object == "":
		err = errors.Wrapf(sentinel, "%s: %s", call, msg)
	default:
		err = errors.Wrapf(sentinel, "%s(%s): %s", call, object, msg)
	}

	code := CodeOf(sentinel)
	if code == diag.LifeNullHandle {
		return err
	}
	gid := trace.GoroutineID()
	diag.ReportError(c.reporter, code, err.Error()).
		WithCall(call).
		WithObject(object).
		WithContext(c.ID()).
		WithGoroutine(gid).
		Emit()
	c.metrics.Violation(code.Name())
	trace.Violation(c.tracer, trace.ScopeHandle, c.ID(), code.Name(), err.Error(), map[string]string{
		"call":   call,
		"object": object,
	})
	c.log.Error(err, "call refused", "call", call, "object", object, "code", code.ID(), "goroutine", gid)
	return err
}

func (c *Context) live(info handleInfo) bool {
	if c.destroyed.Load() {
		return false
	}
	if info.uniqued {
		return true
	}
	if info.lease.Revoked() {
		return false
	}
	return c.tracker.live(info.ref, info.gen)
}
