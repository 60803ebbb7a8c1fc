package ir

import (
	"fmt"

	"irguard/internal/capi"
	"irguard/internal/types"
)

// Capability tells how an object is created and whether it may be mutated.
type Capability uint8

const (
	// Uniqued objects come from the synchronized uniquing store and are
	// immutable.
	Uniqued Capability = iota + 1
	// NonUniqued objects are created and mutated through unsynchronized
	// paths and need caller-side exclusion.
	NonUniqued
)

func (c Capability) String() string {
	switch c {
	case Uniqued:
		return "uniqued"
	case NonUniqued:
		return "non_uniqued"
	}
	return "unknown"
}

// Handle is implemented by every handle type of this package.
type Handle interface {
	// Context returns the owning context, nil for a null handle.
	Context() *Context
	Capability() Capability
	// IsLive never fails. It reports whether calls through the handle can
	// still succeed.
	IsLive() bool
	String() string

	info() handleInfo
}

type handleInfo struct {
	ref     capi.Ref
	gen     uint64
	lease   *Lease
	uniqued bool
	id      types.ID
	kind    string
	// shared objects (dialects) live outside every operation subtree and
	// are readable from any goroutine.
	shared bool
}

func (i handleInfo) null() bool {
	if i.uniqued {
		return i.id == types.NoID
	}
	return i.ref == capi.Null
}

// describe renders h for errors and diagnostics: "operation#12", "type#4".
func describe(h Handle) string {
	if h == nil {
		return ""
	}
	info := h.info()
	if info.uniqued {
		return fmt.Sprintf("%s#%d", info.kind, info.id)
	}
	return fmt.Sprintf("%s#%d", info.kind, info.ref)
}

// object is the shared part of non-uniqued handles: the native ref plus the
// generation it was issued under. Copies share liveness through the tracker.
type object struct {
	ctx   *Context
	ref   capi.Ref
	gen   uint64
	lease *Lease
}

func (o object) Context() *Context      { return o.ctx }
func (o object) Capability() Capability { return NonUniqued }

func (o object) infoAs(kind string) handleInfo {
	return handleInfo{ref: o.ref, gen: o.gen, lease: o.lease, kind: kind}
}

func (o object) isLive(kind string) bool {
	return o.ctx != nil && o.ref != capi.Null && o.ctx.live(o.infoAs(kind))
}

// IsNull reports whether the handle is the null handle returned by lookups
// that found nothing.
func (o object) IsNull() bool { return o.ref == capi.Null }
