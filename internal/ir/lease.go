package ir

import (
	"sync/atomic"
)

// Lease scopes handles to one invocation. Every handle derived through a
// leased handle carries the lease and dies when it is revoked, even though
// the objects themselves stay alive.
type Lease struct {
	revoked atomic.Bool
}

// Revoke kills every handle derived under the lease. Idempotent.
func (l *Lease) Revoke() {
	if l != nil {
		l.revoked.Store(true)
	}
}

// Revoked reports whether Revoke was called.
func (l *Lease) Revoked() bool {
	return l != nil && l.revoked.Load()
}

// Lease returns a copy of op bound to a fresh lease.
func (c *Context) Lease(op Operation) (Operation, *Lease) {
	l := &Lease{}
	op.lease = l
	return op, l
}
