package ir

import (
	"fmt"
	"sync"

	"irguard/internal/capi"
)

// claimTable records which goroutine holds which operation subtree inside
// the active parallel regions. Lookups walk the native parent chain, which is
// safe because the race guard refuses every write while a region is active.
type claimTable struct {
	mu     sync.Mutex
	owners map[capi.Ref]uint64
}

func newClaimTable() *claimTable {
	return &claimTable{owners: make(map[capi.Ref]uint64)}
}

// acquire claims root for gid. Claims of another goroutine on an ancestor or
// a descendant overlap and are refused.
func (t *claimTable) acquire(native *capi.Context, gid uint64, root capi.Ref) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ref := root; ref != capi.Null; ref = native.Parent(ref) {
		if owner, ok := t.owners[ref]; ok && owner != gid {
			return fmt.Errorf("subtree already claimed by goroutine %d", owner)
		}
	}
	for claimed, owner := range t.owners {
		if owner == gid {
			continue
		}
		for ref := native.Parent(claimed); ref != capi.Null; ref = native.Parent(ref) {
			if ref == root {
				return fmt.Errorf("subtree contains a claim of goroutine %d", owner)
			}
		}
	}
	if _, ok := t.owners[root]; !ok {
		t.owners[root] = gid
	}
	return nil
}

func (t *claimTable) release(root capi.Ref, gid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owners[root] == gid {
		delete(t.owners, root)
	}
}

// covers reports whether gid holds a claim on ref or one of its ancestors.
func (t *claimTable) covers(native *capi.Context, gid uint64, ref capi.Ref) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ; ref != capi.Null; ref = native.Parent(ref) {
		if t.owners[ref] == gid {
			return true
		}
	}
	return false
}
