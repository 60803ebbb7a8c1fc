package ir

import (
	"sync"

	"irguard/internal/capi"
)

// tracker owns the liveness of every non-uniqued object of a context. A
// handle records the generation it was issued under; it stays live exactly
// as long as the tracker's generation for its object is unchanged. Dead
// objects keep a zero tombstone so a stale ref can never be revived.
type tracker struct {
	mu   sync.RWMutex
	gens map[capi.Ref]uint64
}

func newTracker() *tracker {
	return &tracker{gens: make(map[capi.Ref]uint64, 64)}
}

// issue returns the current generation of ref, starting a fresh object at 1.
// A tombstoned ref yields 0, which is never live.
func (t *tracker) issue(ref capi.Ref) uint64 {
	t.mu.RLock()
	gen, ok := t.gens[ref]
	t.mu.RUnlock()
	if ok {
		return gen
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen, ok := t.gens[ref]; ok {
		return gen
	}
	t.gens[ref] = 1
	return 1
}

func (t *tracker) live(ref capi.Ref, gen uint64) bool {
	if gen == 0 {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gens[ref] == gen
}

// bump moves ref to a new generation; earlier handles die, the object lives on.
func (t *tracker) bump(refs ...capi.Ref) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ref := range refs {
		if gen := t.gens[ref]; gen != 0 {
			t.gens[ref] = gen + 1
		} else if _, known := t.gens[ref]; !known {
			t.gens[ref] = 2
		}
	}
}

// kill tombstones refs.
func (t *tracker) kill(refs ...capi.Ref) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ref := range refs {
		t.gens[ref] = 0
	}
}

// liveCount counts objects with a live generation.
func (t *tracker) liveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, gen := range t.gens {
		if gen != 0 {
			n++
		}
	}
	return n
}
