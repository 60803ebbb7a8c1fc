package diag

import "sync"

type dedupKey struct {
	code   Code
	sev    Severity
	call   string
	object string
	msg    string
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same code, severity, call, object and message.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	key := dedupKey{
		code:   d.Code,
		sev:    d.Severity,
		call:   d.Call,
		object: d.Object,
		msg:    d.Message,
	}
	r.mu.Lock()
	_, dup := r.seen[key]
	if !dup {
		r.seen[key] = struct{}{}
	}
	r.mu.Unlock()
	if dup {
		return
	}
	if r.next != nil {
		r.next.Report(d)
	}
}
