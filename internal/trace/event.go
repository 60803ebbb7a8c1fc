package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	ScopeContext Scope = iota + 1 // context lifecycle, policy flag
	ScopeRegion                   // parallel regions, claims
	ScopePass                     // pass over one root operation
	ScopeHandle                   // per-handle invalidation (most detailed)
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeContext:
		return "context"
	case ScopeRegion:
		return "region"
	case ScopePass:
		return "pass"
	case ScopeHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID
	Context  string            // owning ir context id
	Name     string            // e.g. "region", "pass:count-ops", "invalidate"
	Detail   string            // optional detail message
	Error    bool              // refused call
	Extra    map[string]string // extensible key-value pairs
}
