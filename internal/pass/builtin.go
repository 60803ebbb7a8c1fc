package pass

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"irguard/internal/ir"
)

// OpStats counts operations by name. Safe for concurrent use.
type OpStats struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewOpStats() *OpStats {
	return &OpStats{counts: make(map[string]int)}
}

func (s *OpStats) add(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name] += n
}

// Counts returns a copy of the counters.
func (s *OpStats) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.counts)
}

// Total sums every counter.
func (s *OpStats) Total() int {
	total := 0
	for _, n := range s.Counts() {
		total += n
	}
	return total
}

// CountOps counts every operation below each root into stats.
func CountOps(stats *OpStats) Descriptor {
	return Descriptor{
		Name: "count-ops",
		New: func() Pass {
			return &countOps{stats: stats, local: make(map[string]int)}
		},
	}
}

type countOps struct {
	stats *OpStats
	local map[string]int
}

func (p *countOps) Run(ctx context.Context, root ir.Operation) error {
	err := Walk(root, func(op ir.Operation) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := op.Name()
		if err != nil {
			return err
		}
		p.local[name]++
		return nil
	})
	if err != nil {
		return err
	}
	for name, n := range p.local {
		p.stats.add(name, n)
	}
	return nil
}

// Annotate marks every operation below each root with a unit attribute.
func Annotate(attr string) Descriptor {
	return Descriptor{
		Name:    "annotate",
		Mutates: true,
		New: func() Pass {
			return Func(func(ctx context.Context, root ir.Operation) error {
				unit, err := root.Context().UnitAttr()
				if err != nil {
					return err
				}
				return Walk(root, func(op ir.Operation) error {
					return op.SetAttribute(attr, unit)
				})
			})
		},
	}
}

// VisitedAttr is the attribute set by the annotate builtin.
const VisitedAttr = "irguard.visited"

// Builtins lists the names accepted by Lookup.
func Builtins() []string {
	names := []string{"count-ops", "annotate"}
	sort.Strings(names)
	return names
}

// Lookup resolves a comma separated pipeline of builtin pass names.
func Lookup(pipeline string, stats *OpStats) ([]Descriptor, error) {
	var out []Descriptor
	for _, name := range strings.Split(pipeline, ",") {
		switch strings.TrimSpace(name) {
		case "":
			continue
		case "count-ops":
			out = append(out, CountOps(stats))
		case "annotate":
			out = append(out, Annotate(VisitedAttr))
		default:
			return nil, errors.Newf("unknown pass %q (known: %s)", name, strings.Join(Builtins(), ", "))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("empty pass pipeline")
	}
	return out, nil
}

// SortedCounts returns the op names of counts in order.
func SortedCounts(counts map[string]int) []string {
	return slices.Sorted(maps.Keys(counts))
}
