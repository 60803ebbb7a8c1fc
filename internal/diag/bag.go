package diag

import (
	"fmt"
	"sort"
	"sync"

	"fortio.org/safecast"
)

// Bag collects diagnostics up to a limit. Safe for concurrent use.
type Bag struct {
	mu      sync.Mutex
	items   []Diagnostic
	max     uint16
	dropped int
}

func NewBag(max int) *Bag {
	if max < 0 {
		max = 0
	}
	limit, err := safecast.Conv[uint16](max)
	if err != nil {
		limit = ^uint16(0)
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 64)),
		max:   limit,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= int(b.max) {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// Dropped сколько диагностик отброшено из-за лимита
func (b *Bag) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items возвращает копию диагностик.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Diagnostic(nil), b.items...)
}

// CountByCode groups diagnostics by code.
func (b *Bag) CountByCode() map[Code]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Code]int)
	for i := range b.items {
		out[b.items[i].Code]++
	}
	return out
}

// Merge объединяет диагностики из другого Bag.
// Увеличивает max, если нужно вместить все элементы.
func (b *Bag) Merge(other *Bag) {
	if other == nil || other == b {
		return
	}
	items := other.Items()
	b.mu.Lock()
	defer b.mu.Unlock()
	if total, err := safecast.Conv[uint16](len(b.items) + len(items)); err == nil && total > b.max {
		b.max = total
	}
	b.items = append(b.items, items...)
}

// Sort сортирует диагностики по: code, call, object, severity (desc), message
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	sortDiagnostics(b.items)
}

func sortDiagnostics(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i], items[j]
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		if di.Call != dj.Call {
			return di.Call < dj.Call
		}
		if di.Object != dj.Object {
			return di.Object < dj.Object
		}
		// по убыванию: Error > Warning > Info
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Message < dj.Message
	})
}

// простая дедупликация (по Code+Call+Object)
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	newitems := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Call, d.Object)
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, d)
	}
	b.items = newitems
}
