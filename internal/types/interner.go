package types

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidDescriptor is returned when a descriptor cannot be interned.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// Builtins stores IDs of objects every store is seeded with.
type Builtins struct {
	None       ID
	Index      ID
	I1         ID
	I32        ID
	I64        ID
	F32        ID
	F64        ID
	Unit       ID
	True       ID
	False      ID
	UnknownLoc ID
}

// Interner canonicalizes structurally identical descriptors to one ID.
// It is the only internally synchronized store of a context: Intern may be
// called from any number of goroutines.
type Interner struct {
	mu       sync.RWMutex
	entries  []Descriptor
	index    map[string]ID
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in objects.
func NewInterner() *Interner {
	in := &Interner{
		entries: make([]Descriptor, 1, 64), // reserve 0 as invalid sentinel
		index:   make(map[string]ID, 64),
	}
	in.builtins.None = in.mustIntern(MakeNone())
	in.builtins.Index = in.mustIntern(MakeIndex())
	in.builtins.I1 = in.mustIntern(MakeInteger(1, Signless))
	in.builtins.I32 = in.mustIntern(MakeInteger(32, Signless))
	in.builtins.I64 = in.mustIntern(MakeInteger(64, Signless))
	in.builtins.F32 = in.mustIntern(MakeFloat(F32))
	in.builtins.F64 = in.mustIntern(MakeFloat(F64))
	in.builtins.Unit = in.mustIntern(MakeUnit())
	in.builtins.True = in.mustIntern(MakeBool(true))
	in.builtins.False = in.mustIntern(MakeBool(false))
	in.builtins.UnknownLoc = in.mustIntern(MakeUnknownLoc())
	return in
}

// Builtins returns IDs of the seeded objects.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

func (in *Interner) mustIntern(d Descriptor) ID {
	id, err := in.Intern(d)
	if err != nil {
		panic(fmt.Errorf("types: seeding builtins: %w", err))
	}
	return id
}

// Intern ensures the provided descriptor has a stable ID.
func (in *Interner) Intern(d Descriptor) (ID, error) {
	d, err := in.canonicalize(d)
	if err != nil {
		return NoID, err
	}
	// fused location of a single location without metadata is that location
	if d.Kind == KindFusedLoc && len(d.Elems) == 1 && d.Ref == NoID {
		return d.Elems[0], nil
	}
	key, err := keyOf(d)
	if err != nil {
		return NoID, err
	}

	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id, nil
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	// another goroutine may have won the race between the two locks
	if id, ok := in.index[key]; ok {
		return id, nil
	}
	return in.internRaw(key, d)
}

// internRaw appends the descriptor; caller holds the write lock.
func (in *Interner) internRaw(key string, d Descriptor) (ID, error) {
	n, err := safecast.Conv[uint32](len(in.entries))
	if err != nil {
		return NoID, fmt.Errorf("len(entries) overflow: %w", err)
	}
	id := ID(n)
	in.entries = append(in.entries, d)
	in.index[key] = id
	return id, nil
}

// Lookup returns the descriptor for an ID.
func (in *Interner) Lookup(id ID) (Descriptor, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.lookupLocked(id)
}

func (in *Interner) lookupLocked(id ID) (Descriptor, bool) {
	if id == NoID || int(id) >= len(in.entries) {
		return Descriptor{}, false
	}
	return in.entries[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id ID) Descriptor {
	d, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid ID")
	}
	return d
}

// ClassOf reports the class of an interned object, ClassInvalid if unknown.
func (in *Interner) ClassOf(id ID) Class {
	d, ok := in.Lookup(id)
	if !ok {
		return ClassInvalid
	}
	return d.Kind.Class()
}

// Len returns the number of interned objects, the sentinel included.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.entries)
}

// Snapshot returns a copy of all descriptors in ID order.
func (in *Interner) Snapshot() []Descriptor {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.entries)
}

// canonicalize validates references and brings d into its canonical form.
func (in *Interner) canonicalize(d Descriptor) (Descriptor, error) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	expect := func(id ID, class Class, what string) error {
		ref, ok := in.lookupLocked(id)
		if !ok {
			return fmt.Errorf("%w: %s %s references unknown id %d", ErrInvalidDescriptor, d.Kind, what, id)
		}
		if ref.Kind.Class() != class {
			return fmt.Errorf("%w: %s %s must be a %s, got %s", ErrInvalidDescriptor, d.Kind, what, class, ref.Kind.Class())
		}
		return nil
	}
	expectAll := func(ids []ID, class Class, what string) error {
		for _, id := range ids {
			if err := expect(id, class, what); err != nil {
				return err
			}
		}
		return nil
	}

	switch d.Kind {
	case KindNone, KindIndex, KindUnitAttr, KindUnknownLoc:
		return Descriptor{Kind: d.Kind}, nil
	case KindInteger:
		if d.Width == 0 || d.Width > MaxIntegerWidth {
			return d, fmt.Errorf("%w: integer width %d out of range", ErrInvalidDescriptor, d.Width)
		}
		if d.Sign > Unsigned {
			return d, fmt.Errorf("%w: unknown signedness %d", ErrInvalidDescriptor, d.Sign)
		}
		return Descriptor{Kind: d.Kind, Width: d.Width, Sign: d.Sign}, nil
	case KindFloat:
		if d.Width < uint32(BF16) || d.Width > uint32(F64) {
			return d, fmt.Errorf("%w: unknown float kind %d", ErrInvalidDescriptor, d.Width)
		}
		return Descriptor{Kind: d.Kind, Width: d.Width}, nil
	case KindFunction:
		if int(d.Inputs) > len(d.Elems) {
			return d, fmt.Errorf("%w: function declares %d inputs but has %d elements", ErrInvalidDescriptor, d.Inputs, len(d.Elems))
		}
		return Descriptor{Kind: d.Kind, Elems: slices.Clone(d.Elems), Inputs: d.Inputs}, expectAll(d.Elems, ClassType, "element")
	case KindTuple:
		return Descriptor{Kind: d.Kind, Elems: slices.Clone(d.Elems)}, expectAll(d.Elems, ClassType, "element")
	case KindStringAttr:
		return Descriptor{Kind: d.Kind, Text: d.Text}, nil
	case KindIntegerAttr:
		if err := expect(d.Ref, ClassType, "type"); err != nil {
			return d, err
		}
		return Descriptor{Kind: d.Kind, Ref: d.Ref, Value: d.Value}, nil
	case KindBoolAttr:
		out := Descriptor{Kind: d.Kind}
		if d.Value != 0 {
			out.Value = 1
		}
		return out, nil
	case KindArrayAttr:
		return Descriptor{Kind: d.Kind, Elems: slices.Clone(d.Elems)}, expectAll(d.Elems, ClassAttribute, "element")
	case KindDictionaryAttr:
		return in.canonicalDictionary(d, expectAll)
	case KindTypeAttr:
		return Descriptor{Kind: d.Kind, Ref: d.Ref}, expect(d.Ref, ClassType, "type")
	case KindFlatSymbolRefAttr, KindIdentifier:
		if d.Text == "" {
			return d, fmt.Errorf("%w: empty %s", ErrInvalidDescriptor, d.Kind)
		}
		return Descriptor{Kind: d.Kind, Text: norm.NFC.String(d.Text)}, nil
	case KindFileLineColLoc:
		return Descriptor{Kind: d.Kind, Text: norm.NFC.String(d.Text), Line: d.Line, Col: d.Col}, nil
	case KindFusedLoc:
		if len(d.Elems) == 0 {
			return d, fmt.Errorf("%w: fused location without locations", ErrInvalidDescriptor)
		}
		if d.Ref != NoID {
			if err := expect(d.Ref, ClassAttribute, "metadata"); err != nil {
				return d, err
			}
		}
		return Descriptor{Kind: d.Kind, Elems: slices.Clone(d.Elems), Ref: d.Ref}, expectAll(d.Elems, ClassLocation, "location")
	case KindCallSiteLoc:
		if len(d.Elems) != 2 {
			return d, fmt.Errorf("%w: callsite needs callee and caller", ErrInvalidDescriptor)
		}
		return Descriptor{Kind: d.Kind, Elems: slices.Clone(d.Elems)}, expectAll(d.Elems, ClassLocation, "location")
	default:
		return d, fmt.Errorf("%w: unknown kind %s", ErrInvalidDescriptor, d.Kind)
	}
}

// canonicalDictionary sorts entries by key and rejects duplicate keys.
// Caller holds the read lock.
func (in *Interner) canonicalDictionary(d Descriptor, expectAll func([]ID, Class, string) error) (Descriptor, error) {
	if len(d.Names) != len(d.Elems) {
		return d, fmt.Errorf("%w: dictionary has %d keys and %d values", ErrInvalidDescriptor, len(d.Names), len(d.Elems))
	}
	if err := expectAll(d.Names, ClassIdentifier, "key"); err != nil {
		return d, err
	}
	if err := expectAll(d.Elems, ClassAttribute, "value"); err != nil {
		return d, err
	}
	type entry struct {
		name  string
		key   ID
		value ID
	}
	entries := make([]entry, len(d.Names))
	for i := range d.Names {
		entries[i] = entry{name: in.entries[d.Names[i]].Text, key: d.Names[i], value: d.Elems[i]}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.name < b.name:
			return -1
		case a.name > b.name:
			return 1
		}
		return 0
	})
	out := Descriptor{Kind: d.Kind, Names: make([]ID, len(entries)), Elems: make([]ID, len(entries))}
	for i, e := range entries {
		if i > 0 && entries[i-1].name == e.name {
			return d, fmt.Errorf("%w: duplicate dictionary key %q", ErrInvalidDescriptor, e.name)
		}
		out.Names[i] = e.key
		out.Elems[i] = e.value
	}
	return out, nil
}

// keyOf derives the structural key from the canonical msgpack encoding.
func keyOf(d Descriptor) (string, error) {
	data, err := msgpack.Marshal(&d)
	if err != nil {
		return "", fmt.Errorf("encode descriptor key: %w", err)
	}
	return string(data), nil
}
