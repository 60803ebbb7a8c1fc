package types

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"pgregory.net/rapid"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.None == NoID || b.I32 == NoID || b.UnknownLoc == NoID {
		t.Fatalf("builtins not initialized")
	}
	i32, _ := in.Lookup(b.I32)
	if i32.Kind != KindInteger || i32.Width != 32 {
		t.Fatalf("expected i32, got %+v", i32)
	}
	if in.ClassOf(b.Unit) != ClassAttribute {
		t.Fatalf("unit should be an attribute")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	fn1, err := in.Intern(MakeFunction([]ID{b.I32, b.F32}, []ID{b.Index}))
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	fn2, err := in.Intern(MakeFunction([]ID{b.I32, b.F32}, []ID{b.Index}))
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	if fn1 != fn2 {
		t.Fatalf("function types should be deduplicated")
	}
	// same elements, different split between inputs and results
	fn3, err := in.Intern(MakeFunction([]ID{b.I32}, []ID{b.F32, b.Index}))
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	if fn3 == fn1 {
		t.Fatalf("input/result split must affect identity")
	}
}

func TestSignednessAffectsIdentity(t *testing.T) {
	in := NewInterner()
	signed, _ := in.Intern(MakeInteger(8, Signed))
	unsigned, _ := in.Intern(MakeInteger(8, Unsigned))
	signless, _ := in.Intern(MakeInteger(8, Signless))
	if signed == unsigned || signed == signless || unsigned == signless {
		t.Fatalf("signedness must distinguish integer types")
	}
}

func TestDictionaryIsSortedAndRejectsDuplicates(t *testing.T) {
	in := NewInterner()
	a, _ := in.Intern(MakeIdentifier("alpha"))
	z, _ := in.Intern(MakeIdentifier("zeta"))
	s, _ := in.Intern(MakeString("x"))
	u := in.Builtins().Unit

	d1, err := in.Intern(MakeDictionary([]ID{z, a}, []ID{s, u}))
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	d2, err := in.Intern(MakeDictionary([]ID{a, z}, []ID{u, s}))
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("dictionary order must not affect identity")
	}
	if got := in.Format(d1); got != `{alpha = unit, zeta = "x"}` {
		t.Fatalf("unexpected rendering %q", got)
	}
	if _, err := in.Intern(MakeDictionary([]ID{a, a}, []ID{u, s})); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestIdentifiersAreNormalized(t *testing.T) {
	in := NewInterner()
	composed, _ := in.Intern(MakeIdentifier("caf\u00e9"))
	decomposed, _ := in.Intern(MakeIdentifier("cafe\u0301"))
	if composed != decomposed {
		t.Fatalf("NFC-equivalent identifiers should unique to one object")
	}
}

func TestInternRejectsBadReferences(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	cases := []Descriptor{
		MakeInteger(0, Signless),
		MakeFloat(FloatKind(42)),
		MakeTuple([]ID{b.Unit}),
		MakeArray([]ID{b.I32}),
		MakeTypeAttr(b.True),
		MakeIntegerAttr(ID(9999), 1),
		MakeIdentifier(""),
		MakeFused(nil, NoID),
		{Kind: KindCallSiteLoc, Elems: []ID{b.UnknownLoc}},
	}
	for _, d := range cases {
		if _, err := in.Intern(d); !errors.Is(err, ErrInvalidDescriptor) {
			t.Errorf("Intern(%s) error = %v, want ErrInvalidDescriptor", d.Kind, err)
		}
	}
}

func TestFusedSingleLocationCollapses(t *testing.T) {
	in := NewInterner()
	loc, _ := in.Intern(MakeFileLineCol("a.mlir", 3, 7))
	fused, err := in.Intern(MakeFused([]ID{loc}, NoID))
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	if fused != loc {
		t.Fatalf("fused of one location should be that location")
	}
}

func TestConcurrentInternSameDescriptor(t *testing.T) {
	in := NewInterner()
	const workers = 32
	ids := make([]ID, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			s, err := in.Intern(MakeString("shared"))
			if err != nil {
				t.Errorf("intern: %v", err)
				return
			}
			arr, err := in.Intern(MakeArray([]ID{s, s}))
			if err != nil {
				t.Errorf("intern: %v", err)
				return
			}
			ids[i] = arr
		}()
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got %d, want %d", i, ids[i], ids[0])
		}
	}
}

func TestSnapshotPreservesIDs(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	fn, _ := in.Intern(MakeFunction([]ID{b.I64}, nil))
	attr, _ := in.Intern(MakeTypeAttr(fn))
	sym, _ := in.Intern(MakeFlatSymbolRef("main"))

	var buf bytes.Buffer
	if err := in.WriteSnapshot(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	restored, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, id := range []ID{fn, attr, sym} {
		if got, want := restored.Format(id), in.Format(id); got != want {
			t.Fatalf("id %d: got %q, want %q", id, got, want)
		}
	}
	again, _ := restored.Intern(MakeFlatSymbolRef("main"))
	if again != sym {
		t.Fatalf("restored store should unique to the same id")
	}
}

func TestInternIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := NewInterner()
		width := rapid.Uint32Range(1, 128).Draw(t, "width")
		sign := Signedness(rapid.IntRange(0, 2).Draw(t, "sign"))
		text := rapid.StringMatching(`[a-z_][a-z0-9_]{0,12}`).Draw(t, "name")

		ty, err := in.Intern(MakeInteger(width, sign))
		if err != nil {
			t.Fatalf("intern type: %v", err)
		}
		attr, err := in.Intern(MakeIntegerAttr(ty, rapid.Int64().Draw(t, "value")))
		if err != nil {
			t.Fatalf("intern attr: %v", err)
		}
		ident, err := in.Intern(MakeIdentifier(text))
		if err != nil {
			t.Fatalf("intern identifier: %v", err)
		}
		dict := MakeDictionary([]ID{ident}, []ID{attr})
		first, err := in.Intern(dict)
		if err != nil {
			t.Fatalf("intern dict: %v", err)
		}
		n := in.Len()
		second, _ := in.Intern(dict)
		if first != second || in.Len() != n {
			t.Fatalf("re-interning must return the same id without growing the store")
		}
	})
}
