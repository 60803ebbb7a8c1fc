package capi

import (
	"testing"

	"irguard/internal/types"
)

func newOp(c *Context, name string) Ref {
	return c.OperationCreate(&OperationState{Name: name, Loc: c.Uniquer().Builtins().UnknownLoc})
}

func TestModuleLayout(t *testing.T) {
	c := ContextCreate()
	m := c.ModuleCreateEmpty(c.Uniquer().Builtins().UnknownLoc)
	if got := c.OperationName(m); got != ModuleOperationName {
		t.Fatalf("module op name = %q", got)
	}
	body := c.ModuleBody(m)
	if body == Null {
		t.Fatalf("module has no body")
	}
	if c.BlockParentOperation(body) != m {
		t.Fatalf("body should be owned by the module")
	}
}

func TestBlockOperationOrder(t *testing.T) {
	c := ContextCreate()
	b := c.BlockCreate(nil, nil)
	a := newOp(c, "test.a")
	z := newOp(c, "test.z")
	m := newOp(c, "test.m")
	first := newOp(c, "test.first")

	c.BlockAppendOwnedOperation(b, a)
	c.BlockAppendOwnedOperation(b, z)
	c.BlockInsertOwnedOperationBefore(b, z, m)
	c.BlockInsertOwnedOperationAfter(b, Null, first)

	var names []string
	for op := c.BlockFirstOperation(b); op != Null; op = c.OperationNext(op) {
		names = append(names, c.OperationName(op))
	}
	want := []string{"test.first", "test.a", "test.m", "test.z"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestEraseFreesNestedObjects(t *testing.T) {
	c := ContextCreate()
	inner := c.BlockCreate(nil, nil)
	region := c.RegionCreate()
	c.RegionAppendOwnedBlock(region, inner)
	leaf := newOp(c, "test.leaf")
	c.BlockAppendOwnedOperation(inner, leaf)
	parent := c.OperationCreate(&OperationState{Name: "test.parent", Regions: []Ref{region}})

	outer := c.BlockCreate(nil, nil)
	c.BlockAppendOwnedOperation(outer, parent)
	if got := len(c.Descendants(parent)); got != 3 {
		t.Fatalf("descendants = %d, want 3", got)
	}

	c.BlockEraseOperation(outer, parent)
	for _, ref := range []Ref{parent, region, inner, leaf} {
		if c.Exists(ref) {
			t.Fatalf("object %d should be freed", ref)
		}
	}
	if !c.Exists(outer) || c.BlockFirstOperation(outer) != Null {
		t.Fatalf("outer block should survive and be empty")
	}
}

func TestUseAfterFreePanics(t *testing.T) {
	c := ContextCreate()
	op := newOp(c, "test.op")
	c.OperationDestroy(op)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on freed object")
		}
	}()
	_ = c.OperationName(op)
}

func TestAttachTwicePanics(t *testing.T) {
	c := ContextCreate()
	b1 := c.BlockCreate(nil, nil)
	b2 := c.BlockCreate(nil, nil)
	op := newOp(c, "test.op")
	c.BlockAppendOwnedOperation(b1, op)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when attaching an owned operation")
		}
	}()
	c.BlockAppendOwnedOperation(b2, op)
}

func TestRegionTakeBody(t *testing.T) {
	c := ContextCreate()
	src := c.RegionCreate()
	dst := c.RegionCreate()
	b1 := c.BlockCreate(nil, nil)
	b2 := c.BlockCreate(nil, nil)
	c.RegionAppendOwnedBlock(src, b1)
	c.RegionAppendOwnedBlock(src, b2)

	c.RegionTakeBody(dst, src)
	if c.RegionNumBlocks(src) != 0 || c.RegionNumBlocks(dst) != 2 {
		t.Fatalf("blocks not moved")
	}
	if c.BlockParentRegion(b2) != dst {
		t.Fatalf("moved block should be owned by dst")
	}
}

func TestDetachAndReattachBlock(t *testing.T) {
	c := ContextCreate()
	region := c.RegionCreate()
	b1 := c.BlockCreate(nil, nil)
	b2 := c.BlockCreate(nil, nil)
	c.RegionAppendOwnedBlock(region, b1)
	c.RegionAppendOwnedBlock(region, b2)

	c.BlockDetach(b1)
	if c.RegionFirstBlock(region) != b2 || c.BlockParentRegion(b1) != Null {
		t.Fatalf("detach did not unlink block")
	}
	c.RegionInsertOwnedBlockAfter(region, b2, b1)
	if c.BlockNextInRegion(b2) != b1 {
		t.Fatalf("block not reinserted after b2")
	}
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	c := ContextCreate()
	in := c.Uniquer()
	name, _ := in.Intern(types.MakeIdentifier("tag"))
	region := c.RegionCreate()
	c.RegionAppendOwnedBlock(region, c.BlockCreate([]types.ID{in.Builtins().I32}, nil))
	op := c.OperationCreate(&OperationState{
		Name:    "test.op",
		Attrs:   []NamedAttr{{Name: name, Value: in.Builtins().Unit}},
		Regions: []Ref{region},
	})

	dup := c.OperationClone(op)
	if dup == op || c.OperationBlock(dup) != Null {
		t.Fatalf("clone should be a new detached operation")
	}
	c.OperationSetAttribute(dup, name, in.Builtins().True)
	if c.OperationGetAttribute(op, name) != in.Builtins().Unit {
		t.Fatalf("clone shares attribute storage with the original")
	}
	dupBlock := c.RegionFirstBlock(c.OperationRegion(dup, 0))
	if c.BlockNumArguments(dupBlock) != 1 || c.BlockParentOperation(dupBlock) != dup {
		t.Fatalf("cloned region not wired to the clone")
	}
}

func TestDialectRegistry(t *testing.T) {
	c := ContextCreate()
	if c.LoadDialect("func") != Null {
		t.Fatalf("unregistered dialect should not load")
	}
	c.RegisterDialect("func")
	d := c.LoadDialect("func")
	if d == Null || c.LoadDialect("func") != d {
		t.Fatalf("loading twice should return the same dialect")
	}
	if c.DialectNamespace(d) != "func" || c.NumLoadedDialects() != 2 {
		t.Fatalf("unexpected registry state")
	}
}
