package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"irguard/internal/types"
)

func TestUniquedReads(t *testing.T) {
	c, _ := newTestContext(t)
	i32, err := c.IntegerType(32, types.Signless)
	require.NoError(t, err)
	f32, err := c.FloatType(types.F32)
	require.NoError(t, err)
	fn, err := c.FunctionType([]Type{i32, i32}, []Type{f32})
	require.NoError(t, err)

	isFn, err := fn.IsFunction()
	require.NoError(t, err)
	require.True(t, isFn)
	ins, err := fn.FunctionInputs()
	require.NoError(t, err)
	require.Equal(t, []Type{i32, i32}, ins)
	outs, err := fn.FunctionResults()
	require.NoError(t, err)
	require.Equal(t, []Type{f32}, outs)
	_, err = i32.FunctionInputs()
	require.Error(t, err)

	width, err := i32.IntegerWidth()
	require.NoError(t, err)
	require.Equal(t, uint32(32), width)
	require.Equal(t, "(i32, i32) -> f32", fn.String())

	attr, err := c.IntegerAttr(i32, 5)
	require.NoError(t, err)
	v, err := attr.IntegerValue()
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
	_, err = attr.StringValue()
	require.Error(t, err)
	require.Equal(t, "5 : i32", attr.String())

	ta, err := c.TypeAttr(fn)
	require.NoError(t, err)
	back, err := ta.TypeValue()
	require.NoError(t, err)
	require.True(t, back == fn)

	s, err := c.StringAttr("hello")
	require.NoError(t, err)
	arr, err := c.ArrayAttr([]Attribute{s, attr})
	require.NoError(t, err)
	elems, err := arr.Elements()
	require.NoError(t, err)
	require.Equal(t, []Attribute{s, attr}, elems)
	isArr, err := arr.Is(types.KindArrayAttr)
	require.NoError(t, err)
	require.True(t, isArr)

	id, err := c.Identifier("tag")
	require.NoError(t, err)
	name, err := id.Name()
	require.NoError(t, err)
	require.Equal(t, "tag", name)
}

func TestDictionaryAttrIsOrderInsensitive(t *testing.T) {
	c, _ := newTestContext(t)
	alpha, err := c.Identifier("alpha")
	require.NoError(t, err)
	zeta, err := c.Identifier("zeta")
	require.NoError(t, err)
	unit, err := c.UnitAttr()
	require.NoError(t, err)
	yes, err := c.BoolAttr(true)
	require.NoError(t, err)

	d1, err := c.DictionaryAttr([]NamedAttribute{{zeta, yes}, {alpha, unit}})
	require.NoError(t, err)
	d2, err := c.DictionaryAttr([]NamedAttribute{{alpha, unit}, {zeta, yes}})
	require.NoError(t, err)
	require.True(t, d1 == d2)

	_, err = c.DictionaryAttr([]NamedAttribute{{alpha, unit}, {alpha, yes}})
	require.ErrorIs(t, err, types.ErrInvalidDescriptor)
}

func TestLocations(t *testing.T) {
	c, _ := newTestContext(t)
	unknown, err := c.UnknownLoc()
	require.NoError(t, err)
	require.Equal(t, c.Uniquer().Builtins().UnknownLoc, unknown.ID())

	callee, err := c.FileLineColLoc("a.mlir", 1, 2)
	require.NoError(t, err)
	caller, err := c.FileLineColLoc("b.mlir", 3, 4)
	require.NoError(t, err)
	site, err := c.CallSiteLoc(callee, caller)
	require.NoError(t, err)
	kind, err := site.Kind()
	require.NoError(t, err)
	require.Equal(t, types.KindCallSiteLoc, kind)

	fused, err := c.FusedLoc([]Location{callee, caller}, Attribute{})
	require.NoError(t, err)
	require.False(t, fused.IsNull())

	op, err := c.CreateOperation(NewOperationState("test.op", callee))
	require.NoError(t, err)
	loc, err := op.Location()
	require.NoError(t, err)
	require.True(t, loc == callee)
	require.NoError(t, op.Destroy())
}

func TestOperationAttributes(t *testing.T) {
	c, _ := newTestContext(t)
	op, err := c.CreateOperation(NewOperationState("test.op", Location{}))
	require.NoError(t, err)
	s, err := c.StringAttr("v")
	require.NoError(t, err)

	absent, err := op.Attribute("missing")
	require.NoError(t, err)
	require.True(t, absent.IsNull())

	require.NoError(t, op.SetAttribute("b", s))
	require.NoError(t, op.SetAttribute("a", s))
	attrs, err := op.Attributes()
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	first, err := attrs[0].Name.Name()
	require.NoError(t, err)
	require.Equal(t, "b", first)

	removed, err := op.RemoveAttribute("b")
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = op.RemoveAttribute("b")
	require.NoError(t, err)
	require.False(t, removed)

	require.ErrorIs(t, op.SetAttribute("x", Attribute{}), ErrNullHandle)

	key, err := c.Identifier("k")
	require.NoError(t, err)
	_, err = c.CreateOperation(NewOperationState("test.dup", Location{}).AddAttribute(key, s).AddAttribute(key, s))
	require.Error(t, err)
	require.NoError(t, op.Destroy())
}

func TestValues(t *testing.T) {
	c, _ := newTestContext(t)
	i32, err := c.IntegerType(32, types.Signless)
	require.NoError(t, err)
	blk, err := c.CreateBlock([]Type{i32}, nil)
	require.NoError(t, err)
	arg, err := blk.Argument(0)
	require.NoError(t, err)
	ty, err := arg.Type()
	require.NoError(t, err)
	require.True(t, ty == i32)
	_, err = blk.Argument(1)
	require.ErrorIs(t, err, ErrNullHandle)

	def, err := c.CreateOperation(NewOperationState("test.def", Location{}).AddResults(i32))
	require.NoError(t, err)
	res, err := def.Result(0)
	require.NoError(t, err)
	use, err := c.CreateOperation(NewOperationState("test.use", Location{}).AddOperands(res, arg).SetTerminator())
	require.NoError(t, err)

	operand, err := use.Operand(0)
	require.NoError(t, err)
	owner, err := operand.OwnerOperation()
	require.NoError(t, err)
	name, err := owner.Name()
	require.NoError(t, err)
	require.Equal(t, "test.def", name)
	operand, err = use.Operand(1)
	require.NoError(t, err)
	require.True(t, operand.IsBlockArgument())
	ownerBlock, err := operand.OwnerBlock()
	require.NoError(t, err)
	require.Equal(t, blk.ref, ownerBlock.ref)
	_, err = use.Operand(2)
	require.ErrorIs(t, err, ErrNullHandle)

	require.NoError(t, blk.AppendOwnedOperation(def))
	require.NoError(t, blk.AppendOwnedOperation(use))
	term, err := blk.Terminator()
	require.NoError(t, err)
	require.Equal(t, use.ref, term.ref)

	extra, err := blk.AddArgument(i32, Location{})
	require.NoError(t, err)
	require.Equal(t, 1, extra.Index())

	require.NoError(t, blk.EraseOperation(def))
	require.False(t, res.IsLive())
	operand, err = use.Operand(0)
	require.NoError(t, err)
	require.False(t, operand.IsLive(), "operands of erased definitions are dead")
	_, err = operand.Type()
	require.ErrorIs(t, err, ErrUseAfterInvalidation)

	require.NoError(t, blk.Destroy())
	require.NoError(t, c.Destroy())
}

func TestModuleLookupSymbol(t *testing.T) {
	c, _ := newTestContext(t)
	m, err := c.CreateModule(Location{})
	require.NoError(t, err)
	body, err := m.Body()
	require.NoError(t, err)
	symName, err := c.Identifier(SymbolAttributeName)
	require.NoError(t, err)

	for _, sym := range []string{"foo", "bar"} {
		attr, err := c.StringAttr(sym)
		require.NoError(t, err)
		fn, err := c.CreateOperation(NewOperationState("func.func", Location{}).AddAttribute(symName, attr))
		require.NoError(t, err)
		require.NoError(t, body.AppendOwnedOperation(fn))
	}

	bar, err := m.LookupSymbol("bar")
	require.NoError(t, err)
	require.False(t, bar.IsNull())
	next, err := bar.Next()
	require.NoError(t, err)
	require.True(t, next.IsNull())

	missing, err := m.LookupSymbol("baz")
	require.NoError(t, err)
	require.True(t, missing.IsNull())

	root, err := m.Operation()
	require.NoError(t, err)
	name, err := root.Name()
	require.NoError(t, err)
	require.Equal(t, "builtin.module", name)
	parent, err := bar.ParentOperation()
	require.NoError(t, err)
	require.Equal(t, root.ref, parent.ref)

	require.NoError(t, m.Destroy())
	require.False(t, bar.IsLive())
	require.NoError(t, c.Destroy())
}

func TestBlockCursor(t *testing.T) {
	c, _ := newTestContext(t)
	region, err := c.CreateRegion()
	require.NoError(t, err)
	blocks := make([]Block, 3)
	for i := range blocks {
		blocks[i], err = c.CreateBlock(nil, nil)
		require.NoError(t, err)
	}
	require.NoError(t, region.AppendOwnedBlock(blocks[0]))
	require.NoError(t, region.AppendOwnedBlock(blocks[1]))

	cur, err := region.Cursor()
	require.NoError(t, err)
	require.Equal(t, blocks[0].ref, cur.Get().ref)
	require.NoError(t, cur.MoveNext())
	require.Equal(t, blocks[1].ref, cur.Get().ref)

	require.NoError(t, cur.InsertBefore(blocks[2]))
	order := func() []any {
		all, err := region.Blocks()
		require.NoError(t, err)
		var out []any
		for _, b := range all {
			out = append(out, b.ref)
		}
		return out
	}
	require.Equal(t, []any{blocks[0].ref, blocks[2].ref, blocks[1].ref}, order())

	detached, err := cur.Detach()
	require.NoError(t, err)
	require.True(t, cur.Get().IsNull())
	require.False(t, blocks[1].IsLive())
	require.True(t, detached.IsLive())
	require.ErrorIs(t, cur.MoveNext(), ErrNullHandle)
	require.ErrorIs(t, cur.InsertAfter(detached), ErrNullHandle)

	require.NoError(t, cur.InsertBefore(detached))
	require.Equal(t, []any{blocks[0].ref, blocks[2].ref, blocks[1].ref}, order())

	require.NoError(t, region.EraseBlock(blocks[2]))
	require.False(t, blocks[2].IsLive())
	require.Equal(t, []any{blocks[0].ref, blocks[1].ref}, order())

	require.NoError(t, region.Destroy())
	require.NoError(t, c.Destroy())
}

func TestCloneIsOwnedAndIndependent(t *testing.T) {
	c, _ := newTestContext(t)
	m, a, _, _ := buildTree(t, c)
	dup, err := a.Clone()
	require.NoError(t, err)
	require.Equal(t, 2, c.OwnedRoots())
	blk, err := dup.Block()
	require.NoError(t, err)
	require.True(t, blk.IsNull())

	require.NoError(t, dup.Destroy())
	require.True(t, a.IsLive())
	require.NoError(t, m.Destroy())
	require.NoError(t, c.Destroy())
}
