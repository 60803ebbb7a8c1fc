package capi

import (
	"irguard/internal/types"
)

// NamedAttr pairs an identifier with an attribute.
type NamedAttr struct {
	Name  types.ID
	Value types.ID
}

// Value names an SSA value: a result of an operation or an argument of a
// block, depending on the kind of Owner.
type Value struct {
	Owner Ref
	Index int
}

// OperationState collects everything needed to create an operation.
// Regions listed here must be detached; the new operation takes ownership.
type OperationState struct {
	Name       string
	Loc        types.ID
	Attrs      []NamedAttr
	Results    []types.ID
	Operands   []Value
	Regions    []Ref
	Terminator bool
}

// OperationCreate creates a detached operation.
func (c *Context) OperationCreate(st *OperationState) Ref {
	n := &node{
		kind:       KindOperation,
		name:       st.Name,
		loc:        st.Loc,
		attrs:      append([]NamedAttr(nil), st.Attrs...),
		results:    append([]types.ID(nil), st.Results...),
		operands:   append([]Value(nil), st.Operands...),
		terminator: st.Terminator,
	}
	for _, r := range st.Regions {
		c.mustBeDetached(r, KindRegion)
	}
	op := c.alloc(n)
	for _, r := range st.Regions {
		c.nodes[r].parent = op
		n.children = append(n.children, r)
	}
	return op
}

// ModuleCreateEmpty creates a module operation with one region holding one
// empty block.
func (c *Context) ModuleCreateEmpty(loc types.ID) Ref {
	body := c.BlockCreate(nil, nil)
	region := c.RegionCreate()
	c.RegionAppendOwnedBlock(region, body)
	return c.OperationCreate(&OperationState{
		Name:    ModuleOperationName,
		Loc:     loc,
		Regions: []Ref{region},
	})
}

// ModuleBody returns the body block of a module.
func (c *Context) ModuleBody(module Ref) Ref {
	region := c.OperationRegion(module, 0)
	if region == Null {
		return Null
	}
	return c.RegionFirstBlock(region)
}

// OperationDestroy frees op and everything nested in it, unlinking it from
// its parent block first.
func (c *Context) OperationDestroy(op Ref) {
	c.get(op, KindOperation)
	c.unlink(op)
	c.free(op)
}

// OperationName returns the fully qualified operation name.
func (c *Context) OperationName(op Ref) string {
	return c.get(op, KindOperation).name
}

// OperationLocation returns the location of op.
func (c *Context) OperationLocation(op Ref) types.ID {
	return c.get(op, KindOperation).loc
}

// OperationIsTerminator reports whether op terminates its block.
func (c *Context) OperationIsTerminator(op Ref) bool {
	return c.get(op, KindOperation).terminator
}

// OperationGetAttribute returns the attribute named name, types.NoID if absent.
func (c *Context) OperationGetAttribute(op Ref, name types.ID) types.ID {
	for _, a := range c.get(op, KindOperation).attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return types.NoID
}

// OperationSetAttribute sets or replaces an attribute.
func (c *Context) OperationSetAttribute(op Ref, name, value types.ID) {
	n := c.get(op, KindOperation)
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, NamedAttr{Name: name, Value: value})
}

// OperationRemoveAttribute removes an attribute and reports whether it existed.
func (c *Context) OperationRemoveAttribute(op Ref, name types.ID) bool {
	n := c.get(op, KindOperation)
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i:i], n.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// OperationAttributes returns a copy of the attribute list in insertion order.
func (c *Context) OperationAttributes(op Ref) []NamedAttr {
	return append([]NamedAttr(nil), c.get(op, KindOperation).attrs...)
}

// OperationNumRegions counts the regions of op.
func (c *Context) OperationNumRegions(op Ref) int {
	return len(c.get(op, KindOperation).children)
}

// OperationRegion returns region i of op, Null when out of range.
func (c *Context) OperationRegion(op Ref, i int) Ref {
	n := c.get(op, KindOperation)
	if i < 0 || i >= len(n.children) {
		return Null
	}
	return n.children[i]
}

// OperationNumResults counts the results of op.
func (c *Context) OperationNumResults(op Ref) int {
	return len(c.get(op, KindOperation).results)
}

// OperationResultType returns the type of result i, types.NoID when out of range.
func (c *Context) OperationResultType(op Ref, i int) types.ID {
	n := c.get(op, KindOperation)
	if i < 0 || i >= len(n.results) {
		return types.NoID
	}
	return n.results[i]
}

// OperationNumOperands counts the operands of op.
func (c *Context) OperationNumOperands(op Ref) int {
	return len(c.get(op, KindOperation).operands)
}

// OperationOperand returns operand i; the zero Value when out of range.
func (c *Context) OperationOperand(op Ref, i int) Value {
	n := c.get(op, KindOperation)
	if i < 0 || i >= len(n.operands) {
		return Value{}
	}
	return n.operands[i]
}

// OperationBlock returns the block containing op, Null when detached.
func (c *Context) OperationBlock(op Ref) Ref {
	return c.get(op, KindOperation).parent
}

// OperationParentOperation returns the operation owning the block of op.
func (c *Context) OperationParentOperation(op Ref) Ref {
	block := c.OperationBlock(op)
	if block == Null {
		return Null
	}
	return c.BlockParentOperation(block)
}

// OperationNext returns the next operation in the same block.
func (c *Context) OperationNext(op Ref) Ref {
	n := c.get(op, KindOperation)
	if n.parent == Null {
		return Null
	}
	siblings := c.nodes[n.parent].children
	if i := indexOf(siblings, op); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return Null
}

// OperationRemoveFromParent unlinks op from its block without freeing it.
func (c *Context) OperationRemoveFromParent(op Ref) {
	c.get(op, KindOperation)
	c.unlink(op)
}

// OperationClone deep-copies op into a new detached operation.
func (c *Context) OperationClone(op Ref) Ref {
	return c.clone(op, Null)
}

func (c *Context) clone(ref, parent Ref) Ref {
	src := c.get(ref, KindInvalid)
	dup := *src
	dup.parent = parent
	dup.children = nil
	dup.attrs = append([]NamedAttr(nil), src.attrs...)
	dup.results = append([]types.ID(nil), src.results...)
	dup.operands = append([]Value(nil), src.operands...)
	dup.args = append([]types.ID(nil), src.args...)
	dup.argLocs = append([]types.ID(nil), src.argLocs...)
	out := c.alloc(&dup)
	for _, child := range src.children {
		dup.children = append(dup.children, c.clone(child, out))
	}
	return out
}
