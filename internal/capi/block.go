package capi

import (
	"irguard/internal/types"
)

// BlockCreate creates a detached block with the given arguments. locs is
// parallel to args; missing locations are left unset.
func (c *Context) BlockCreate(args, locs []types.ID) Ref {
	argLocs := make([]types.ID, len(args))
	copy(argLocs, locs)
	return c.alloc(&node{
		kind:    KindBlock,
		args:    append([]types.ID(nil), args...),
		argLocs: argLocs,
	})
}

// BlockDestroy frees a detached block and its operations.
func (c *Context) BlockDestroy(block Ref) {
	c.mustBeDetached(block, KindBlock)
	c.free(block)
}

// BlockDetach unlinks block from its region without freeing it.
func (c *Context) BlockDetach(block Ref) {
	c.get(block, KindBlock)
	c.unlink(block)
}

// BlockParentRegion returns the region containing block, Null if detached.
func (c *Context) BlockParentRegion(block Ref) Ref {
	return c.get(block, KindBlock).parent
}

// BlockParentOperation returns the operation owning the region of block.
func (c *Context) BlockParentOperation(block Ref) Ref {
	region := c.BlockParentRegion(block)
	if region == Null {
		return Null
	}
	return c.RegionParentOperation(region)
}

// BlockNextInRegion returns the following block, Null at the end.
func (c *Context) BlockNextInRegion(block Ref) Ref {
	n := c.get(block, KindBlock)
	if n.parent == Null {
		return Null
	}
	siblings := c.nodes[n.parent].children
	if i := indexOf(siblings, block); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return Null
}

// BlockFirstOperation returns the first operation, Null for an empty block.
func (c *Context) BlockFirstOperation(block Ref) Ref {
	n := c.get(block, KindBlock)
	if len(n.children) == 0 {
		return Null
	}
	return n.children[0]
}

// BlockNumOperations counts operations in block.
func (c *Context) BlockNumOperations(block Ref) int {
	return len(c.get(block, KindBlock).children)
}

// BlockTerminator returns the last operation if it is a terminator.
func (c *Context) BlockTerminator(block Ref) Ref {
	n := c.get(block, KindBlock)
	if len(n.children) == 0 {
		return Null
	}
	last := n.children[len(n.children)-1]
	if !c.nodes[last].terminator {
		return Null
	}
	return last
}

// BlockAppendOwnedOperation moves a detached operation to the end of block.
func (c *Context) BlockAppendOwnedOperation(block, op Ref) {
	n := c.get(block, KindBlock)
	c.mustBeDetached(op, KindOperation).parent = block
	n.children = append(n.children, op)
}

// BlockInsertOwnedOperationBefore inserts op before ref; Null ref appends.
func (c *Context) BlockInsertOwnedOperationBefore(block, ref, op Ref) {
	if ref == Null {
		c.BlockAppendOwnedOperation(block, op)
		return
	}
	c.insertOperation(block, ref, op, 0)
}

// BlockInsertOwnedOperationAfter inserts op after ref; Null ref prepends.
func (c *Context) BlockInsertOwnedOperationAfter(block, ref, op Ref) {
	if ref == Null {
		n := c.get(block, KindBlock)
		c.mustBeDetached(op, KindOperation).parent = block
		n.children = insertAt(n.children, 0, op)
		return
	}
	c.insertOperation(block, ref, op, 1)
}

func (c *Context) insertOperation(block, ref, op Ref, offset int) {
	n := c.get(block, KindBlock)
	i := indexOf(n.children, ref)
	if i < 0 {
		panic("capi: reference operation is not in block")
	}
	c.mustBeDetached(op, KindOperation).parent = block
	n.children = insertAt(n.children, i+offset, op)
}

// BlockEraseOperation unlinks op from block and frees it.
func (c *Context) BlockEraseOperation(block, op Ref) {
	n := c.get(block, KindBlock)
	if c.get(op, KindOperation).parent != block {
		panic("capi: operation is not in block")
	}
	n.children = remove(n.children, op)
	c.free(op)
}

// BlockNumArguments counts block arguments.
func (c *Context) BlockNumArguments(block Ref) int {
	return len(c.get(block, KindBlock).args)
}

// BlockArgumentType returns the type of argument i, types.NoID when out of range.
func (c *Context) BlockArgumentType(block Ref, i int) types.ID {
	n := c.get(block, KindBlock)
	if i < 0 || i >= len(n.args) {
		return types.NoID
	}
	return n.args[i]
}

// BlockAddArgument appends an argument and returns its index.
func (c *Context) BlockAddArgument(block Ref, ty, loc types.ID) int {
	n := c.get(block, KindBlock)
	n.args = append(n.args, ty)
	n.argLocs = append(n.argLocs, loc)
	return len(n.args) - 1
}
