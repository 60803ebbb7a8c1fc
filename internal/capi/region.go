package capi

// RegionCreate creates a detached, empty region.
func (c *Context) RegionCreate() Ref {
	return c.alloc(&node{kind: KindRegion})
}

// RegionDestroy frees a detached region and its blocks.
func (c *Context) RegionDestroy(region Ref) {
	c.mustBeDetached(region, KindRegion)
	c.free(region)
}

// RegionParentOperation returns the operation owning region, Null if detached.
func (c *Context) RegionParentOperation(region Ref) Ref {
	return c.get(region, KindRegion).parent
}

// RegionFirstBlock returns the first block, Null for an empty region.
func (c *Context) RegionFirstBlock(region Ref) Ref {
	n := c.get(region, KindRegion)
	if len(n.children) == 0 {
		return Null
	}
	return n.children[0]
}

// RegionNumBlocks counts the blocks of region.
func (c *Context) RegionNumBlocks(region Ref) int {
	return len(c.get(region, KindRegion).children)
}

// RegionAppendOwnedBlock moves a detached block to the end of region.
func (c *Context) RegionAppendOwnedBlock(region, block Ref) {
	n := c.get(region, KindRegion)
	c.mustBeDetached(block, KindBlock).parent = region
	n.children = append(n.children, block)
}

// RegionInsertOwnedBlockBefore inserts block before ref; Null ref appends.
func (c *Context) RegionInsertOwnedBlockBefore(region, ref, block Ref) {
	if ref == Null {
		c.RegionAppendOwnedBlock(region, block)
		return
	}
	c.insertBlock(region, ref, block, 0)
}

// RegionInsertOwnedBlockAfter inserts block after ref; Null ref prepends.
func (c *Context) RegionInsertOwnedBlockAfter(region, ref, block Ref) {
	if ref == Null {
		n := c.get(region, KindRegion)
		c.mustBeDetached(block, KindBlock).parent = region
		n.children = insertAt(n.children, 0, block)
		return
	}
	c.insertBlock(region, ref, block, 1)
}

func (c *Context) insertBlock(region, ref, block Ref, offset int) {
	n := c.get(region, KindRegion)
	i := indexOf(n.children, ref)
	if i < 0 {
		panic("capi: reference block is not in region")
	}
	c.mustBeDetached(block, KindBlock).parent = region
	n.children = insertAt(n.children, i+offset, block)
}

// RegionEraseBlock unlinks block from region and frees it.
func (c *Context) RegionEraseBlock(region, block Ref) {
	n := c.get(region, KindRegion)
	if c.get(block, KindBlock).parent != region {
		panic("capi: block is not in region")
	}
	n.children = remove(n.children, block)
	c.free(block)
}

// RegionTakeBody moves all blocks of src to the end of dst.
func (c *Context) RegionTakeBody(dst, src Ref) {
	d := c.get(dst, KindRegion)
	s := c.get(src, KindRegion)
	for _, b := range s.children {
		c.nodes[b].parent = dst
	}
	d.children = append(d.children, s.children...)
	s.children = nil
}
