package ir

import (
	"github.com/cockroachdb/errors"

	"irguard/internal/capi"
)

// Region is a non-uniqued handle to a region.
type Region struct{ object }

func (r Region) IsLive() bool     { return r.isLive("region") }
func (r Region) String() string   { return describe(r) }
func (r Region) info() handleInfo { return r.infoAs("region") }

// CreateRegion creates an empty region owned by the caller.
func (c *Context) CreateRegion() (Region, error) {
	var r Region
	err := c.invoke(CallRegionCreate, func() error {
		r = Region{c.created(c.native.RegionCreate(), true)}
		return nil
	})
	return r, err
}

// Destroy frees a caller-owned region and its blocks.
func (r Region) Destroy() error {
	return r.ctx.invoke(CallRegionDestroy, func() error {
		if !r.ctx.isOwned(r.ref) {
			return errors.Wrap(ErrNotOwned, "region is attached to an operation")
		}
		r.ctx.native.RegionDestroy(r.ref)
		return nil
	}, r)
}

// AppendOwnedBlock moves a caller-owned block to the end of r. The block
// handle stays live; the block is no longer owned by the caller.
func (r Region) AppendOwnedBlock(b Block) error {
	return r.ctx.invoke(CallRegionAppendOwnedBlock, func() error {
		if err := r.ctx.adopt(r.ref, b.ref); err != nil {
			return err
		}
		r.ctx.native.RegionAppendOwnedBlock(r.ref, b.ref)
		r.ctx.setOwned(b.ref, false)
		return nil
	}, r, b)
}

// InsertOwnedBlockBefore inserts b before anchor; a null anchor appends.
func (r Region) InsertOwnedBlockBefore(anchor, b Block) error {
	return r.insertBlock(CallRegionInsertOwnedBlockBefore, anchor, b, r.ctx.native.RegionInsertOwnedBlockBefore)
}

// InsertOwnedBlockAfter inserts b after anchor; a null anchor prepends.
func (r Region) InsertOwnedBlockAfter(anchor, b Block) error {
	return r.insertBlock(CallRegionInsertOwnedBlockAfter, anchor, b, r.ctx.native.RegionInsertOwnedBlockAfter)
}

func (r Region) insertBlock(call Call, anchor, b Block, insert func(region, ref, block capi.Ref)) error {
	targets := []Handle{r, b}
	if !anchor.IsNull() {
		targets = append(targets, anchor)
	}
	return r.ctx.invoke(call, func() error {
		if !anchor.IsNull() && r.ctx.native.Parent(anchor.ref) != r.ref {
			return errors.Newf("%s is not in %s", describe(anchor), describe(r))
		}
		if err := r.ctx.adopt(r.ref, b.ref); err != nil {
			return err
		}
		insert(r.ref, anchor.ref, b.ref)
		r.ctx.setOwned(b.ref, false)
		return nil
	}, targets...)
}

// NumBlocks counts the blocks of r.
func (r Region) NumBlocks() (int, error) {
	var n int
	err := r.ctx.invoke(CallRegionGetFirstBlock, func() error {
		n = r.ctx.native.RegionNumBlocks(r.ref)
		return nil
	}, r)
	return n, err
}

// FirstBlock returns the first block, the null Block for an empty region.
func (r Region) FirstBlock() (Block, error) {
	var b Block
	err := r.ctx.invoke(CallRegionGetFirstBlock, func() error {
		b = Block{r.ctx.derive(r.ctx.native.RegionFirstBlock(r.ref), r.lease)}
		return nil
	}, r)
	return b, err
}

// Blocks returns the blocks of r in order.
func (r Region) Blocks() ([]Block, error) {
	var out []Block
	err := r.ctx.invoke(CallRegionGetFirstBlock, func() error {
		for _, ref := range r.ctx.native.Children(r.ref) {
			out = append(out, Block{r.ctx.derive(ref, r.lease)})
		}
		return nil
	}, r)
	return out, err
}

// ParentOperation returns the operation owning r, null when detached.
func (r Region) ParentOperation() (Operation, error) {
	var op Operation
	err := r.ctx.invoke(CallRegionGetParentOperation, func() error {
		op = Operation{r.ctx.derive(r.ctx.native.RegionParentOperation(r.ref), r.lease)}
		return nil
	}, r)
	return op, err
}

// TakeBody moves every block of src to the end of r. Handles to the moved
// blocks obtained through src are invalidated; navigate from r again.
// r must not be nested inside src.
func (r Region) TakeBody(src Region) error {
	return r.ctx.invoke(CallRegionTakeBody, func() error {
		if src.ref == r.ref {
			return errors.New("cannot take the body of the same region")
		}
		for ref := r.ctx.native.Parent(r.ref); ref != capi.Null; ref = r.ctx.native.Parent(ref) {
			if ref == src.ref {
				return errors.Newf("moving the body of %s into %s would create a cycle", describe(src), describe(r))
			}
		}
		r.ctx.native.RegionTakeBody(r.ref, src.ref)
		return nil
	}, src, r)
}

// EraseBlock removes b from r and frees it with everything nested in it.
func (r Region) EraseBlock(b Block) error {
	return r.ctx.invoke(CallRegionEraseBlock, func() error {
		if r.ctx.native.Parent(b.ref) != r.ref {
			return errors.Newf("%s is not in %s", describe(b), describe(r))
		}
		r.ctx.native.RegionEraseBlock(r.ref, b.ref)
		return nil
	}, b, r)
}

// Cursor returns a cursor positioned on the first block of r.
func (r Region) Cursor() (*BlockCursor, error) {
	first, err := r.FirstBlock()
	if err != nil {
		return nil, err
	}
	return &BlockCursor{region: r, current: first}, nil
}

// adopt checks that child may be attached under parent: the caller owns it
// and it is not an ancestor of parent.
func (c *Context) adopt(parent, child capi.Ref) error {
	if !c.isOwned(child) {
		return errors.Wrapf(ErrNotOwned, "%s#%d already has a parent", c.native.KindOf(child), child)
	}
	for ref := parent; ref != capi.Null; ref = c.native.Parent(ref) {
		if ref == child {
			return errors.Newf("attaching %s#%d would create a cycle", c.native.KindOf(child), child)
		}
	}
	return nil
}
