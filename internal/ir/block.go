package ir

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"irguard/internal/capi"
	"irguard/internal/types"
)

// Block is a non-uniqued handle to a block.
type Block struct{ object }

func (b Block) IsLive() bool     { return b.isLive("block") }
func (b Block) String() string   { return describe(b) }
func (b Block) info() handleInfo { return b.infoAs("block") }

// CreateBlock creates a caller-owned block with the given argument types.
// locs is parallel to args and may be shorter.
func (c *Context) CreateBlock(args []Type, locs []Location) (Block, error) {
	if len(locs) > len(args) {
		return Block{}, errors.Newf("CreateBlock: %d locations for %d arguments", len(locs), len(args))
	}
	refs := append(handles(args), handles(locs)...)
	var b Block
	err := c.invoke(CallBlockCreate, func() error {
		b = Block{c.created(c.native.BlockCreate(ids(args), ids(locs)), true)}
		return nil
	}, refs...)
	return b, err
}

// Destroy frees a caller-owned block and its operations.
func (b Block) Destroy() error {
	return b.ctx.invoke(CallBlockDestroy, func() error {
		if !b.ctx.isOwned(b.ref) {
			return errors.Wrap(ErrNotOwned, "block is attached to a region")
		}
		b.ctx.native.BlockDestroy(b.ref)
		return nil
	}, b)
}

// Detach unlinks b from its region. The old handle dies; the returned one
// is the caller's owned view. Operations inside b stay live.
func (b Block) Detach() (Block, error) {
	err := b.ctx.invoke(CallBlockDetach, func() error {
		if b.ctx.native.BlockParentRegion(b.ref) == capi.Null {
			return errDetached
		}
		b.ctx.native.BlockDetach(b.ref)
		return nil
	}, b)
	if err != nil {
		return Block{}, err
	}
	return Block{b.ctx.derive(b.ref, b.lease)}, nil
}

// AppendOwnedOperation moves a caller-owned operation to the end of b. The
// operation handle stays live; the caller no longer owns it.
func (b Block) AppendOwnedOperation(op Operation) error {
	return b.ctx.invoke(CallBlockAppendOwnedOperation, func() error {
		if err := b.ctx.adopt(b.ref, op.ref); err != nil {
			return err
		}
		b.ctx.native.BlockAppendOwnedOperation(b.ref, op.ref)
		b.ctx.setOwned(op.ref, false)
		return nil
	}, b, op)
}

// InsertOwnedOperationBefore inserts op before anchor; a null anchor appends.
func (b Block) InsertOwnedOperationBefore(anchor, op Operation) error {
	return b.insertOperation(CallBlockInsertOwnedOperationBefore, anchor, op, b.ctx.native.BlockInsertOwnedOperationBefore)
}

// InsertOwnedOperationAfter inserts op after anchor; a null anchor prepends.
func (b Block) InsertOwnedOperationAfter(anchor, op Operation) error {
	return b.insertOperation(CallBlockInsertOwnedOperationAfter, anchor, op, b.ctx.native.BlockInsertOwnedOperationAfter)
}

func (b Block) insertOperation(call Call, anchor, op Operation, insert func(block, ref, op capi.Ref)) error {
	targets := []Handle{b, op}
	if !anchor.IsNull() {
		targets = append(targets, anchor)
	}
	return b.ctx.invoke(call, func() error {
		if !anchor.IsNull() && b.ctx.native.Parent(anchor.ref) != b.ref {
			return errors.Newf("%s is not in %s", describe(anchor), describe(b))
		}
		if err := b.ctx.adopt(b.ref, op.ref); err != nil {
			return err
		}
		insert(b.ref, anchor.ref, op.ref)
		b.ctx.setOwned(op.ref, false)
		return nil
	}, targets...)
}

// EraseOperation removes op from b and frees it with everything nested in it.
func (b Block) EraseOperation(op Operation) error {
	return b.ctx.invoke(CallBlockEraseOperation, func() error {
		if b.ctx.native.Parent(op.ref) != b.ref {
			return errors.Newf("%s is not in %s", describe(op), describe(b))
		}
		b.ctx.native.BlockEraseOperation(b.ref, op.ref)
		return nil
	}, op, b)
}

// AddArgument appends an argument and returns it.
func (b Block) AddArgument(ty Type, loc Location) (Value, error) {
	targets := []Handle{b, ty}
	if !loc.IsNull() {
		targets = append(targets, loc)
	}
	var v Value
	err := b.ctx.invoke(CallBlockAddArgument, func() error {
		i := b.ctx.native.BlockAddArgument(b.ref, ty.id, loc.id)
		v = Value{object: b.object, index: i, arg: true}
		return nil
	}, targets...)
	return v, err
}

// NumArguments counts block arguments.
func (b Block) NumArguments() (int, error) {
	var n int
	err := b.ctx.invoke(CallBlockGetNumArguments, func() error {
		n = b.ctx.native.BlockNumArguments(b.ref)
		return nil
	}, b)
	return n, err
}

// Argument returns argument i; ErrNullHandle when out of range.
func (b Block) Argument(i int) (Value, error) {
	var v Value
	err := b.ctx.invoke(CallBlockGetArgument, func() error {
		if b.ctx.native.BlockArgumentType(b.ref, i) == types.NoID {
			return fmt.Errorf("%w: argument %d out of range", ErrNullHandle, i)
		}
		v = Value{object: b.object, index: i, arg: true}
		return nil
	}, b)
	return v, err
}

// FirstOperation returns the first operation, null for an empty block.
func (b Block) FirstOperation() (Operation, error) {
	var op Operation
	err := b.ctx.invoke(CallBlockGetFirstOperation, func() error {
		op = Operation{b.ctx.derive(b.ctx.native.BlockFirstOperation(b.ref), b.lease)}
		return nil
	}, b)
	return op, err
}

// Operations returns the operations of b in order.
func (b Block) Operations() ([]Operation, error) {
	var out []Operation
	err := b.ctx.invoke(CallBlockGetFirstOperation, func() error {
		for _, ref := range b.ctx.native.Children(b.ref) {
			out = append(out, Operation{b.ctx.derive(ref, b.lease)})
		}
		return nil
	}, b)
	return out, err
}

// NumOperations counts the operations of b.
func (b Block) NumOperations() (int, error) {
	var n int
	err := b.ctx.invoke(CallBlockGetFirstOperation, func() error {
		n = b.ctx.native.BlockNumOperations(b.ref)
		return nil
	}, b)
	return n, err
}

// NextInRegion returns the following block, null at the end.
func (b Block) NextInRegion() (Block, error) {
	var next Block
	err := b.ctx.invoke(CallBlockGetNextInRegion, func() error {
		next = Block{b.ctx.derive(b.ctx.native.BlockNextInRegion(b.ref), b.lease)}
		return nil
	}, b)
	return next, err
}

// Terminator returns the terminating operation, null when there is none.
func (b Block) Terminator() (Operation, error) {
	var op Operation
	err := b.ctx.invoke(CallBlockGetTerminator, func() error {
		op = Operation{b.ctx.derive(b.ctx.native.BlockTerminator(b.ref), b.lease)}
		return nil
	}, b)
	return op, err
}

// ParentRegion returns the region containing b, null when detached.
func (b Block) ParentRegion() (Region, error) {
	var r Region
	err := b.ctx.invoke(CallBlockGetParentRegion, func() error {
		r = Region{b.ctx.derive(b.ctx.native.BlockParentRegion(b.ref), b.lease)}
		return nil
	}, b)
	return r, err
}

// ParentOperation returns the operation owning the region of b.
func (b Block) ParentOperation() (Operation, error) {
	var op Operation
	err := b.ctx.invoke(CallBlockGetParentOperation, func() error {
		op = Operation{b.ctx.derive(b.ctx.native.BlockParentOperation(b.ref), b.lease)}
		return nil
	}, b)
	return op, err
}
