package ir

import (
	"fmt"

	"irguard/internal/capi"
	"irguard/internal/types"
)

// Value is an SSA value: result index of an operation or argument index of
// a block. It lives as long as its owner.
type Value struct {
	object
	index int
	arg   bool
}

func (v Value) IsLive() bool { return v.isLive(v.kind()) }

func (v Value) String() string {
	if v.ref == capi.Null {
		return "value#0"
	}
	return fmt.Sprintf("%s.%d", describe(v), v.index)
}

func (v Value) info() handleInfo { return v.infoAs(v.kind()) }

func (v Value) kind() string {
	if v.arg {
		return "block"
	}
	return "operation"
}

// Index is the result or argument position.
func (v Value) Index() int { return v.index }

// IsBlockArgument reports whether v is a block argument.
func (v Value) IsBlockArgument() bool { return v.arg }

// Type returns the type of the value.
func (v Value) Type() (Type, error) {
	var ty Type
	err := v.ctx.invoke(CallValueGetType, func() error {
		var id types.ID
		if v.arg {
			id = v.ctx.native.BlockArgumentType(v.ref, v.index)
		} else {
			id = v.ctx.native.OperationResultType(v.ref, v.index)
		}
		ty = Type{UniquedObject{ctx: v.ctx, id: id}}
		return nil
	}, v)
	return ty, err
}

// OwnerOperation returns the defining operation; null for block arguments.
func (v Value) OwnerOperation() (Operation, error) {
	var op Operation
	err := v.ctx.invoke(CallValueGetOwner, func() error {
		if !v.arg {
			op = Operation{v.ctx.derive(v.ref, v.lease)}
		}
		return nil
	}, v)
	return op, err
}

// OwnerBlock returns the block of a block argument; null for results.
func (v Value) OwnerBlock() (Block, error) {
	var b Block
	err := v.ctx.invoke(CallValueGetOwner, func() error {
		if v.arg {
			b = Block{v.ctx.derive(v.ref, v.lease)}
		}
		return nil
	}, v)
	return b, err
}

func (v Value) native() capi.Value {
	return capi.Value{Owner: v.ref, Index: v.index}
}

func (c *Context) wrapValue(nv capi.Value, lease *Lease) Value {
	return Value{
		object: c.derive(nv.Owner, lease),
		index:  nv.Index,
		arg:    c.native.KindOf(nv.Owner) == capi.KindBlock,
	}
}
