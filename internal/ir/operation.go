package ir

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"irguard/internal/capi"
	"irguard/internal/types"
)

// errDetached: a detach shaped call on an object without a parent.
var errDetached = errors.New("object has no parent")

// Operation is a non-uniqued handle to an operation.
type Operation struct{ object }

func (op Operation) IsLive() bool     { return op.isLive("operation") }
func (op Operation) String() string   { return describe(op) }
func (op Operation) info() handleInfo { return op.infoAs("operation") }

func (op Operation) derive(ref capi.Ref) object {
	return op.ctx.derive(ref, op.lease)
}

// Name returns the fully qualified operation name.
func (op Operation) Name() (string, error) {
	var name string
	err := op.ctx.invoke(CallOperationGetName, func() error {
		name = op.ctx.native.OperationName(op.ref)
		return nil
	}, op)
	return name, err
}

// Location returns the source location of op.
func (op Operation) Location() (Location, error) {
	var loc Location
	err := op.ctx.invoke(CallOperationGetLocation, func() error {
		loc = Location{UniquedObject{ctx: op.ctx, id: op.ctx.native.OperationLocation(op.ref)}}
		return nil
	}, op)
	return loc, err
}

// Attribute returns the attribute called name, the null Attribute when absent.
func (op Operation) Attribute(name string) (Attribute, error) {
	var attr Attribute
	err := op.ctx.invoke(CallOperationGetAttributeByName, func() error {
		id, err := op.ctx.uniq.Intern(types.MakeIdentifier(name))
		if err != nil {
			return err
		}
		if v := op.ctx.native.OperationGetAttribute(op.ref, id); v != types.NoID {
			attr = Attribute{UniquedObject{ctx: op.ctx, id: v}}
		}
		return nil
	}, op)
	return attr, err
}

// Attributes lists the attributes in insertion order.
func (op Operation) Attributes() ([]NamedAttribute, error) {
	var out []NamedAttribute
	err := op.ctx.invoke(CallOperationGetAttributes, func() error {
		for _, a := range op.ctx.native.OperationAttributes(op.ref) {
			out = append(out, NamedAttribute{
				Name:  Identifier{UniquedObject{ctx: op.ctx, id: a.Name}},
				Value: Attribute{UniquedObject{ctx: op.ctx, id: a.Value}},
			})
		}
		return nil
	}, op)
	return out, err
}

// SetAttribute sets or replaces the attribute called name.
func (op Operation) SetAttribute(name string, value Attribute) error {
	return op.ctx.invoke(CallOperationSetAttributeByName, func() error {
		id, err := op.ctx.uniq.Intern(types.MakeIdentifier(name))
		if err != nil {
			return err
		}
		op.ctx.native.OperationSetAttribute(op.ref, id, value.id)
		return nil
	}, op, value)
}

// RemoveAttribute removes the attribute called name and reports whether it
// was present.
func (op Operation) RemoveAttribute(name string) (bool, error) {
	var removed bool
	err := op.ctx.invoke(CallOperationRemoveAttributeByName, func() error {
		id, err := op.ctx.uniq.Intern(types.MakeIdentifier(name))
		if err != nil {
			return err
		}
		removed = op.ctx.native.OperationRemoveAttribute(op.ref, id)
		return nil
	}, op)
	return removed, err
}

// NumRegions counts the regions of op.
func (op Operation) NumRegions() (int, error) {
	var n int
	err := op.ctx.invoke(CallOperationGetNumRegions, func() error {
		n = op.ctx.native.OperationNumRegions(op.ref)
		return nil
	}, op)
	return n, err
}

// Region returns region i; ErrNullHandle when out of range.
func (op Operation) Region(i int) (Region, error) {
	var r Region
	err := op.ctx.invoke(CallOperationGetRegion, func() error {
		ref := op.ctx.native.OperationRegion(op.ref, i)
		if ref == capi.Null {
			return fmt.Errorf("%w: region %d out of range", ErrNullHandle, i)
		}
		r = Region{op.derive(ref)}
		return nil
	}, op)
	return r, err
}

// Regions returns all regions of op.
func (op Operation) Regions() ([]Region, error) {
	var out []Region
	err := op.ctx.invoke(CallOperationGetRegion, func() error {
		for _, ref := range op.ctx.native.Children(op.ref) {
			out = append(out, Region{op.derive(ref)})
		}
		return nil
	}, op)
	return out, err
}

// NumResults counts the results of op.
func (op Operation) NumResults() (int, error) {
	var n int
	err := op.ctx.invoke(CallOperationGetNumResults, func() error {
		n = op.ctx.native.OperationNumResults(op.ref)
		return nil
	}, op)
	return n, err
}

// Result returns result i; ErrNullHandle when out of range.
func (op Operation) Result(i int) (Value, error) {
	var v Value
	err := op.ctx.invoke(CallOperationGetResult, func() error {
		if i < 0 || i >= op.ctx.native.OperationNumResults(op.ref) {
			return fmt.Errorf("%w: result %d out of range", ErrNullHandle, i)
		}
		v = Value{object: op.object, index: i}
		return nil
	}, op)
	return v, err
}

// NumOperands counts the operands of op.
func (op Operation) NumOperands() (int, error) {
	var n int
	err := op.ctx.invoke(CallOperationGetNumOperands, func() error {
		n = op.ctx.native.OperationNumOperands(op.ref)
		return nil
	}, op)
	return n, err
}

// Operand returns operand i; ErrNullHandle when out of range.
func (op Operation) Operand(i int) (Value, error) {
	var v Value
	err := op.ctx.invoke(CallOperationGetOperand, func() error {
		nv := op.ctx.native.OperationOperand(op.ref, i)
		if nv.Owner == capi.Null {
			return fmt.Errorf("%w: operand %d out of range", ErrNullHandle, i)
		}
		v = op.ctx.wrapValue(nv, op.lease)
		return nil
	}, op)
	return v, err
}

// Block returns the block containing op, the null Block when detached.
func (op Operation) Block() (Block, error) {
	var b Block
	err := op.ctx.invoke(CallOperationGetBlock, func() error {
		b = Block{op.derive(op.ctx.native.OperationBlock(op.ref))}
		return nil
	}, op)
	return b, err
}

// ParentOperation returns the operation enclosing op, the null Operation at
// the top.
func (op Operation) ParentOperation() (Operation, error) {
	var p Operation
	err := op.ctx.invoke(CallOperationGetParentOperation, func() error {
		p = Operation{op.derive(op.ctx.native.OperationParentOperation(op.ref))}
		return nil
	}, op)
	return p, err
}

// Next returns the following operation in the block, null at the end.
func (op Operation) Next() (Operation, error) {
	var next Operation
	err := op.ctx.invoke(CallOperationGetNextInBlock, func() error {
		next = Operation{op.derive(op.ctx.native.OperationNext(op.ref))}
		return nil
	}, op)
	return next, err
}

// IsTerminator reports whether op terminates its block.
func (op Operation) IsTerminator() (bool, error) {
	var term bool
	err := op.ctx.invoke(CallOperationIsTerminator, func() error {
		term = op.ctx.native.OperationIsTerminator(op.ref)
		return nil
	}, op)
	return term, err
}

// Clone deep-copies op into a new operation owned by the caller.
func (op Operation) Clone() (Operation, error) {
	var dup Operation
	err := op.ctx.invoke(CallOperationClone, func() error {
		dup = Operation{op.ctx.created(op.ctx.native.OperationClone(op.ref), true)}
		return nil
	}, op)
	return dup, err
}

// Destroy frees op and everything nested in it. Only caller-owned operations
// (created or detached, not attached to a block) may be destroyed.
func (op Operation) Destroy() error {
	return op.ctx.invoke(CallOperationDestroy, func() error {
		if !op.ctx.isOwned(op.ref) {
			return errors.Wrap(ErrNotOwned, "operation is attached to a block")
		}
		op.ctx.native.OperationDestroy(op.ref)
		return nil
	}, op)
}

// RemoveFromParent detaches op from its block. The handle used for the call
// and its copies are invalidated; the returned handle is the caller's owned
// view of the detached operation. Handles nested inside op stay live.
func (op Operation) RemoveFromParent() (Operation, error) {
	err := op.ctx.invoke(CallOperationRemoveFromParent, func() error {
		if op.ctx.native.OperationBlock(op.ref) == capi.Null {
			return errDetached
		}
		op.ctx.native.OperationRemoveFromParent(op.ref)
		return nil
	}, op)
	if err != nil {
		return Operation{}, err
	}
	return Operation{op.ctx.derive(op.ref, op.lease)}, nil
}
