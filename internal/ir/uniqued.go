package ir

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"irguard/internal/types"
)

// UniquedObject is the shared part of Type, Attribute, Identifier and
// Location handles. Two handles of one context compare equal with == exactly
// when they were created from structurally identical descriptors.
type UniquedObject struct {
	ctx *Context
	id  types.ID
}

func (u UniquedObject) Context() *Context      { return u.ctx }
func (u UniquedObject) Capability() Capability { return Uniqued }

// ID returns the interned identity.
func (u UniquedObject) ID() types.ID { return u.id }

// IsNull reports whether the handle is the null handle.
func (u UniquedObject) IsNull() bool { return u.id == types.NoID }

// IsLive reports whether the context is still alive. Uniqued objects are
// never destroyed individually.
func (u UniquedObject) IsLive() bool {
	return u.ctx != nil && u.id != types.NoID && !u.ctx.destroyed.Load()
}

// Equal is identity after interning.
func (u UniquedObject) Equal(o UniquedObject) bool {
	return u == o
}

func (u UniquedObject) String() string {
	if u.ctx == nil || u.id == types.NoID {
		return "<<null>>"
	}
	if !u.IsLive() {
		return fmt.Sprintf("%s#%d <<invalidated>>", u.ctx.uniq.ClassOf(u.id), u.id)
	}
	return u.ctx.uniq.Format(u.id)
}

func (u UniquedObject) info() handleInfo {
	kind := "uniqued"
	if u.ctx != nil && u.id != types.NoID {
		kind = u.ctx.uniq.ClassOf(u.id).String()
	}
	return handleInfo{uniqued: true, id: u.id, kind: kind}
}

// Descriptor returns the canonical structural description.
func (u UniquedObject) Descriptor() (types.Descriptor, error) {
	var d types.Descriptor
	err := u.ctx.invoke(CallUniquedInspect, func() error {
		d = u.ctx.uniq.MustLookup(u.id)
		return nil
	}, u)
	return d, err
}

// Kind returns the kind of the uniqued object.
func (u UniquedObject) Kind() (types.Kind, error) {
	d, err := u.Descriptor()
	return d.Kind, err
}

// Type is a uniqued type handle.
type Type struct{ UniquedObject }

// Attribute is a uniqued attribute handle.
type Attribute struct{ UniquedObject }

// Identifier is a uniqued identifier handle.
type Identifier struct{ UniquedObject }

// Location is a uniqued location handle.
type Location struct{ UniquedObject }

// NamedAttribute pairs an identifier with an attribute.
type NamedAttribute struct {
	Name  Identifier
	Value Attribute
}

// CreateUniqued interns d and returns a handle of the matching family. It is
// safe to call from any goroutine, inside parallel regions included.
func (c *Context) CreateUniqued(d types.Descriptor) (UniquedObject, error) {
	call, ok := uniquedCalls[d.Kind.Class()]
	if !ok {
		return UniquedObject{}, errors.Wrapf(types.ErrInvalidDescriptor, "CreateUniqued: kind %s", d.Kind)
	}
	return c.intern(call, d)
}

var uniquedCalls = map[types.Class]Call{
	types.ClassType:       CallTypeGet,
	types.ClassAttribute:  CallAttributeGet,
	types.ClassIdentifier: CallIdentifierGet,
	types.ClassLocation:   CallLocationGet,
}

// intern runs a uniqued creation. refs are the handles the descriptor
// refers to; they must be live and belong to c.
func (c *Context) intern(call Call, d types.Descriptor, refs ...Handle) (UniquedObject, error) {
	var id types.ID
	err := c.invoke(call, func() error {
		var err error
		id, err = c.uniq.Intern(d)
		return err
	}, refs...)
	if err != nil {
		return UniquedObject{}, err
	}
	c.metrics.HandleCreated(Uniqued.String())
	return UniquedObject{ctx: c, id: id}, nil
}

func (c *Context) internType(d types.Descriptor, refs ...Handle) (Type, error) {
	u, err := c.intern(CallTypeGet, d, refs...)
	return Type{u}, err
}

func (c *Context) internAttr(d types.Descriptor, refs ...Handle) (Attribute, error) {
	u, err := c.intern(CallAttributeGet, d, refs...)
	return Attribute{u}, err
}

func (c *Context) internLoc(d types.Descriptor, refs ...Handle) (Location, error) {
	u, err := c.intern(CallLocationGet, d, refs...)
	return Location{u}, err
}

// Types ---------------------------------------------------------------------

func (c *Context) NoneType() (Type, error)  { return c.internType(types.MakeNone()) }
func (c *Context) IndexType() (Type, error) { return c.internType(types.MakeIndex()) }

func (c *Context) IntegerType(width uint32, sign types.Signedness) (Type, error) {
	return c.internType(types.MakeInteger(width, sign))
}

func (c *Context) FloatType(kind types.FloatKind) (Type, error) {
	return c.internType(types.MakeFloat(kind))
}

// FunctionType returns (inputs) -> (results).
func (c *Context) FunctionType(inputs, results []Type) (Type, error) {
	refs := make([]Handle, 0, len(inputs)+len(results))
	for _, t := range inputs {
		refs = append(refs, t)
	}
	for _, t := range results {
		refs = append(refs, t)
	}
	return c.internType(types.MakeFunction(ids(inputs), ids(results)), refs...)
}

func (c *Context) TupleType(elems []Type) (Type, error) {
	return c.internType(types.MakeTuple(ids(elems)), handles(elems)...)
}

// Attributes ----------------------------------------------------------------

func (c *Context) StringAttr(s string) (Attribute, error) { return c.internAttr(types.MakeString(s)) }
func (c *Context) BoolAttr(b bool) (Attribute, error)     { return c.internAttr(types.MakeBool(b)) }
func (c *Context) UnitAttr() (Attribute, error)           { return c.internAttr(types.MakeUnit()) }

func (c *Context) IntegerAttr(ty Type, v int64) (Attribute, error) {
	return c.internAttr(types.MakeIntegerAttr(ty.id, v), ty)
}

func (c *Context) ArrayAttr(elems []Attribute) (Attribute, error) {
	return c.internAttr(types.MakeArray(ids(elems)), handles(elems)...)
}

// DictionaryAttr sorts entries by name; duplicate names are an error.
func (c *Context) DictionaryAttr(entries []NamedAttribute) (Attribute, error) {
	names := make([]types.ID, len(entries))
	values := make([]types.ID, len(entries))
	refs := make([]Handle, 0, 2*len(entries))
	for i, e := range entries {
		names[i], values[i] = e.Name.id, e.Value.id
		refs = append(refs, e.Name, e.Value)
	}
	return c.internAttr(types.MakeDictionary(names, values), refs...)
}

func (c *Context) TypeAttr(ty Type) (Attribute, error) {
	return c.internAttr(types.MakeTypeAttr(ty.id), ty)
}

func (c *Context) FlatSymbolRefAttr(symbol string) (Attribute, error) {
	return c.internAttr(types.MakeFlatSymbolRef(symbol))
}

// Identifiers and locations -------------------------------------------------

func (c *Context) Identifier(name string) (Identifier, error) {
	u, err := c.intern(CallIdentifierGet, types.MakeIdentifier(name))
	return Identifier{u}, err
}

func (c *Context) UnknownLoc() (Location, error) { return c.internLoc(types.MakeUnknownLoc()) }

func (c *Context) FileLineColLoc(file string, line, col uint32) (Location, error) {
	return c.internLoc(types.MakeFileLineCol(file, line, col))
}

// FusedLoc fuses locs; metadata may be the null Attribute.
func (c *Context) FusedLoc(locs []Location, metadata Attribute) (Location, error) {
	refs := handles(locs)
	if !metadata.IsNull() {
		refs = append(refs, metadata)
	}
	return c.internLoc(types.MakeFused(ids(locs), metadata.id), refs...)
}

func (c *Context) CallSiteLoc(callee, caller Location) (Location, error) {
	return c.internLoc(types.MakeCallSite(callee.id, caller.id), callee, caller)
}

// Typed reads ---------------------------------------------------------------

// IsFunction reports whether t is a function type.
func (t Type) IsFunction() (bool, error) {
	k, err := t.Kind()
	return k == types.KindFunction, err
}

// IsInteger reports whether t is an integer type.
func (t Type) IsInteger() (bool, error) {
	k, err := t.Kind()
	return k == types.KindInteger, err
}

// IntegerWidth returns the bit width of an integer type.
func (t Type) IntegerWidth() (uint32, error) {
	d, err := t.Descriptor()
	if err != nil {
		return 0, err
	}
	if d.Kind != types.KindInteger {
		return 0, errors.Newf("%s is not an integer type", d.Kind)
	}
	return d.Width, nil
}

// FunctionInputs returns the input types of a function type.
func (t Type) FunctionInputs() ([]Type, error) {
	d, err := t.functionDescriptor()
	if err != nil {
		return nil, err
	}
	return wrapTypes(t.ctx, d.FunctionInputs()), nil
}

// FunctionResults returns the result types of a function type.
func (t Type) FunctionResults() ([]Type, error) {
	d, err := t.functionDescriptor()
	if err != nil {
		return nil, err
	}
	return wrapTypes(t.ctx, d.FunctionResults()), nil
}

func (t Type) functionDescriptor() (types.Descriptor, error) {
	d, err := t.Descriptor()
	if err != nil {
		return d, err
	}
	if d.Kind != types.KindFunction {
		return d, errors.Newf("%s is not a function type", d.Kind)
	}
	return d, nil
}

// Is reports whether a has the given kind.
func (a Attribute) Is(kind types.Kind) (bool, error) {
	k, err := a.Kind()
	return k == kind, err
}

// StringValue returns the payload of a string attribute.
func (a Attribute) StringValue() (string, error) {
	d, err := a.expect(types.KindStringAttr)
	return d.Text, err
}

// IntegerValue returns the payload of an integer attribute.
func (a Attribute) IntegerValue() (int64, error) {
	d, err := a.expect(types.KindIntegerAttr)
	return d.Value, err
}

// BoolValue returns the payload of a bool attribute.
func (a Attribute) BoolValue() (bool, error) {
	d, err := a.expect(types.KindBoolAttr)
	return d.Value != 0, err
}

// TypeValue returns the type wrapped by a type attribute.
func (a Attribute) TypeValue() (Type, error) {
	d, err := a.expect(types.KindTypeAttr)
	if err != nil {
		return Type{}, err
	}
	return Type{UniquedObject{ctx: a.ctx, id: d.Ref}}, nil
}

// Elements returns the elements of an array attribute.
func (a Attribute) Elements() ([]Attribute, error) {
	d, err := a.expect(types.KindArrayAttr)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, len(d.Elems))
	for i, id := range d.Elems {
		out[i] = Attribute{UniquedObject{ctx: a.ctx, id: id}}
	}
	return out, nil
}

func (a Attribute) expect(kind types.Kind) (types.Descriptor, error) {
	d, err := a.Descriptor()
	if err != nil {
		return types.Descriptor{}, err
	}
	if d.Kind != kind {
		return types.Descriptor{}, errors.Newf("attribute is %s, not %s", d.Kind, kind)
	}
	return d, nil
}

// Name returns the identifier text.
func (i Identifier) Name() (string, error) {
	d, err := i.Descriptor()
	return d.Text, err
}

type uniquedHandle interface {
	Handle
	base() UniquedObject
}

func (u UniquedObject) base() UniquedObject { return u }

func ids[H uniquedHandle](hs []H) []types.ID {
	out := make([]types.ID, len(hs))
	for i, h := range hs {
		out[i] = h.base().id
	}
	return out
}

func handles[H uniquedHandle](hs []H) []Handle {
	out := make([]Handle, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}

func wrapTypes(c *Context, in []types.ID) []Type {
	out := make([]Type, len(in))
	for i, id := range in {
		out[i] = Type{UniquedObject{ctx: c, id: id}}
	}
	return out
}
