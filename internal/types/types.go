package types

import "fmt"

// ID uniquely identifies an interned descriptor inside the interner.
type ID uint32

// NoID marks the absence of a uniqued object.
const NoID ID = 0

// Class groups kinds by the handle family they surface as.
type Class uint8

const (
	ClassInvalid Class = iota
	ClassType
	ClassAttribute
	ClassIdentifier
	ClassLocation
)

func (c Class) String() string {
	switch c {
	case ClassType:
		return "type"
	case ClassAttribute:
		return "attribute"
	case ClassIdentifier:
		return "identifier"
	case ClassLocation:
		return "location"
	default:
		return "invalid"
	}
}

// Kind enumerates every uniqued object shape.
type Kind uint8

const (
	KindInvalid Kind = iota

	// types
	KindNone
	KindIndex
	KindInteger
	KindFloat
	KindFunction
	KindTuple

	// attributes
	KindStringAttr
	KindIntegerAttr
	KindBoolAttr
	KindUnitAttr
	KindArrayAttr
	KindDictionaryAttr
	KindTypeAttr
	KindFlatSymbolRefAttr

	KindIdentifier

	// locations
	KindUnknownLoc
	KindFileLineColLoc
	KindFusedLoc
	KindCallSiteLoc
)

var kindNames = [...]string{
	KindInvalid:           "invalid",
	KindNone:              "none",
	KindIndex:             "index",
	KindInteger:           "integer",
	KindFloat:             "float",
	KindFunction:          "function",
	KindTuple:             "tuple",
	KindStringAttr:        "string",
	KindIntegerAttr:       "integer_attr",
	KindBoolAttr:          "bool",
	KindUnitAttr:          "unit",
	KindArrayAttr:         "array",
	KindDictionaryAttr:    "dictionary",
	KindTypeAttr:          "type_attr",
	KindFlatSymbolRefAttr: "flat_symbol_ref",
	KindIdentifier:        "identifier",
	KindUnknownLoc:        "unknown_loc",
	KindFileLineColLoc:    "file_line_col",
	KindFusedLoc:          "fused_loc",
	KindCallSiteLoc:       "callsite_loc",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Class reports which handle family a kind belongs to.
func (k Kind) Class() Class {
	switch {
	case k >= KindNone && k <= KindTuple:
		return ClassType
	case k >= KindStringAttr && k <= KindFlatSymbolRefAttr:
		return ClassAttribute
	case k == KindIdentifier:
		return ClassIdentifier
	case k >= KindUnknownLoc && k <= KindCallSiteLoc:
		return ClassLocation
	default:
		return ClassInvalid
	}
}

// Signedness of integer types.
type Signedness uint8

const (
	Signless Signedness = iota
	Signed
	Unsigned
)

// FloatKind selects the floating-point format; stored in Descriptor.Width.
type FloatKind uint32

const (
	BF16 FloatKind = iota + 1
	F16
	F32
	F64
)

func (f FloatKind) String() string {
	switch f {
	case BF16:
		return "bf16"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("FloatKind(%d)", uint32(f))
	}
}

// MaxIntegerWidth mirrors the bit-width limit of the native integer type.
const MaxIntegerWidth = 1<<24 - 1

// Descriptor is the structural description of a uniqued object. Two
// descriptors that canonicalize to the same value intern to the same ID.
type Descriptor struct {
	Kind   Kind       `msgpack:"k"`
	Width  uint32     `msgpack:"w,omitempty"` // integer width or FloatKind
	Sign   Signedness `msgpack:"s,omitempty"`
	Text   string     `msgpack:"t,omitempty"` // string payload, identifier, symbol, filename
	Value  int64      `msgpack:"v,omitempty"` // integer/bool payload
	Line   uint32     `msgpack:"l,omitempty"`
	Col    uint32     `msgpack:"c,omitempty"`
	Ref    ID         `msgpack:"r,omitempty"` // referenced type (type/integer attr) or fused metadata
	Elems  []ID       `msgpack:"e,omitempty"`
	Names  []ID       `msgpack:"n,omitempty"` // dictionary keys, parallel to Elems
	Inputs uint32     `msgpack:"i,omitempty"` // function types: Elems[:Inputs] are inputs
}

// Descriptor helpers ---------------------------------------------------------

// MakeNone describes the none type.
func MakeNone() Descriptor { return Descriptor{Kind: KindNone} }

// MakeIndex describes the target-sized index type.
func MakeIndex() Descriptor { return Descriptor{Kind: KindIndex} }

// MakeInteger describes an integer type of the given width.
func MakeInteger(width uint32, sign Signedness) Descriptor {
	return Descriptor{Kind: KindInteger, Width: width, Sign: sign}
}

// MakeFloat describes a floating-point type.
func MakeFloat(kind FloatKind) Descriptor {
	return Descriptor{Kind: KindFloat, Width: uint32(kind)}
}

// MakeFunction describes (inputs) -> (results).
func MakeFunction(inputs, results []ID) Descriptor {
	elems := make([]ID, 0, len(inputs)+len(results))
	elems = append(elems, inputs...)
	elems = append(elems, results...)
	return Descriptor{Kind: KindFunction, Elems: elems, Inputs: uint32(len(inputs))}
}

// MakeTuple describes tuple<elems...>.
func MakeTuple(elems []ID) Descriptor {
	return Descriptor{Kind: KindTuple, Elems: append([]ID(nil), elems...)}
}

// MakeString describes a string attribute.
func MakeString(s string) Descriptor { return Descriptor{Kind: KindStringAttr, Text: s} }

// MakeIntegerAttr describes an integer attribute of type ty.
func MakeIntegerAttr(ty ID, v int64) Descriptor {
	return Descriptor{Kind: KindIntegerAttr, Ref: ty, Value: v}
}

// MakeBool describes a boolean attribute.
func MakeBool(b bool) Descriptor {
	d := Descriptor{Kind: KindBoolAttr}
	if b {
		d.Value = 1
	}
	return d
}

// MakeUnit describes the unit attribute.
func MakeUnit() Descriptor { return Descriptor{Kind: KindUnitAttr} }

// MakeArray describes an array attribute.
func MakeArray(elems []ID) Descriptor {
	return Descriptor{Kind: KindArrayAttr, Elems: append([]ID(nil), elems...)}
}

// MakeDictionary describes a dictionary attribute. names are identifier IDs
// parallel to values; the interner sorts entries by name.
func MakeDictionary(names, values []ID) Descriptor {
	return Descriptor{
		Kind:  KindDictionaryAttr,
		Names: append([]ID(nil), names...),
		Elems: append([]ID(nil), values...),
	}
}

// MakeTypeAttr wraps a type into an attribute.
func MakeTypeAttr(ty ID) Descriptor { return Descriptor{Kind: KindTypeAttr, Ref: ty} }

// MakeFlatSymbolRef describes @symbol.
func MakeFlatSymbolRef(symbol string) Descriptor {
	return Descriptor{Kind: KindFlatSymbolRefAttr, Text: symbol}
}

// MakeIdentifier describes an identifier.
func MakeIdentifier(name string) Descriptor { return Descriptor{Kind: KindIdentifier, Text: name} }

// MakeUnknownLoc describes loc(unknown).
func MakeUnknownLoc() Descriptor { return Descriptor{Kind: KindUnknownLoc} }

// MakeFileLineCol describes loc("file":line:col).
func MakeFileLineCol(file string, line, col uint32) Descriptor {
	return Descriptor{Kind: KindFileLineColLoc, Text: file, Line: line, Col: col}
}

// MakeFused describes a fused location with optional metadata attribute.
func MakeFused(locs []ID, metadata ID) Descriptor {
	return Descriptor{Kind: KindFusedLoc, Elems: append([]ID(nil), locs...), Ref: metadata}
}

// MakeCallSite describes callsite(callee at caller).
func MakeCallSite(callee, caller ID) Descriptor {
	return Descriptor{Kind: KindCallSiteLoc, Elems: []ID{callee, caller}}
}

// FunctionInputs returns the input types of a function descriptor.
func (d Descriptor) FunctionInputs() []ID {
	if d.Kind != KindFunction {
		return nil
	}
	return d.Elems[:d.Inputs]
}

// FunctionResults returns the result types of a function descriptor.
func (d Descriptor) FunctionResults() []ID {
	if d.Kind != KindFunction {
		return nil
	}
	return d.Elems[d.Inputs:]
}
