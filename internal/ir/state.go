package ir

import (
	"github.com/cockroachdb/errors"

	"irguard/internal/capi"
	"irguard/internal/types"
)

// OperationState collects what CreateOperation needs. Regions added with
// AddOwnedRegions must be caller-owned; the new operation takes them over.
type OperationState struct {
	Name       string
	Loc        Location
	Attributes []NamedAttribute
	Results    []Type
	Operands   []Value
	Regions    []Region
	Terminator bool
}

// NewOperationState starts a state for an operation called name.
func NewOperationState(name string, loc Location) *OperationState {
	return &OperationState{Name: name, Loc: loc}
}

func (s *OperationState) AddAttribute(name Identifier, value Attribute) *OperationState {
	s.Attributes = append(s.Attributes, NamedAttribute{Name: name, Value: value})
	return s
}

func (s *OperationState) AddResults(tys ...Type) *OperationState {
	s.Results = append(s.Results, tys...)
	return s
}

func (s *OperationState) AddOperands(vs ...Value) *OperationState {
	s.Operands = append(s.Operands, vs...)
	return s
}

func (s *OperationState) AddOwnedRegions(rs ...Region) *OperationState {
	s.Regions = append(s.Regions, rs...)
	return s
}

// SetTerminator marks the operation as a block terminator.
func (s *OperationState) SetTerminator() *OperationState {
	s.Terminator = true
	return s
}

// CreateOperation creates a caller-owned operation from st. On success the
// regions of st are owned by the operation; their handles stay live.
func (c *Context) CreateOperation(st *OperationState) (Operation, error) {
	if st == nil || st.Name == "" {
		return Operation{}, errors.New("CreateOperation: operation name is required")
	}
	native := &capi.OperationState{
		Name:       st.Name,
		Loc:        st.Loc.id,
		Terminator: st.Terminator,
	}
	var refs []Handle
	if !st.Loc.IsNull() {
		refs = append(refs, st.Loc)
	} else {
		native.Loc = c.uniq.Builtins().UnknownLoc
	}
	for _, a := range st.Attributes {
		native.Attrs = append(native.Attrs, capi.NamedAttr{Name: a.Name.id, Value: a.Value.id})
		refs = append(refs, a.Name, a.Value)
	}
	native.Results = ids(st.Results)
	refs = append(refs, handles(st.Results)...)
	for _, v := range st.Operands {
		native.Operands = append(native.Operands, v.native())
		refs = append(refs, v)
	}
	regions := make([]capi.Ref, 0, len(st.Regions))
	for _, r := range st.Regions {
		regions = append(regions, r.ref)
		refs = append(refs, r)
	}
	native.Regions = regions

	var op Operation
	err := c.invoke(CallOperationCreate, func() error {
		seen := make(map[capi.Ref]bool, len(regions))
		for _, r := range regions {
			if seen[r] {
				return errors.Newf("region#%d listed twice", r)
			}
			seen[r] = true
			if !c.isOwned(r) {
				return errors.Wrapf(ErrNotOwned, "region#%d already has a parent", r)
			}
		}
		if err := checkAttrNames(c.uniq, native.Attrs); err != nil {
			return err
		}
		op = Operation{c.created(c.native.OperationCreate(native), true)}
		for _, r := range regions {
			c.setOwned(r, false)
		}
		return nil
	}, refs...)
	return op, err
}

func checkAttrNames(in *types.Interner, attrs []capi.NamedAttr) error {
	seen := make(map[types.ID]bool, len(attrs))
	for _, a := range attrs {
		if seen[a.Name] {
			return errors.Newf("duplicate attribute %s", in.Format(a.Name))
		}
		seen[a.Name] = true
	}
	return nil
}
