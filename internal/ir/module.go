package ir

import (
	"github.com/cockroachdb/errors"

	"irguard/internal/capi"
	"irguard/internal/types"
)

// Attribute names shared by symbol and function-like operations.
const (
	SymbolAttributeName     = "sym_name"
	VisibilityAttributeName = "sym_visibility"
	FunctionTypeAttrName    = "function_type"
	ArgAttrsAttrName        = "arg_attrs"
	ResAttrsAttrName        = "res_attrs"
)

// Module is a handle to a builtin.module operation: one region holding one
// body block.
type Module struct{ object }

func (m Module) IsLive() bool     { return m.isLive("module") }
func (m Module) String() string   { return describe(m) }
func (m Module) info() handleInfo { return m.infoAs("module") }

// CreateModule creates an empty module owned by the caller. A null loc
// means loc(unknown).
func (c *Context) CreateModule(loc Location) (Module, error) {
	var targets []Handle
	id := loc.id
	if loc.IsNull() {
		id = c.uniq.Builtins().UnknownLoc
	} else {
		targets = append(targets, loc)
	}
	var m Module
	err := c.invoke(CallModuleCreateEmpty, func() error {
		m = Module{c.created(c.native.ModuleCreateEmpty(id), true)}
		return nil
	}, targets...)
	return m, err
}

// Body returns the body block.
func (m Module) Body() (Block, error) {
	var b Block
	err := m.ctx.invoke(CallModuleGetBody, func() error {
		b = Block{m.ctx.derive(m.ctx.native.ModuleBody(m.ref), m.lease)}
		return nil
	}, m)
	return b, err
}

// Operation returns the operation backing m. It shares liveness with m.
func (m Module) Operation() (Operation, error) {
	var op Operation
	err := m.ctx.invoke(CallModuleGetOperation, func() error {
		op = Operation{m.object}
		return nil
	}, m)
	return op, err
}

// LookupSymbol finds the top-level operation whose sym_name equals name.
// The null Operation means no such symbol.
func (m Module) LookupSymbol(name string) (Operation, error) {
	var found Operation
	err := m.ctx.invoke(CallModuleLookupSymbol, func() error {
		key, err := m.ctx.uniq.Intern(types.MakeIdentifier(SymbolAttributeName))
		if err != nil {
			return err
		}
		want, err := m.ctx.uniq.Intern(types.MakeString(name))
		if err != nil {
			return err
		}
		body := m.ctx.native.ModuleBody(m.ref)
		for op := m.ctx.native.BlockFirstOperation(body); op != capi.Null; op = m.ctx.native.OperationNext(op) {
			if m.ctx.native.OperationGetAttribute(op, key) == want {
				found = Operation{m.ctx.derive(op, m.lease)}
				return nil
			}
		}
		return nil
	}, m)
	return found, err
}

// Destroy frees the module and everything in it.
func (m Module) Destroy() error {
	return m.ctx.invoke(CallModuleDestroy, func() error {
		if !m.ctx.isOwned(m.ref) {
			return errors.Wrap(ErrNotOwned, "module is attached to a block")
		}
		m.ctx.native.OperationDestroy(m.ref)
		return nil
	}, m)
}
