// Package capi emulates the native IR library the safety layer wraps.
//
// Objects are addressed by opaque Refs, the way the C API hands out pointers.
// Apart from the uniquing store nothing here is synchronized, and calls that
// break the ownership contract (using a freed object, attaching an object that
// already has a parent) panic the way the native library would crash. The
// guarded surface lives in package ir.
package capi

import (
	"fmt"

	"irguard/internal/types"
)

// Ref is an opaque reference to a native object. Refs are never reused.
type Ref uint64

// Null is the null reference returned by lookups that find nothing.
const Null Ref = 0

// Kind of native object behind a Ref.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindOperation
	KindRegion
	KindBlock
	KindDialect
)

func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "operation"
	case KindRegion:
		return "region"
	case KindBlock:
		return "block"
	case KindDialect:
		return "dialect"
	default:
		return "invalid"
	}
}

// ModuleOperationName is the name of the operation backing a module.
const ModuleOperationName = "builtin.module"

type node struct {
	kind     Kind
	parent   Ref
	children []Ref // op -> regions, region -> blocks, block -> ops

	// operation
	name       string
	loc        types.ID
	attrs      []NamedAttr
	results    []types.ID
	operands   []Value
	terminator bool

	// block
	args    []types.ID
	argLocs []types.ID

	// dialect
	namespace string
}

// Context is the native context: a uniquing store plus an object graph.
type Context struct {
	uniq           *types.Interner
	nodes          map[Ref]*node
	next           Ref
	multithreading bool
	registered     map[string]bool
	loaded         map[string]Ref
	destroyed      bool
}

// ContextCreate creates a context with multithreading disabled.
func ContextCreate() *Context {
	c := &Context{
		uniq:       types.NewInterner(),
		nodes:      make(map[Ref]*node, 64),
		registered: map[string]bool{"builtin": true},
		loaded:     make(map[string]Ref),
	}
	c.loaded["builtin"] = c.alloc(&node{kind: KindDialect, namespace: "builtin"})
	return c
}

// Destroy frees every object owned by the context.
func (c *Context) Destroy() {
	c.nodes = nil
	c.loaded = nil
	c.destroyed = true
}

// Uniquer returns the internally synchronized uniquing store.
func (c *Context) Uniquer() *types.Interner {
	return c.uniq
}

// EnableMultithreading mirrors mlirContextEnableMultithreading.
func (c *Context) EnableMultithreading(enable bool) {
	c.multithreading = enable
}

// IsMultithreadingEnabled reports the native policy flag.
func (c *Context) IsMultithreadingEnabled() bool {
	return c.multithreading
}

// RegisterDialect makes a namespace loadable.
func (c *Context) RegisterDialect(namespace string) {
	c.registered[namespace] = true
}

// LoadDialect loads a registered dialect, Null when it is not registered.
func (c *Context) LoadDialect(namespace string) Ref {
	if ref, ok := c.loaded[namespace]; ok {
		return ref
	}
	if !c.registered[namespace] {
		return Null
	}
	ref := c.alloc(&node{kind: KindDialect, namespace: namespace})
	c.loaded[namespace] = ref
	return ref
}

// NumLoadedDialects counts loaded dialects, builtin included.
func (c *Context) NumLoadedDialects() int {
	return len(c.loaded)
}

// DialectNamespace returns the namespace of a loaded dialect.
func (c *Context) DialectNamespace(d Ref) string {
	return c.get(d, KindDialect).namespace
}

// Exists reports whether ref names a live native object.
func (c *Context) Exists(ref Ref) bool {
	if c.destroyed {
		return false
	}
	_, ok := c.nodes[ref]
	return ok
}

// KindOf reports the kind of a live object, KindInvalid otherwise.
func (c *Context) KindOf(ref Ref) Kind {
	if n, ok := c.nodes[ref]; ok {
		return n.kind
	}
	return KindInvalid
}

// Parent returns the direct owner of ref, Null for detached objects.
func (c *Context) Parent(ref Ref) Ref {
	n, ok := c.nodes[ref]
	if !ok {
		return Null
	}
	return n.parent
}

// Descendants lists every object nested under ref, ref itself excluded, in
// pre-order.
func (c *Context) Descendants(ref Ref) []Ref {
	var out []Ref
	var walk func(Ref)
	walk = func(r Ref) {
		for _, child := range c.get(r, KindInvalid).children {
			out = append(out, child)
			walk(child)
		}
	}
	walk(ref)
	return out
}

// Children returns the direct children of ref.
func (c *Context) Children(ref Ref) []Ref {
	return append([]Ref(nil), c.get(ref, KindInvalid).children...)
}

// NumObjects counts live non-uniqued objects, dialects included.
func (c *Context) NumObjects() int {
	return len(c.nodes)
}

func (c *Context) alloc(n *node) Ref {
	c.next++
	c.nodes[c.next] = n
	return c.next
}

// get resolves ref; KindInvalid accepts any kind.
func (c *Context) get(ref Ref, kind Kind) *node {
	if c.destroyed {
		panic("capi: use of destroyed context")
	}
	n, ok := c.nodes[ref]
	if !ok {
		panic(fmt.Sprintf("capi: use of freed object %d", ref))
	}
	if kind != KindInvalid && n.kind != kind {
		panic(fmt.Sprintf("capi: object %d is a %s, not a %s", ref, n.kind, kind))
	}
	return n
}

// free drops ref and everything nested in it. The parent link is left
// untouched; callers unlink first.
func (c *Context) free(ref Ref) {
	n := c.nodes[ref]
	if n == nil {
		return
	}
	for _, child := range n.children {
		c.free(child)
	}
	delete(c.nodes, ref)
}

func (c *Context) unlink(ref Ref) {
	n := c.get(ref, KindInvalid)
	if n.parent == Null {
		return
	}
	p := c.get(n.parent, KindInvalid)
	p.children = remove(p.children, ref)
	n.parent = Null
}

func (c *Context) mustBeDetached(ref Ref, kind Kind) *node {
	n := c.get(ref, kind)
	if n.parent != Null {
		panic(fmt.Sprintf("capi: %s %d already has a parent", kind, ref))
	}
	return n
}

func remove(list []Ref, ref Ref) []Ref {
	for i, r := range list {
		if r == ref {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func indexOf(list []Ref, ref Ref) int {
	for i, r := range list {
		if r == ref {
			return i
		}
	}
	return -1
}

func insertAt(list []Ref, i int, ref Ref) []Ref {
	list = append(list, Null)
	copy(list[i+1:], list[i:])
	list[i] = ref
	return list
}
