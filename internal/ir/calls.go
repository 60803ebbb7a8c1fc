package ir

import (
	"slices"
	"strings"
)

// Category classifies a native call by the guard rules that apply to it.
type Category uint8

const (
	CategoryCreation Category = iota + 1
	CategoryMutation
	CategoryInspection
	CategoryInvalidating
)

func (c Category) String() string {
	switch c {
	case CategoryCreation:
		return "creation"
	case CategoryMutation:
		return "mutation"
	case CategoryInspection:
		return "inspection"
	case CategoryInvalidating:
		return "invalidating"
	}
	return "unknown"
}

// Shape is the visible side effect of an Invalidating call.
type Shape uint8

const (
	ShapeNone     Shape = iota
	ShapeDestroy        // target and everything nested in it die
	ShapeTransfer       // children move out of the target; their old handles die
	ShapeRemove         // a child is erased from the target's collection
	ShapeDetach         // the target loses its parent; its old handle dies
)

func (s Shape) String() string {
	switch s {
	case ShapeDestroy:
		return "destroy"
	case ShapeTransfer:
		return "transfer"
	case ShapeRemove:
		return "remove"
	case ShapeDetach:
		return "detach"
	}
	return "none"
}

// Call describes one native call. Uniqued is only meaningful for Creation:
// the call goes through the synchronized uniquing store.
type Call struct {
	Name     string
	Category Category
	Shape    Shape
	Uniqued  bool
}

var registry []Call

func register(c Call) Call {
	registry = append(registry, c)
	return c
}

func creation(name string) Call   { return register(Call{Name: name, Category: CategoryCreation}) }
func uniqued(name string) Call    { return register(Call{Name: name, Category: CategoryCreation, Uniqued: true}) }
func mutation(name string) Call   { return register(Call{Name: name, Category: CategoryMutation}) }
func inspection(name string) Call { return register(Call{Name: name, Category: CategoryInspection}) }
func invalidating(name string, shape Shape) Call {
	return register(Call{Name: name, Category: CategoryInvalidating, Shape: shape})
}

// Native call table.
var (
	CallContextDestroy         = invalidating("ContextDestroy", ShapeDestroy)
	CallContextRegisterDialect = mutation("ContextRegisterDialect")
	CallContextLoadDialect     = creation("ContextLoadDialect")
	CallDialectGetNamespace    = inspection("DialectGetNamespace")

	CallTypeGet        = uniqued("TypeGet")
	CallAttributeGet   = uniqued("AttributeGet")
	CallIdentifierGet  = uniqued("IdentifierGet")
	CallLocationGet    = uniqued("LocationGet")
	CallUniquedInspect = inspection("UniquedInspect")

	CallModuleCreateEmpty  = creation("ModuleCreateEmpty")
	CallModuleGetBody      = inspection("ModuleGetBody")
	CallModuleGetOperation = inspection("ModuleGetOperation")
	CallModuleLookupSymbol = inspection("ModuleLookupSymbol")
	CallModuleDestroy      = invalidating("ModuleDestroy", ShapeDestroy)

	CallOperationCreate                = creation("OperationCreate")
	CallOperationClone                 = creation("OperationClone")
	CallOperationDestroy               = invalidating("OperationDestroy", ShapeDestroy)
	CallOperationRemoveFromParent      = invalidating("OperationRemoveFromParent", ShapeDetach)
	CallOperationGetName               = inspection("OperationGetName")
	CallOperationGetLocation           = inspection("OperationGetLocation")
	CallOperationGetAttributeByName    = inspection("OperationGetAttributeByName")
	CallOperationGetAttributes         = inspection("OperationGetAttributes")
	CallOperationSetAttributeByName    = mutation("OperationSetAttributeByName")
	CallOperationRemoveAttributeByName = mutation("OperationRemoveAttributeByName")
	CallOperationGetNumRegions         = inspection("OperationGetNumRegions")
	CallOperationGetRegion             = inspection("OperationGetRegion")
	CallOperationGetNumResults         = inspection("OperationGetNumResults")
	CallOperationGetResult             = inspection("OperationGetResult")
	CallOperationGetNumOperands        = inspection("OperationGetNumOperands")
	CallOperationGetOperand            = inspection("OperationGetOperand")
	CallOperationGetBlock              = inspection("OperationGetBlock")
	CallOperationGetParentOperation    = inspection("OperationGetParentOperation")
	CallOperationGetNextInBlock        = inspection("OperationGetNextInBlock")
	CallOperationIsTerminator          = inspection("OperationIsTerminator")

	CallRegionCreate                 = creation("RegionCreate")
	CallRegionDestroy                = invalidating("RegionDestroy", ShapeDestroy)
	CallRegionAppendOwnedBlock       = mutation("RegionAppendOwnedBlock")
	CallRegionInsertOwnedBlockBefore = mutation("RegionInsertOwnedBlockBefore")
	CallRegionInsertOwnedBlockAfter  = mutation("RegionInsertOwnedBlockAfter")
	CallRegionGetFirstBlock          = inspection("RegionGetFirstBlock")
	CallRegionGetParentOperation     = inspection("RegionGetParentOperation")
	CallRegionTakeBody               = invalidating("RegionTakeBody", ShapeTransfer)
	CallRegionEraseBlock             = invalidating("RegionEraseBlock", ShapeRemove)

	CallBlockCreate                     = creation("BlockCreate")
	CallBlockDestroy                    = invalidating("BlockDestroy", ShapeDestroy)
	CallBlockDetach                     = invalidating("BlockDetach", ShapeDetach)
	CallBlockAppendOwnedOperation       = mutation("BlockAppendOwnedOperation")
	CallBlockInsertOwnedOperationBefore = mutation("BlockInsertOwnedOperationBefore")
	CallBlockInsertOwnedOperationAfter  = mutation("BlockInsertOwnedOperationAfter")
	CallBlockAddArgument                = mutation("BlockAddArgument")
	CallBlockGetFirstOperation          = inspection("BlockGetFirstOperation")
	CallBlockGetNextInRegion            = inspection("BlockGetNextInRegion")
	CallBlockGetTerminator              = inspection("BlockGetTerminator")
	CallBlockGetParentOperation         = inspection("BlockGetParentOperation")
	CallBlockGetParentRegion            = inspection("BlockGetParentRegion")
	CallBlockGetNumArguments            = inspection("BlockGetNumArguments")
	CallBlockGetArgument                = inspection("BlockGetArgument")
	CallBlockEraseOperation             = invalidating("BlockEraseOperation", ShapeRemove)

	CallValueGetType  = inspection("ValueGetType")
	CallValueGetOwner = inspection("ValueGetOwner")
)

// Calls returns the classification table sorted by name.
func Calls() []Call {
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b Call) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// LookupCall finds a call by name.
func LookupCall(name string) (Call, bool) {
	for _, c := range registry {
		if c.Name == name {
			return c, true
		}
	}
	return Call{}, false
}
