package ir

import (
	"sort"
	"testing"
)

func TestCallTable(t *testing.T) {
	calls := Calls()
	if len(calls) == 0 {
		t.Fatal("empty call table")
	}
	if !sort.SliceIsSorted(calls, func(i, j int) bool { return calls[i].Name < calls[j].Name }) {
		t.Fatal("Calls is not sorted")
	}
	seen := make(map[string]bool, len(calls))
	for _, c := range calls {
		if seen[c.Name] {
			t.Fatalf("duplicate call %s", c.Name)
		}
		seen[c.Name] = true
		if (c.Category == CategoryInvalidating) != (c.Shape != ShapeNone) {
			t.Errorf("%s: category %s with shape %s", c.Name, c.Category, c.Shape)
		}
		if c.Uniqued && c.Category != CategoryCreation {
			t.Errorf("%s: only creations can be uniqued", c.Name)
		}
	}
}

func TestLookupCall(t *testing.T) {
	c, ok := LookupCall("BlockEraseOperation")
	if !ok || c.Shape != ShapeRemove {
		t.Fatalf("LookupCall(BlockEraseOperation) = %+v, %v", c, ok)
	}
	if _, ok := LookupCall("NoSuchCall"); ok {
		t.Fatal("unknown call found")
	}
	for _, name := range []string{"RegionTakeBody", "OperationRemoveFromParent", "ModuleDestroy"} {
		c, ok := LookupCall(name)
		if !ok || c.Category != CategoryInvalidating {
			t.Errorf("%s should be invalidating, got %+v", name, c)
		}
	}
}
