package ir

import (
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/require"

	"irguard/internal/diag"
)

func newTestContext(t *testing.T, opts ...Option) (*Context, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(64)
	base := []Option{
		WithLogger(testr.New(t)),
		WithReporter(diag.BagReporter{Bag: bag}),
	}
	return NewContext(append(base, opts...)...), bag
}

// buildTree creates module { a { region { inner { b } } } } and returns the
// module, a, the inner block and b. Only the module is owned afterwards.
func buildTree(t *testing.T, c *Context) (Module, Operation, Block, Operation) {
	t.Helper()
	m, err := c.CreateModule(Location{})
	require.NoError(t, err)
	body, err := m.Body()
	require.NoError(t, err)

	inner, err := c.CreateBlock(nil, nil)
	require.NoError(t, err)
	region, err := c.CreateRegion()
	require.NoError(t, err)
	require.NoError(t, region.AppendOwnedBlock(inner))

	a, err := c.CreateOperation(NewOperationState("test.a", Location{}).AddOwnedRegions(region))
	require.NoError(t, err)
	require.NoError(t, body.AppendOwnedOperation(a))

	b, err := c.CreateOperation(NewOperationState("test.b", Location{}))
	require.NoError(t, err)
	require.NoError(t, inner.AppendOwnedOperation(b))
	require.Equal(t, 1, c.OwnedRoots())
	return m, a, inner, b
}
