package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"irguard/internal/diag"
	"irguard/internal/types"
)

func TestNewContextDefaults(t *testing.T) {
	c, _ := newTestContext(t)
	require.False(t, c.MultithreadingEnabled())
	require.False(t, c.ParallelExecutionActive())
	require.False(t, c.Destroyed())
	require.Zero(t, c.OwnedRoots())
	require.NotEmpty(t, c.ID())
	require.NoError(t, c.Destroy())
}

func TestDestroyWithOwnedRootsFails(t *testing.T) {
	c, bag := newTestContext(t)
	i32, err := c.IntegerType(32, types.Signless)
	require.NoError(t, err)
	region, err := c.CreateRegion()
	require.NoError(t, err)

	err = c.Destroy()
	require.ErrorIs(t, err, ErrDanglingHandles)
	require.False(t, c.Destroyed())
	require.True(t, region.IsLive())
	require.Equal(t, 1, bag.CountByCode()[diag.LifeDanglingHandles])

	require.NoError(t, region.Destroy())
	require.NoError(t, c.Destroy())
	require.True(t, c.Destroyed())

	require.False(t, region.IsLive())
	require.False(t, i32.IsLive())
	_, err = i32.Descriptor()
	require.ErrorIs(t, err, ErrUseAfterInvalidation)
	_, err = c.CreateRegion()
	require.ErrorIs(t, err, ErrUseAfterInvalidation)
	require.ErrorIs(t, c.Destroy(), ErrUseAfterInvalidation)
}

func TestHandlesDieWithContext(t *testing.T) {
	c, _ := newTestContext(t)
	m, a, inner, b := buildTree(t, c)
	require.NoError(t, m.Destroy())
	require.NoError(t, c.Destroy())
	for _, h := range []Handle{m, a, inner, b} {
		require.False(t, h.IsLive(), describe(h))
	}
	_, err := a.Name()
	require.ErrorIs(t, err, ErrUseAfterInvalidation)
}

func TestConcurrentUniquedCreationIsCanonical(t *testing.T) {
	c, _ := newTestContext(t)
	const workers = 16
	got := make([][]Type, workers)

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for width := uint32(1); width <= 64; width++ {
				ty, err := c.IntegerType(width, types.Signless)
				if err != nil {
					return err
				}
				got[w] = append(got[w], ty)
			}
			fn, err := c.FunctionType(got[w][:2], got[w][2:3])
			if err != nil {
				return err
			}
			got[w] = append(got[w], fn)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for w := 1; w < workers; w++ {
		require.Len(t, got[w], len(got[0]))
		for i := range got[0] {
			require.True(t, got[0][i] == got[w][i], "worker %d, item %d", w, i)
			require.True(t, got[0][i].Equal(got[w][i].UniquedObject))
		}
	}
	require.NoError(t, c.Destroy())
}

func TestUniquingHoldsAcrossGoroutines(t *testing.T) {
	c, _ := newTestContext(t)
	d := types.MakeFunction(
		[]types.ID{c.Uniquer().Builtins().I32},
		[]types.ID{c.Uniquer().Builtins().F32},
	)

	done := make(chan UniquedObject)
	go func() {
		t2, err := c.CreateUniqued(d)
		if err != nil {
			close(done)
			return
		}
		done <- t2
	}()
	t1, err := c.CreateUniqued(d)
	require.NoError(t, err)
	t2, ok := <-done
	require.True(t, ok)
	require.Equal(t, t1.ID(), t2.ID())
	require.True(t, t1 == t2)
	require.Equal(t, "(i32) -> f32", t1.String())
}

func TestCreateUniquedRejectsInvalidKind(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := c.CreateUniqued(types.Descriptor{})
	require.ErrorIs(t, err, types.ErrInvalidDescriptor)
	require.False(t, IsViolation(err))
}

func TestDialects(t *testing.T) {
	c, bag := newTestContext(t)
	builtin, err := c.LoadDialect("builtin")
	require.NoError(t, err)
	ns, err := builtin.Namespace()
	require.NoError(t, err)
	require.Equal(t, "builtin", ns)

	_, err = c.LoadDialect("func")
	require.ErrorIs(t, err, ErrNullHandle)
	require.Zero(t, bag.Len(), "null lookups are not violations")

	require.NoError(t, c.RegisterDialect("func"))
	fn, err := c.LoadDialect("func")
	require.NoError(t, err)
	again, err := c.LoadDialect("func")
	require.NoError(t, err)
	require.Equal(t, fn.ref, again.ref)
	require.Zero(t, c.OwnedRoots(), "dialects belong to the context")
}

func TestBeginParallelRegionNeedsPolicy(t *testing.T) {
	c, bag := newTestContext(t)
	_, err := c.BeginParallelRegion()
	require.ErrorIs(t, err, ErrPolicyViolation)
	require.Equal(t, 1, bag.CountByCode()[diag.PolViolation])

	require.NoError(t, c.EnableMultithreading(true))
	require.True(t, c.MultithreadingEnabled())
	r, err := c.BeginParallelRegion()
	require.NoError(t, err)
	r.End()
	r.End()
	require.False(t, c.ParallelExecutionActive())
}

func TestCrossContextHandleIsNotOwned(t *testing.T) {
	c1, _ := newTestContext(t)
	c2, _ := newTestContext(t)
	op, err := c1.CreateOperation(NewOperationState("test.op", Location{}))
	require.NoError(t, err)
	blk, err := c2.CreateBlock(nil, nil)
	require.NoError(t, err)

	require.ErrorIs(t, blk.AppendOwnedOperation(op), ErrNotOwned)
	require.True(t, op.IsLive())

	i32, err := c1.IntegerType(32, types.Signless)
	require.NoError(t, err)
	_, err = c2.TupleType([]Type{i32})
	require.ErrorIs(t, err, ErrNotOwned)
}

func TestApplyRefusesMutationOfUniqued(t *testing.T) {
	c, bag := newTestContext(t)
	ty, err := c.IntegerType(8, types.Unsigned)
	require.NoError(t, err)

	called := false
	err = c.Apply(CallOperationSetAttributeByName, ty, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrImmutableObject)
	require.False(t, called)
	require.Equal(t, 1, bag.CountByCode()[diag.CapImmutableObject])

	err = c.Apply(CallUniquedInspect, ty, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestApplyOnNullTargetIsQuiet(t *testing.T) {
	c, bag := newTestContext(t)
	called := false
	err := c.Apply(CallOperationSetAttributeByName, Operation{}, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNullHandle)
	require.NotErrorIs(t, err, ErrNotOwned)
	require.False(t, called)
	require.Zero(t, bag.Len())
}

func TestViolationsAreReportedWithCallSite(t *testing.T) {
	c, bag := newTestContext(t)
	op, err := c.CreateOperation(NewOperationState("test.op", Location{}))
	require.NoError(t, err)
	stale := op
	require.NoError(t, op.Destroy())

	_, err = stale.Name()
	require.ErrorIs(t, err, ErrUseAfterInvalidation)
	require.True(t, IsViolation(err))
	require.Equal(t, diag.LifeUseAfterInvalidation, CodeOf(err))
	require.Contains(t, err.Error(), "OperationGetName")

	items := bag.Items()
	require.Len(t, items, 1)
	require.Equal(t, diag.LifeUseAfterInvalidation, items[0].Code)
	require.Equal(t, "OperationGetName", items[0].Call)
	require.Equal(t, describe(stale), items[0].Object)
	require.Equal(t, c.ID(), items[0].Context)
	require.NotZero(t, items[0].Goroutine)
}
