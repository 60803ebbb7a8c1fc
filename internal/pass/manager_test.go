package pass

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"irguard/internal/ir"
	"irguard/internal/metrics"
	"irguard/internal/observ"
)

// buildModule creates a module with roots top-level operations, each holding
// one block with leaves operations.
func buildModule(t *testing.T, c *ir.Context, roots, leaves int) ir.Module {
	t.Helper()
	m, err := c.CreateModule(ir.Location{})
	require.NoError(t, err)
	body, err := m.Body()
	require.NoError(t, err)
	for range roots {
		block, err := c.CreateBlock(nil, nil)
		require.NoError(t, err)
		for range leaves {
			leaf, err := c.CreateOperation(ir.NewOperationState("test.leaf", ir.Location{}))
			require.NoError(t, err)
			require.NoError(t, block.AppendOwnedOperation(leaf))
		}
		region, err := c.CreateRegion()
		require.NoError(t, err)
		require.NoError(t, region.AppendOwnedBlock(block))
		root, err := c.CreateOperation(ir.NewOperationState("test.root", ir.Location{}).AddOwnedRegions(region))
		require.NoError(t, err)
		require.NoError(t, body.AppendOwnedOperation(root))
	}
	return m
}

func testCtx(t *testing.T) context.Context {
	return logr.NewContext(context.Background(), testr.New(t))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) last(pass string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Event
	for _, ev := range s.events {
		if ev.Pass == pass {
			out = ev
		}
	}
	return out
}

func TestCountOpsParallelMatchesSequential(t *testing.T) {
	counts := make(map[bool]map[string]int)
	for _, threaded := range []bool{false, true} {
		c := ir.NewContext(ir.WithLogger(testr.New(t)), ir.WithMultithreading(threaded))
		m := buildModule(t, c, 6, 3)
		stats := NewOpStats()

		report, err := NewManager(c, []Descriptor{CountOps(stats)}, WithJobs(4)).Run(testCtx(t), m)
		require.NoError(t, err)
		require.Len(t, report.Results, 1)
		require.Equal(t, threaded, report.Results[0].Parallel)
		require.Equal(t, 6, report.Results[0].Done)
		require.False(t, report.Failed())
		require.False(t, c.ParallelExecutionActive())
		counts[threaded] = stats.Counts()
	}
	require.Equal(t, map[string]int{"test.root": 6, "test.leaf": 18}, counts[true])
	require.Equal(t, counts[false], counts[true])
}

func TestSingleJobRunsSequentially(t *testing.T) {
	c := ir.NewContext(ir.WithMultithreading(true))
	m := buildModule(t, c, 3, 1)
	report, err := NewManager(c, []Descriptor{CountOps(NewOpStats())}, WithJobs(1)).Run(context.Background(), m)
	require.NoError(t, err)
	require.False(t, report.Results[0].Parallel)
}

func TestMutatingPassRunsSequentially(t *testing.T) {
	c := ir.NewContext(ir.WithLogger(testr.New(t)), ir.WithMultithreading(true))
	m := buildModule(t, c, 4, 2)

	report, err := NewManager(c, []Descriptor{Annotate(VisitedAttr)}, WithJobs(4)).Run(testCtx(t), m)
	require.NoError(t, err)
	require.False(t, report.Results[0].Parallel)

	body, err := m.Body()
	require.NoError(t, err)
	roots, err := body.Operations()
	require.NoError(t, err)
	for _, root := range roots {
		require.NoError(t, Walk(root, func(op ir.Operation) error {
			attr, err := op.Attribute(VisitedAttr)
			require.NoError(t, err)
			require.False(t, attr.IsNull(), "%s not annotated", op)
			return nil
		}))
	}
}

func TestSmuggledHandleDiesAfterRun(t *testing.T) {
	c := ir.NewContext(ir.WithLogger(testr.New(t)))
	m := buildModule(t, c, 1, 1)

	var kept ir.Operation
	smuggle := Descriptor{Name: "smuggle", New: func() Pass {
		return Func(func(_ context.Context, root ir.Operation) error {
			kept = root
			_, err := root.Name()
			return err
		})
	}}
	_, err := NewManager(c, []Descriptor{smuggle}).Run(testCtx(t), m)
	require.NoError(t, err)

	_, err = kept.Name()
	require.ErrorIs(t, err, ir.ErrUseAfterInvalidation)

	// the object itself survives the revoked lease
	body, err := m.Body()
	require.NoError(t, err)
	ops, err := body.Operations()
	require.NoError(t, err)
	name, err := ops[0].Name()
	require.NoError(t, err)
	require.Equal(t, "test.root", name)
}

func TestFailingPassStopsPipeline(t *testing.T) {
	c := ir.NewContext()
	m := buildModule(t, c, 2, 1)
	boom := errors.New("boom")
	stats := NewOpStats()
	fail := Descriptor{Name: "fail", New: func() Pass {
		return Func(func(context.Context, ir.Operation) error { return boom })
	}}
	sink := &recordingSink{}

	report, err := NewManager(c, []Descriptor{fail, CountOps(stats)}, WithSink(sink)).Run(testCtx(t), m)
	require.ErrorIs(t, err, boom)
	require.True(t, report.Failed())
	require.Len(t, report.Results, 1)
	require.Zero(t, stats.Total())

	last := sink.last("fail")
	require.Equal(t, StatusError, last.Status)
	require.ErrorIs(t, last.Err, boom)
	require.Equal(t, StatusQueued, sink.last("count-ops").Status)
}

func TestSinkSeesProgress(t *testing.T) {
	c := ir.NewContext(ir.WithMultithreading(true))
	m := buildModule(t, c, 5, 1)
	ch := make(chan Event, 64)

	_, err := NewManager(c, []Descriptor{CountOps(NewOpStats())}, WithJobs(2), WithSink(ChannelSink{Ch: ch})).
		Run(context.Background(), m)
	require.NoError(t, err)
	close(ch)

	var statuses []Status
	var maxDone int
	for ev := range ch {
		statuses = append(statuses, ev.Status)
		maxDone = max(maxDone, ev.Done)
	}
	require.Equal(t, StatusQueued, statuses[0])
	require.Equal(t, StatusDone, statuses[len(statuses)-1])
	require.Equal(t, 5, maxDone)
}

func TestMetricsAndTimings(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)
	timer := observ.NewTimer()
	c := ir.NewContext(ir.WithMetrics(rec), ir.WithMultithreading(true))
	m := buildModule(t, c, 3, 1)

	_, err = NewManager(c, []Descriptor{CountOps(NewOpStats())}, WithJobs(3), WithMetrics(rec), WithTimer(timer)).
		Run(context.Background(), m)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "irguard_pass_runs_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Contains(t, timer.Summary(), "count-ops")
}

func TestCanceledContext(t *testing.T) {
	c := ir.NewContext()
	m := buildModule(t, c, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewManager(c, []Descriptor{CountOps(NewOpStats())}).Run(ctx, m)
	require.ErrorIs(t, err, context.Canceled)
}
