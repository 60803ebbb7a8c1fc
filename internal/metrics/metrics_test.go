package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg)
	require.NoError(t, err)

	r.HandleCreated("uniqued")
	r.HandleCreated("uniqued")
	r.HandleCreated("non_uniqued")
	r.Invalidated("destroy", 3)
	r.Invalidated("detach", 0)
	r.Violation("use_after_invalidation")
	r.RegionOpened()
	r.RegionOpened()
	r.RegionClosed()
	r.PassRun("count-ops", "ok", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(r.handles.WithLabelValues("uniqued")))
	require.Equal(t, 3.0, testutil.ToFloat64(r.invalidated.WithLabelValues("destroy")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.violations.WithLabelValues("use_after_invalidation")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.regions))
	require.Equal(t, 1.0, testutil.ToFloat64(r.passRuns.WithLabelValues("count-ops", "ok")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.HandleCreated("uniqued")
	r.Violation("x")
	r.RegionOpened()
	r.PassRun("p", "ok", time.Second)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg)
	require.NoError(t, err)
	r.Violation("policy_violation")

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, reg))
	require.True(t, strings.Contains(buf.String(), `irguard_contract_violations_total{code="policy_violation"} 1`), buf.String())
}
