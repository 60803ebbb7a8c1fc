package pass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	stats := NewOpStats()
	ds, err := Lookup("count-ops, annotate", stats)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	require.False(t, ds[0].Mutates)
	require.True(t, ds[1].Mutates)

	_, err = Lookup("count-ops,nope", stats)
	require.ErrorContains(t, err, `unknown pass "nope"`)

	_, err = Lookup(" , ", stats)
	require.Error(t, err)
}

func TestOpStatsCopy(t *testing.T) {
	s := NewOpStats()
	s.add("a", 2)
	s.add("b", 1)
	counts := s.Counts()
	counts["a"] = 100
	require.Equal(t, 3, s.Total())
	require.Equal(t, []string{"a", "b"}, SortedCounts(s.Counts()))
}
