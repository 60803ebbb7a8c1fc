package scenario

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// runGolden executes testdata/<file> and compares the text report against
// testdata/golden/<scenario name>.golden. Regenerate with -update.
func runGolden(t *testing.T, file string) {
	t.Helper()
	s, err := Load(filepath.Join("testdata", file))
	require.NoError(t, err)

	ctx := logr.NewContext(context.Background(), testr.New(t))
	res, err := Run(ctx, s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.WriteText(&buf))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, buf.Bytes())
	require.Zero(t, res.Failed())
}

func TestRemoveChildGolden(t *testing.T) {
	runGolden(t, "remove_child.yaml")
}

func TestUniquedIdentityGolden(t *testing.T) {
	runGolden(t, "uniqued_identity.yaml")
}
