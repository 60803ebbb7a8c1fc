package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestProgressModeFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	mode := progressAuto
	cmd.Flags().Var(&mode, "ui", "")

	for in, want := range map[string]progressMode{
		" ON ": progressOn,
		"off":  progressOff,
		"":     progressAuto,
		"Auto": progressAuto,
	} {
		require.NoError(t, cmd.Flags().Set("ui", in), "input %q", in)
		require.Equal(t, want, mode, "input %q", in)
	}
	require.Equal(t, "auto", cmd.Flags().Lookup("ui").Value.String())

	err := cmd.Flags().Set("ui", "sometimes")
	require.ErrorContains(t, err, "expected auto|on|off")
	require.Equal(t, progressAuto, mode)
}

func TestProgressModeDraws(t *testing.T) {
	var buf bytes.Buffer
	require.True(t, progressOn.draws(&buf))
	require.False(t, progressOff.draws(&buf))
	require.False(t, progressAuto.draws(&buf), "a buffer is never a terminal")
}
