package main

import (
	"fmt"
	"os"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"irguard/internal/types"
	"irguard/internal/ui"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Print the objects of a uniquing store snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in, err := types.ReadSnapshot(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		t := &ui.Table{Header: []string{"id", "class", "kind", "object"}}
		for i := 1; i < in.Len(); i++ {
			id, err := safecast.Conv[types.ID](i)
			if err != nil {
				return err
			}
			d := in.MustLookup(id)
			t.Rows = append(t.Rows, []string{fmt.Sprint(i), in.ClassOf(id).String(), d.Kind.String(), in.Format(id)})
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, t.Render())
		_, err = fmt.Fprintf(out, "%d objects\n", in.Len()-1)
		return err
	},
}
