package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"irguard/internal/ir"
	"irguard/internal/ui"
)

var callsCategory string

func init() {
	callsCmd.Flags().StringVar(&callsCategory, "category", "", "only list calls of one category (creation|mutation|inspection|invalidating)")
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Print the classification of every native call",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := strings.ToLower(strings.TrimSpace(callsCategory))
		switch filter {
		case "", "creation", "mutation", "inspection", "invalidating":
		default:
			return fmt.Errorf("invalid --category value %q", callsCategory)
		}

		t := &ui.Table{Header: []string{"call", "category", "shape", "uniqued"}}
		for _, c := range ir.Calls() {
			if filter != "" && c.Category.String() != filter {
				continue
			}
			shape, uniqued := "", ""
			if c.Category == ir.CategoryInvalidating {
				shape = c.Shape.String()
			}
			if c.Uniqued {
				uniqued = "yes"
			}
			t.Rows = append(t.Rows, []string{c.Name, c.Category.String(), shape, uniqued})
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), t.Render())
		return err
	},
}
