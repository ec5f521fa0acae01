package main

import (
	"fmt"

	"github.com/entrhq/pagecheck/pkg/runner"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range runner.Names() {
				scenario, err := runner.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-8s %s\n", scenario.Name, scenario.Description)
			}
			return nil
		},
	}
}
