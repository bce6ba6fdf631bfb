package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the descriptor array for corruption",
		Long: `The verify command checks every descriptor against the run-length
invariant and exits non-zero when it is violated.

Example:
  shmalctl verify --store file:/dev/shm/orders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAllocator(func(a *alloc.Allocator) error {
				if err := a.Verify(); err != nil {
					return err
				}
				if jsonOut {
					return printJSON(map[string]any{"ok": true})
				}
				printInfo("✓ %d descriptors consistent\n", a.Segment().CellsNum())
				return nil
			})
		},
	}
}
