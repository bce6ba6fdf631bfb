package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
)

func init() {
	rootCmd.AddCommand(newClearCmd())
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Free every cell",
		Long: `The clear command resets the descriptor array to a single free run.
Pool contents are not touched; offsets held by other processes become invalid.

Example:
  shmalctl clear --store file:/dev/shm/orders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAllocator(func(a *alloc.Allocator) error {
				if err := a.Clear(); err != nil {
					return err
				}
				printVerbose("Cleared %d cells\n", a.Segment().CellsNum())
				return nil
			})
		},
	}
}
