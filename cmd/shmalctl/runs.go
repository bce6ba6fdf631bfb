package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
)

func init() {
	rootCmd.AddCommand(newRunsCmd())
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List free and used runs",
		Long: `The runs command walks the descriptor array run by run and prints
each run's offset, first cell, length and state.

Example:
  shmalctl runs --store file:/dev/shm/orders --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns()
		},
	}
}

func runRuns() error {
	return withAllocator(func(a *alloc.Allocator) error {
		runs, err := a.Runs()
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(runs)
		}
		cs := a.Segment().CellSize()
		printInfo("%-12s %-10s %-10s %s\n", "OFFSET", "CELL", "CELLS", "STATE")
		for _, r := range runs {
			state := "used"
			if r.Free {
				state = "free"
			}
			printInfo("%-12d %-10d %-10d %s (%s)\n", r.Offset, r.Start, r.Len, state, formatSize(uint64(r.Len)*uint64(cs)))
		}
		return nil
	})
}
