package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
)

func init() {
	rootCmd.AddCommand(newFreeCmd())
}

func newFreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "free <offset>...",
		Short: "Release allocations by offset",
		Long: `The free command releases each allocation starting at the given pool
offsets. Offsets accept decimal or 0x-prefixed hex.

Example:
  shmalctl free 0 0x40 --store file:/dev/shm/orders`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFree(args)
		},
	}
}

func runFree(args []string) error {
	offsets := make([]alloc.Offset, 0, len(args))
	for _, s := range args {
		off, err := parseOffset(s)
		if err != nil {
			return err
		}
		offsets = append(offsets, off)
	}
	return withAllocator(func(a *alloc.Allocator) error {
		for _, off := range offsets {
			if err := a.Free(off); err != nil {
				return err
			}
			printVerbose("Freed %d\n", off)
		}
		return nil
	})
}
