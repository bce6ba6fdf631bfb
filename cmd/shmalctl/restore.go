package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/snapshot"
)

func init() {
	rootCmd.AddCommand(newRestoreCmd())
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file|->",
		Short: "Create a segment from a snapshot",
		Long: `The restore command reads a snapshot frame and creates a new segment in
--store with the recorded geometry, coalescing policy and contents. The store
must not already exist.

Example:
  shmalctl restore orders.snap --store file:/dev/shm/orders`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(args)
		},
	}
}

func runRestore(args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	seg, err := snapshot.Restore(r, st)
	if err != nil {
		return err
	}
	cs, cn := seg.CellSize(), seg.CellsNum()
	if err := seg.Detach(); err != nil {
		return err
	}
	printInfo("Restored %s: %d cells of %d bytes\n", st, cn, cs)
	return nil
}
