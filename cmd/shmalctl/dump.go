package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/snapshot"
)

var (
	dumpCodec string
	dumpForce bool
)

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file|->",
		Short: "Write a compressed snapshot of the segment",
		Long: `The dump command captures the counters, descriptor array and pool of a
segment under its lock and writes them as one snapshot frame. Use "-" for
stdout. Files are written to a temp file and renamed into place; an existing
file is only replaced with --force.

Example:
  shmalctl dump orders.snap --codec zstd --store file:/dev/shm/orders
  shmalctl dump - --codec s2 --store sysv:0x5eed | ssh backup 'cat > seg.snap'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	cmd.Flags().StringVar(&dumpCodec, "codec", "zstd", "Compression codec: none, zstd, s2, lz4")
	cmd.Flags().BoolVar(&dumpForce, "force", false, "Replace an existing snapshot file")
	return cmd
}

func runDump(args []string) error {
	codec, err := snapshot.ParseCodec(dumpCodec)
	if err != nil {
		return err
	}
	path := args[0]
	if path != "-" && !dumpForce {
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Errorf("snapshot %s already exists (use --force to replace)", path)
		}
	}

	seg, err := attach()
	if err != nil {
		return err
	}
	defer seg.Detach()

	if path == "-" {
		_, err := snapshot.Write(os.Stdout, seg, codec)
		return err
	}

	n, err := snapshot.WriteFile(path, seg, codec)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	printVerbose("Wrote %s (%s, %s of %s)\n", path, codec, formatSize(uint64(n)), formatSize(seg.Size()))
	return nil
}
