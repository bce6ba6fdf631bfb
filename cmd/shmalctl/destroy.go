package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDestroyCmd())
}

func newDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Remove a segment",
		Long: `The destroy command marks the segment for removal. Processes that are
still attached keep their mapping until they detach; new attaches fail.

Example:
  shmalctl destroy --store file:/dev/shm/orders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, err := attach()
			if err != nil {
				return err
			}
			name := seg.Store().String()
			if err := seg.Destroy(); err != nil {
				return err
			}
			printVerbose("Destroyed %s\n", name)
			return nil
		},
	}
}
