package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/segment"
)

var createForward bool

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new segment",
		Long: `The create command allocates a new segment of --cells cells of
--cell-size bytes each and initializes it as one free run. The store must not
already exist.

Example:
  shmalctl create --store file:/dev/shm/orders --cell-size 64 --cells 4096
  shmalctl create --store sysv:0x5eed --cell-size 16 --cells 100 --forward-coalesce`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate()
		},
	}
	cmd.Flags().BoolVar(&createForward, "forward-coalesce", false, "Also merge the following free run on free")
	return cmd
}

func runCreate() error {
	if cellSize == 0 || cellsNum == 0 {
		return errors.New("create needs --cell-size and --cells")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	var opts []segment.Option
	if createForward {
		opts = append(opts, segment.WithForwardCoalesce())
	}

	seg, err := segment.Create(st, cellSize, cellsNum, opts...)
	if err != nil {
		return err
	}
	size := seg.Size()
	if err := seg.Detach(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"store":            st.String(),
			"cell_size":        cellSize,
			"cells_num":        cellsNum,
			"size":             size,
			"forward_coalesce": createForward,
		})
	}
	printInfo("Created %s: %d cells of %d bytes (%s)\n", st, cellsNum, cellSize, formatSize(size))
	return nil
}
