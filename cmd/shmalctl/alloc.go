package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
)

var (
	allocHint     string
	allocData     string
	allocString   string
	allocEncoding string
)

func init() {
	rootCmd.AddCommand(newAllocCmd())
}

func newAllocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc [size]",
		Short: "Allocate cells and print the offset",
		Long: `The alloc command reserves enough cells for size bytes and prints the
pool offset of the allocation. With --data the bytes are copied in; with
--string the text is stored NUL-terminated, optionally transcoded with
--encoding. --hint requests a specific offset.

Example:
  shmalctl alloc 100 --store file:/dev/shm/orders
  shmalctl alloc 16 --hint 0x40 --store file:/dev/shm/orders
  shmalctl alloc --string "hello" --encoding utf-16le --store sysv:0x5eed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlloc(args)
		},
	}
	cmd.Flags().StringVar(&allocHint, "hint", "", "Offset the allocation must start at")
	cmd.Flags().StringVar(&allocData, "data", "", "Bytes to copy into the allocation")
	cmd.Flags().StringVar(&allocString, "string", "", "NUL-terminated string to store")
	cmd.Flags().StringVar(&allocEncoding, "encoding", "", "Encoding for --string (e.g. utf-16le, windows-1252)")
	cmd.MarkFlagsMutuallyExclusive("data", "string")
	return cmd
}

func runAlloc(args []string) error {
	hasPayload := allocData != "" || allocString != ""
	if len(args) == 0 && !hasPayload {
		return errors.New("alloc needs a size, --data or --string")
	}
	if hasPayload && allocHint != "" {
		return errors.New("--hint cannot be combined with --data or --string")
	}
	enc, err := lookupEncoding(allocEncoding)
	if err != nil {
		return err
	}

	return withAllocator(func(a *alloc.Allocator) error {
		var off alloc.Offset
		var err error
		switch {
		case allocData != "":
			off, err = a.Dup([]byte(allocData))
		case allocString != "" && enc != nil:
			off, err = a.DupEncoded(allocString, enc)
		case allocString != "":
			off, err = a.DupString(allocString)
		default:
			size, perr := strconv.Atoi(args[0])
			if perr != nil {
				return fmt.Errorf("invalid size %q: %w", args[0], perr)
			}
			hint := alloc.NoHint
			if allocHint != "" {
				if hint, err = parseOffset(allocHint); err != nil {
					return err
				}
			}
			off, err = a.AllocAt(size, hint)
		}
		if err != nil {
			return err
		}

		if jsonOut {
			return printJSON(map[string]any{"offset": off})
		}
		printInfo("%d\n", off)
		return nil
	})
}
