package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
)

var (
	readString   bool
	readEncoding string
)

func init() {
	rootCmd.AddCommand(newReadCmd())
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <offset>",
		Short: "Print the contents of an allocation",
		Long: `The read command prints the cells reserved by the allocation at offset
as a hex dump, or with --string as a NUL-terminated string decoded with
--encoding.

Example:
  shmalctl read 0x40 --store file:/dev/shm/orders
  shmalctl read 0 --string --encoding utf-16le --store sysv:0x5eed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(args)
		},
	}
	cmd.Flags().BoolVar(&readString, "string", false, "Print as a NUL-terminated string")
	cmd.Flags().StringVar(&readEncoding, "encoding", "", "Encoding of the stored string")
	return cmd
}

func runRead(args []string) error {
	off, err := parseOffset(args[0])
	if err != nil {
		return err
	}
	enc, err := lookupEncoding(readEncoding)
	if err != nil {
		return err
	}

	return withAllocator(func(a *alloc.Allocator) error {
		if readString || enc != nil {
			var s string
			if enc != nil {
				s, err = a.StringEncoded(off, enc)
			} else {
				s, err = a.String(off)
			}
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]any{"offset": off, "string": s})
			}
			printInfo("%s\n", s)
			return nil
		}

		data, err := a.Copy(off)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(map[string]any{"offset": off, "hex": hex.EncodeToString(data)})
		}
		printInfo("%s", hex.Dump(data))
		return nil
	})
}
