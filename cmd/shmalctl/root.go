package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/internal/logger"
	"github.com/joshuapare/slabshm/segment"
	"github.com/joshuapare/slabshm/segment/store"
)

// envStore supplies the default for --store.
const envStore = "SLABSHM_STORE"

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	storeSpec string
	cellSize  uint32
	cellsNum  uint32
)

var rootCmd = &cobra.Command{
	Use:   "shmalctl",
	Short: "Create, inspect and operate fixed-cell shared memory segments",
	Long: `shmalctl manages shared memory segments used by the fixed-cell allocator.
It can create and destroy segments, allocate and free cells, inspect the
descriptor array, and dump or restore compressed snapshots.

The segment is selected with --store (or $SLABSHM_STORE):
  file:/dev/shm/orders   memory-mapped file
  sysv:0x5eed            System V segment by key
  sysv-name:orders       System V segment keyed by a hash of the name`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug, JSON: jsonOut})
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVarP(&storeSpec, "store", "s", os.Getenv(envStore), "Backing store spec (file:<path>, sysv:<key>, sysv-name:<name>)")
	rootCmd.PersistentFlags().
		Uint32Var(&cellSize, "cell-size", 0, "Cell size in bytes (read from the segment when omitted)")
	rootCmd.PersistentFlags().
		Uint32Var(&cellsNum, "cells", 0, "Number of cells (read from the segment when omitted)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func openStore() (store.Store, error) {
	if storeSpec == "" {
		return nil, fmt.Errorf("no store given: use --store or $%s", envStore)
	}
	return store.ParseSpec(storeSpec)
}

// attach opens the selected segment. Geometry flags left at zero are read
// from the segment header.
func attach() (*segment.Segment, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	cs, cn := cellSize, cellsNum
	if cs == 0 || cn == 0 {
		hcs, hcn, err := segment.Geometry(st)
		if err != nil {
			return nil, err
		}
		if cs == 0 {
			cs = hcs
		}
		if cn == 0 {
			cn = hcn
		}
	}
	printVerbose("Attaching %s (%d cells of %d bytes)\n", st, cn, cs)
	return segment.Attach(st, cs, cn)
}

// withAllocator attaches, runs fn and detaches.
func withAllocator(fn func(*alloc.Allocator) error) (err error) {
	seg, err := attach()
	if err != nil {
		return err
	}
	defer func() {
		if derr := seg.Detach(); err == nil {
			err = derr
		}
	}()
	a, err := alloc.New(seg)
	if err != nil {
		return err
	}
	return fn(a)
}

func parseOffset(s string) (alloc.Offset, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return alloc.NoHint, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	return alloc.Offset(v), nil
}

func formatSize(size uint64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
