package main

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/segment"
)

var (
	stressWorkers int
	stressOps     int
	stressMaxSize int
	stressSeed    uint64
)

func init() {
	rootCmd.AddCommand(newStressCmd())
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer a segment with concurrent alloc/free",
		Long: `The stress command attaches --workers independent handles to a segment
and runs a random mix of allocations and frees on each, then frees what is left
and verifies the descriptor array. Run it from several shells at once to
exercise the lock across processes.

Example:
  shmalctl stress --workers 8 --ops 100000 --store file:/dev/shm/orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	cmd.Flags().IntVar(&stressWorkers, "workers", 4, "Concurrent workers")
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Operations per worker")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 0, "Largest request in bytes (default 8 cells)")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Random seed")
	return cmd
}

type stressResult struct {
	Workers   int           `json:"workers"`
	Ops       int64         `json:"ops"`
	Allocs    int64         `json:"allocs"`
	Frees     int64         `json:"frees"`
	Retryable int64         `json:"retryable"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Stats     segment.Stats `json:"stats"`
}

func runStress() error {
	seg, err := attach()
	if err != nil {
		return err
	}
	defer seg.Detach()
	st, cs, cn := seg.Store(), seg.CellSize(), seg.CellsNum()
	maxSize := stressMaxSize
	if maxSize <= 0 {
		maxSize = int(cs) * 8
	}

	var allocs, frees, retryable atomic.Int64
	start := time.Now()
	var g errgroup.Group
	for w := range stressWorkers {
		g.Go(func() error {
			ws, err := segment.Attach(st, cs, cn)
			if err != nil {
				return err
			}
			defer ws.Detach()
			a, err := alloc.New(ws)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(stressSeed, uint64(w)))
			var live []alloc.Offset
			for range stressOps {
				if len(live) > 0 && rng.IntN(2) == 0 {
					i := rng.IntN(len(live))
					if err := a.Free(live[i]); err != nil {
						return err
					}
					live[i] = live[len(live)-1]
					live = live[:len(live)-1]
					frees.Add(1)
					continue
				}
				off, err := a.Alloc(1 + rng.IntN(maxSize))
				if alloc.IsRetryable(err) {
					retryable.Add(1)
					continue
				}
				if err != nil {
					return err
				}
				live = append(live, off)
				allocs.Add(1)
			}
			for _, off := range live {
				if err := a.Free(off); err != nil {
					return err
				}
				frees.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	a, err := alloc.New(seg)
	if err != nil {
		return err
	}
	if err := a.Verify(); err != nil {
		return err
	}
	stats, err := seg.Stats()
	if err != nil {
		return err
	}

	res := stressResult{
		Workers:   stressWorkers,
		Ops:       int64(stressWorkers) * int64(stressOps),
		Allocs:    allocs.Load(),
		Frees:     frees.Load(),
		Retryable: retryable.Load(),
		Elapsed:   elapsed,
		Stats:     stats,
	}
	if jsonOut {
		return printJSON(res)
	}
	printInfo("\nStress Results:\n")
	printInfo("  Workers: %d\n", res.Workers)
	printInfo("  Operations: %d in %s\n", res.Ops, res.Elapsed.Round(time.Millisecond))
	printInfo("  Allocations: %d (%d out of memory)\n", res.Allocs, res.Retryable)
	printInfo("  Frees: %d\n", res.Frees)
	printInfo("  Cells taken after run: %d\n", stats.CellsTaken)
	printInfo("  ✓ Descriptor array consistent\n")
	return nil
}
