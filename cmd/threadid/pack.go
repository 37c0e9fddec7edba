package main

import (
	"sort"
	"sync"

	"github.com/moontrade/threadid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var packThreads int

func init() {
	cmd := newPackCmd()
	cmd.Flags().IntVarP(&packThreads, "threads", "n", 64, "Threads to spawn at once")
	rootCmd.AddCommand(cmd)
}

func newPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack",
		Short: "Check that concurrent threads get densely packed live ids",
		Long: `The pack command starts N threads that all take their live id at the
same moment and checks the ids are exactly 0..N-1.

Example:
  threadid pack -n 256
  threadid pack --slot-policy smallest-first`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := runPack(threadid.NewDomain(), packThreads)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]interface{}{"threads": len(ids), "ids": ids})
			}
			printInfo("%d threads packed into live ids 0..%d\n", len(ids), len(ids)-1)
			return nil
		},
	}
}

// runPack spawns n threads on d, holds them all alive until each has a live
// id and returns the ids sorted.
func runPack(d *threadid.Domain, n int) ([]threadid.LiveID, error) {
	if n < 1 {
		return nil, errors.Errorf("pack: need at least one thread, got %d", n)
	}
	var (
		start   = make(chan struct{})
		ready   sync.WaitGroup
		release = make(chan struct{})
		ids     = make([]threadid.LiveID, n)
		errs    = make([]error, n)
		handles = make([]*threadid.Handle, n)
	)
	ready.Add(n)
	for i := 0; i < n; i++ {
		i := i
		handles[i] = d.Go(func(t *threadid.Thread) {
			<-start
			ids[i], errs[i] = t.LiveID()
			ready.Done()
			<-release
		})
	}
	close(start)
	ready.Wait()
	close(release)
	for _, h := range handles {
		if err := h.Join(); err != nil {
			return nil, err
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id.Index() != i {
			return ids, errors.Errorf("pack: expected live id %d, got %d", i, id)
		}
	}
	return ids, nil
}
