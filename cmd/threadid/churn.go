package main

import (
	"context"
	"sync"
	"time"

	"github.com/moontrade/threadid"
	"github.com/moontrade/threadid/logger"
	"github.com/moontrade/threadid/pkg/slots"
	"github.com/moontrade/threadid/pkg/timex"
	"github.com/moontrade/threadid/pool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	churnWorkers int
	churnWaves   int
	churnTasks   int
	churnGopool  bool
)

func init() {
	cmd := newChurnCmd()
	cmd.Flags().IntVarP(&churnWorkers, "workers", "w", 16, "Pool size")
	cmd.Flags().IntVar(&churnWaves, "waves", 10, "Waves of tasks")
	cmd.Flags().IntVarP(&churnTasks, "tasks", "t", 1000, "Tasks per wave")
	cmd.Flags().BoolVar(&churnGopool, "gopool", false, "Run tasks on gopool instead of ants")
	rootCmd.AddCommand(cmd)
}

func newChurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "churn",
		Short: "Run waves of short lived threads and report allocator stats",
		Long: `The churn command runs waves of tasks on a worker pool. Each task is a
thread that takes a live and a unique id and exits, so live ids are
released and reused while unique ids keep growing.

Example:
  threadid churn -w 8 --waves 100
  threadid churn --gopool --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := threadid.NewDomain()
			sw := timex.NewStopWatch()
			s, err := runChurn(cmd.Context(), d, churnOptions{
				workers: churnWorkers,
				waves:   churnWaves,
				tasks:   churnTasks,
				gopool:  churnGopool,
			})
			if err != nil {
				return err
			}
			logger.Log().Infof("churn done in %s, %s per thread", sw.Elapsed(), sw.PerOp(s.Acquires))
			return printStats(s)
		},
	}
}

type churnOptions struct {
	workers int
	waves   int
	tasks   int
	gopool  bool
}

type submitFunc func(task pool.Task) error

func newSubmitter(d *threadid.Domain, o churnOptions) (submitFunc, func(), error) {
	if o.gopool {
		p := pool.NewGopool(d, "threadid-churn", int32(o.workers))
		return func(task pool.Task) error {
			p.Go(task)
			return nil
		}, func() {}, nil
	}
	p, err := pool.NewAnts(d, o.workers)
	if err != nil {
		return nil, nil, err
	}
	return p.Submit, p.Release, nil
}

// runChurn runs o.waves waves of o.tasks threads and returns d's allocator
// stats once every thread has detached.
func runChurn(ctx context.Context, d *threadid.Domain, o churnOptions) (slots.Stats, error) {
	if o.workers < 1 {
		return slots.Stats{}, errors.Errorf("churn: need at least one worker, got %d", o.workers)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	submit, release, err := newSubmitter(d, o)
	if err != nil {
		return slots.Stats{}, err
	}
	defer release()

	var (
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for wave := 0; wave < o.waves; wave++ {
		if err := ctx.Err(); err != nil {
			return d.Allocator().Stats(), err
		}
		var wg sync.WaitGroup
		wg.Add(o.tasks)
		for i := 0; i < o.tasks; i++ {
			err := submit(func(t *threadid.Thread) {
				defer wg.Done()
				if _, err := t.LiveID(); err != nil {
					record(err)
					return
				}
				if _, err := t.UniqueID(); err != nil {
					record(err)
				}
			})
			if err != nil {
				wg.Done()
				record(errors.Wrap(err, "churn: submit"))
			}
		}
		wg.Wait()
		logger.Debug("churn wave %d done, %d live ids", wave, d.Allocator().Stats().Live)
	}
	waitDetached(d)

	mu.Lock()
	defer mu.Unlock()
	return d.Allocator().Stats(), firstErr
}

// waitDetached waits for pool workers to detach after their last task. The
// task signals completion before its thread detaches.
func waitDetached(d *threadid.Domain) {
	deadline := time.Now().Add(5 * time.Second)
	for d.Attached() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

func printStats(s slots.Stats) error {
	if jsonOut {
		return printJSON(s)
	}
	printInfo("high-water mark: %d\n", s.HighWater)
	printInfo("live:            %d\n", s.Live)
	printInfo("free:            %d\n", s.Free)
	printInfo("acquires:        %d\n", s.Acquires)
	printInfo("releases:        %d\n", s.Releases)
	return nil
}
