// Package pool runs tasks on worker pools where every task is a thread:
// the worker goroutine is attached before the task starts and detached when
// it returns, so live ids stay bounded by the pool size.
package pool

import (
	"context"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/moontrade/threadid"
	"github.com/moontrade/threadid/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// Task is a unit of work run as an attached thread.
type Task func(t *threadid.Thread)

// Ants submits tasks to an ants goroutine pool.
type Ants struct {
	domain *threadid.Domain
	pool   *ants.Pool
}

// NewAnts builds an ants pool of size workers. A nil domain means the
// default domain.
func NewAnts(d *threadid.Domain, size int) (*Ants, error) {
	if d == nil {
		d = threadid.Default()
	}
	p, err := ants.NewPool(size, ants.WithPanicHandler(func(e interface{}) {
		logger.Warn("ants worker panicked: %v", e)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "pool: ants")
	}
	return &Ants{domain: d, pool: p}, nil
}

// Submit queues task. It blocks while every worker is busy.
func (p *Ants) Submit(task Task) error {
	if task == nil {
		return nil
	}
	return p.pool.Submit(func() {
		if err := p.domain.Run(task); err != nil {
			logger.WarnErr(err, "pooled task failed")
		}
	})
}

// Running returns the number of busy workers.
func (p *Ants) Running() int {
	return p.pool.Running()
}

// Cap returns the pool size.
func (p *Ants) Cap() int {
	return p.pool.Cap()
}

// Release stops the pool. Queued tasks still run.
func (p *Ants) Release() {
	p.pool.Release()
}

// Gopool submits tasks to a bytedance gopool.
type Gopool struct {
	domain *threadid.Domain
	pool   gopool.Pool
}

// NewGopool builds a gopool named name with up to size workers. A nil
// domain means the default domain.
func NewGopool(d *threadid.Domain, name string, size int32) *Gopool {
	if d == nil {
		d = threadid.Default()
	}
	p := gopool.NewPool(name, size, gopool.NewConfig())
	p.SetPanicHandler(func(ctx context.Context, e interface{}) {
		logger.Warn("gopool %s worker panicked: %v", name, e)
	})
	return &Gopool{domain: d, pool: p}
}

// Go runs task on the pool.
func (p *Gopool) Go(task Task) {
	p.CtxGo(context.Background(), func(_ context.Context, t *threadid.Thread) {
		task(t)
	})
}

// CtxGo runs task on the pool. The context handed to task carries the
// attached thread; see threadid.FromContext.
func (p *Gopool) CtxGo(ctx context.Context, task func(ctx context.Context, t *threadid.Thread)) {
	if task == nil {
		return
	}
	p.pool.CtxGo(ctx, func() {
		err := p.domain.Run(func(t *threadid.Thread) {
			task(threadid.NewContext(ctx, t), t)
		})
		if err != nil {
			logger.WarnErr(err, "task on gopool %s failed", p.pool.Name())
		}
	})
}

// Workers returns the number of running workers.
func (p *Gopool) Workers() int32 {
	return p.pool.WorkerCount()
}
