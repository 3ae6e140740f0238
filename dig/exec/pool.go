// Package exec implements the Executor Pool (Component D): a bounded
// permit semaphore over external-process launches, plus helpers for
// joining concurrent task/step futures.
package exec

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrently running external processes to N
// permits. It does not bound the number of concurrently running
// goroutines/futures in general -- only the subset that actually holds a
// permit across spawning and waiting on a subprocess, matching spec.md
// §4.D/§5: "a task awaiting its children does not hold a permit."
type Pool struct {
	sem *semaphore.Weighted
}

// New builds a pool with n permits. n<=0 is treated as 1 (spec.md §6's CLI
// default for `-p/--processes`).
func New(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a permit is available or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a permit to the pool.
func (p *Pool) Release() {
	p.sem.Release(1)
}

// Run acquires a permit, invokes fn, and releases the permit once fn
// returns -- the shape every external-process launch in dig/step goes
// through.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if err := p.Acquire(ctx); err != nil {
		return err
	}
	defer p.Release()
	return fn()
}

// Group joins concurrent task/step futures (sub-task fan-out, parallel-group
// children) the way dig/step.ParallelStep's plain sync.WaitGroup join does:
// every goroutine runs to completion against the same, uncanceled context,
// and the first error among them is reported only after all have finished.
// This deliberately does not derive a cancelable child context the way
// errgroup.WithContext would -- spec.md §5/§7 require that "any child error
// aborts the group after the in-flight children finish (no forced
// interruption)," and a canceled context reaching psexec's
// exec.CommandContext would kill every other in-flight sibling's process.
type Group struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
}

// NewGroup returns an empty Group. Unlike errgroup.WithContext, it carries
// no context of its own -- callers pass the same, unmodified ctx to every
// goroutine they schedule via Go.
func NewGroup() *Group {
	return &Group{}
}

// Go schedules fn to run concurrently.
func (g *Group) Go(fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(); err != nil {
			g.mu.Lock()
			if g.firstErr == nil {
				g.firstErr = err
			}
			g.mu.Unlock()
		}
	}()
}

// Wait blocks until every scheduled goroutine has returned, then reports
// the first error encountered, if any.
func (g *Group) Wait() error {
	g.wg.Wait()
	return g.firstErr
}
