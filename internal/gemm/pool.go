package gemm

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// rowTask is handed to every worker taking part in one ForEachRow call.
// Workers claim row indices from next until all n rows are taken.
type rowTask struct {
	n    int
	next *atomic.Int64
	fn   func(i int)
	done chan struct{}
}

func (t rowTask) run() {
	for {
		i := int(t.next.Add(1)) - 1
		if i >= t.n {
			return
		}
		t.fn(i)
	}
}

// Pool is a fixed set of worker goroutines that executes row tasks.
//
// Two kinds exist: the shared pool returned by DefaultPool, built on first
// use and kept for the life of the process, and scoped pools from NewPool
// that the caller closes when done.
type Pool struct {
	size      int
	shared    bool
	tasks     chan rowTask
	closeOnce sync.Once
	closed    atomic.Bool
}

var defaultPool = sync.OnceValue(func() *Pool {
	p := newPool(max(runtime.GOMAXPROCS(0), 1))
	p.shared = true
	return p
})

// DefaultPool returns the process-wide pool sized to GOMAXPROCS at the time
// of first use.
func DefaultPool() *Pool {
	return defaultPool()
}

// NewPool builds a pool of exactly threads workers. It fails when threads is
// below 1 or above MaxThreads.
func NewPool(threads int) (*Pool, error) {
	switch {
	case threads < 1:
		return nil, &PoolError{Threads: threads, Err: ErrInvalidThreadCount}
	case threads > MaxThreads:
		return nil, &PoolError{Threads: threads, Err: ErrTooManyThreads}
	}
	return newPool(threads), nil
}

func newPool(size int) *Pool {
	p := &Pool{
		size:  size,
		tasks: make(chan rowTask, size),
	}
	for w := 0; w < size; w++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for task := range p.tasks {
		task.run()
		task.done <- struct{}{}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Close stops the workers of a scoped pool. It is a no-op on the default
// pool and safe to call more than once. Close must not race with ForEachRow.
func (p *Pool) Close() {
	if p.shared {
		return
	}
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.tasks)
	})
}

// ForEachRow calls fn(i) exactly once for every i in [0, n) and returns when
// all calls have finished. Calls run concurrently on up to Size workers, so
// fn must only write state owned by row i.
//
// Everything the caller did before ForEachRow is visible to fn, which is
// what lets a kernel mutate an operand and then share it read-only with the
// row tasks.
func (p *Pool) ForEachRow(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := min(p.size, n)
	if workers == 1 || p.closed.Load() {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	task := rowTask{
		n:    n,
		next: &next,
		fn:   fn,
		done: make(chan struct{}, workers),
	}
	for w := 0; w < workers; w++ {
		p.tasks <- task
	}
	for w := 0; w < workers; w++ {
		<-task.done
	}
}
