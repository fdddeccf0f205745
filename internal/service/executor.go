package service

import "github.com/panjf2000/ants/v2"

// Executor schedules background ingestion tasks.
type Executor interface {
	Execute(task func()) error
}

// GoExecutor runs each task on a fresh goroutine.
type GoExecutor struct{}

func (GoExecutor) Execute(task func()) error {
	go task()
	return nil
}

// PoolExecutor runs tasks on a bounded goroutine pool so a burst of
// ingestion requests cannot spawn unbounded workers.
type PoolExecutor struct {
	pool *ants.Pool
}

// NewPoolExecutor creates a pool with the given worker count.
func NewPoolExecutor(workers int) (*PoolExecutor, error) {
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &PoolExecutor{pool: pool}, nil
}

func (e *PoolExecutor) Execute(task func()) error {
	return e.pool.Submit(task)
}

// Release shuts the pool down. Pending tasks are discarded.
func (e *PoolExecutor) Release() {
	e.pool.Release()
}
