package gemm

import (
	"errors"
	"fmt"
)

// MaxThreads bounds the size of an explicitly built pool.
const MaxThreads = 4096

var (
	ErrInvalidThreadCount = errors.New("thread count must be at least 1")
	ErrTooManyThreads     = fmt.Errorf("thread count exceeds %d", MaxThreads)
	ErrUnknownKernel      = errors.New("unknown kernel")
)

// PoolError reports a pool that could not be built for the requested size.
type PoolError struct {
	Threads int
	Err     error
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("gemm: cannot build pool of %d threads: %v", e.Threads, e.Err)
}

func (e *PoolError) Unwrap() error {
	return e.Err
}
