package gemm

import (
	"fmt"
	"strings"
)

// Kernel names one of the multiplication strategies.
type Kernel string

const (
	KernelNaive              Kernel = "naive"
	KernelTransposed         Kernel = "transpose"
	KernelParallel           Kernel = "parallel"
	KernelParallelTransposed Kernel = "parallel-transpose"
	KernelParallelThreads    Kernel = "parallel-threads"
)

var allKernels = []Kernel{
	KernelNaive,
	KernelTransposed,
	KernelParallel,
	KernelParallelTransposed,
	KernelParallelThreads,
}

// AllKernels lists every kernel in a stable order.
func AllKernels() []Kernel {
	return append([]Kernel(nil), allKernels...)
}

// ParseKernel resolves a kernel name, ignoring case and surrounding space.
// "transposed" and "threads" are accepted as aliases.
func ParseKernel(s string) (Kernel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "transposed":
		return KernelTransposed, nil
	case "parallel-transposed":
		return KernelParallelTransposed, nil
	case "threads":
		return KernelParallelThreads, nil
	}
	for _, k := range allKernels {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKernel, s)
}

// Accumulates reports whether the kernel adds onto the existing contents of
// the result buffer instead of overwriting them.
func (k Kernel) Accumulates() bool {
	return k == KernelNaive || k == KernelTransposed
}

// MutatesB reports whether the kernel transposes its second operand in place.
func (k Kernel) MutatesB() bool {
	return k == KernelTransposed || k == KernelParallelTransposed
}

// Parallel reports whether the kernel runs rows on a worker pool.
func (k Kernel) Parallel() bool {
	return k == KernelParallel || k == KernelParallelTransposed || k == KernelParallelThreads
}

// UsesThreads reports whether the kernel takes an explicit thread count.
func (k Kernel) UsesThreads() bool {
	return k == KernelParallelThreads
}

func (k Kernel) Description() string {
	switch k {
	case KernelNaive:
		return "sequential i-j-k loop, column-wise reads of b, accumulates into c"
	case KernelTransposed:
		return "in-place transpose of b then row-wise reads, accumulates into c"
	case KernelParallel:
		return "one task per row on the shared pool, overwrites c"
	case KernelParallelTransposed:
		return "in-place transpose of b then one task per row on the shared pool, overwrites c"
	case KernelParallelThreads:
		return "one task per row on a pool built for the call, overwrites c"
	default:
		return ""
	}
}

// Run dispatches to the kernel k. threads is only read by
// KernelParallelThreads. For transposing kernels b is left transposed.
func Run[T Number](k Kernel, a, b, c []T, n, threads int) error {
	switch k {
	case KernelNaive:
		Naive(a, b, c, n)
	case KernelTransposed:
		Transposed(a, b, c, n)
	case KernelParallel:
		Parallel(a, b, c, n)
	case KernelParallelTransposed:
		ParallelTransposed(a, b, c, n)
	case KernelParallelThreads:
		return ParallelWithThreads(a, b, c, n, threads)
	default:
		return fmt.Errorf("%w %q", ErrUnknownKernel, string(k))
	}
	return nil
}
