package gemm

// Transpose swaps m[i,j] with m[j,i] for every pair above the diagonal,
// turning the n×n row-major buffer into its transpose without extra memory.
// The diagonal is left in place.
//
// The caller must hold exclusive access to m; nothing may read it
// concurrently while the swap runs.
func Transpose[T any](m []T, n int) {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m[i*n+j], m[j*n+i] = m[j*n+i], m[i*n+j]
		}
	}
}
