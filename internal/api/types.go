package api

import (
	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/verify"
)

// MultiplyRequest carries two n×n row-major operands. C is optional; when
// set, accumulating kernels add onto it and parallel kernels overwrite it.
type MultiplyRequest struct {
	Kernel  string    `json:"kernel"`
	N       int       `json:"n"`
	A       []float64 `json:"a"`
	B       []float64 `json:"b"`
	C       []float64 `json:"c,omitempty"`
	Threads int       `json:"threads,omitempty"`
}

type MultiplyResponse struct {
	ID          string      `json:"id"`
	Object      string      `json:"object"`
	CreatedAt   int64       `json:"created_at"`
	Kernel      gemm.Kernel `json:"kernel"`
	N           int         `json:"n"`
	Threads     int         `json:"threads,omitempty"`
	Accumulated bool        `json:"accumulated"`
	Result      []float64   `json:"result"`
	// BTransposed is the second operand as a transposing kernel left it.
	BTransposed []float64 `json:"b_transposed,omitempty"`
	ElapsedNS   int64     `json:"elapsed_ns"`
}

type KernelInfo struct {
	Name        gemm.Kernel `json:"name"`
	Description string      `json:"description"`
	Accumulates bool        `json:"accumulates"`
	MutatesB    bool        `json:"mutates_b"`
	Parallel    bool        `json:"parallel"`
	UsesThreads bool        `json:"uses_threads"`
}

type VerifyRequest struct {
	Sizes     []int   `json:"sizes"`
	Threads   []int   `json:"threads,omitempty"`
	Seed      int64   `json:"seed,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

type VerifyResponse struct {
	Object   string           `json:"object"`
	OK       bool             `json:"ok"`
	Outcomes []verify.Outcome `json:"outcomes"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
