package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/logger"
	"github.com/samcharles93/gemmbench/internal/verify"
)

// Limits on a single verify request. Every thread count builds its own pool
// for each size, so the list lengths are bounded as well as the values.
const (
	maxVerifySize    = 256
	maxVerifySizes   = 16
	maxVerifyThreads = 8
)

// maxVerifyPool is the largest pool a verify request may ask for.
func maxVerifyPool() int {
	return min(4*max(runtime.GOMAXPROCS(0), 1), gemm.MaxThreads)
}

type Server struct {
	multiplier *Multiplier
	log        logger.Logger
}

func NewServer(multiplier *Multiplier, log logger.Logger) *Server {
	if multiplier == nil {
		multiplier = NewMultiplier(DefaultMaxDimension)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		multiplier: multiplier,
		log:        log,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/kernels", s.handleListKernels)
	e.POST("/v1/multiply", s.handleMultiply)
	e.POST("/v1/verify", s.handleVerify)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListKernels(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   Kernels(),
	})
}

func (s *Server) handleMultiply(c *echo.Context) error {
	req, err := decodeJSON[MultiplyRequest](c.Request().Body, s.maxBodyBytes())
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}

	resp, err := s.multiplier.Multiply(c.Request().Context(), req)
	if err != nil {
		var invalid invalidRequestError
		if errors.As(err, &invalid) {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", invalid.msg, invalid.param, invalid.code)
		}
		s.log.Error("multiply failed", "kernel", req.Kernel, "n", req.N, "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}

	s.log.Debug("multiply", "id", resp.ID, "kernel", string(resp.Kernel), "n", resp.N, "elapsed_ns", resp.ElapsedNS)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVerify(c *echo.Context) error {
	req, err := decodeJSON[VerifyRequest](c.Request().Body, 1<<20)
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}
	if len(req.Sizes) == 0 {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "sizes must not be empty", "sizes", "")
	}
	if len(req.Sizes) > maxVerifySizes {
		return writeError(c, http.StatusBadRequest, "invalid_request_error",
			fmt.Sprintf("at most %d sizes per request", maxVerifySizes), "sizes", "too_many_sizes")
	}
	if len(req.Threads) > maxVerifyThreads {
		return writeError(c, http.StatusBadRequest, "invalid_request_error",
			fmt.Sprintf("at most %d thread counts per request", maxVerifyThreads), "threads", "too_many_threads")
	}
	poolLimit := maxVerifyPool()
	for _, t := range req.Threads {
		if t > poolLimit {
			return writeError(c, http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("thread counts must not exceed %d", poolLimit), "threads", "invalid_threads")
		}
	}
	for _, n := range req.Sizes {
		if n < 0 || n > maxVerifySize {
			return writeError(c, http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("sizes must be between 0 and %d", maxVerifySize), "sizes", "invalid_dimension")
		}
	}

	outcomes, err := verify.Check(c.Request().Context(), verify.Options{
		Sizes:     req.Sizes,
		Threads:   req.Threads,
		Seed:      req.Seed,
		Tolerance: req.Tolerance,
	})
	if err != nil {
		var perr *gemm.PoolError
		if errors.As(err, &perr) {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "threads", "invalid_threads")
		}
		s.log.Error("verify failed", "sizes", len(req.Sizes), "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	return c.JSON(http.StatusOK, VerifyResponse{
		Object:   "verify.result",
		OK:       len(verify.Failed(outcomes)) == 0,
		Outcomes: outcomes,
	})
}

// maxBodyBytes allows three full operands of the largest accepted size with
// generous room per encoded number.
func (s *Server) maxBodyBytes() int64 {
	n := int64(s.multiplier.MaxDimension())
	return 3*n*n*32 + 4096
}

func writeBadRequest(c *echo.Context, param, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader, limit int64) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r, limit))
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode request: %w", err)
	}
	return out, nil
}
