// Package cpu implements the pure Go CPU compute backend.
//
// Element-wise kernels are chunk-parallelized via internal/parallel; matrix
// multiplication is delegated to gonum (blas32 for float32, mat for float64).
package cpu

import (
	"github.com/flintml/flint/internal/parallel"
	"github.com/flintml/flint/internal/tensor"
)

// CPUBackend implements tensor.Backend with pure Go kernels.
type CPUBackend struct {
	pcfg parallel.Config
}

// New creates a new CPU backend with default parallel configuration.
func New() *CPUBackend {
	return &CPUBackend{pcfg: parallel.DefaultConfig()}
}

// NewSequential creates a CPU backend that never parallelizes kernels.
// Useful for deterministic benchmarking and debugging.
func NewSequential() *CPUBackend {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &CPUBackend{pcfg: cfg}
}

// Name returns the backend name.
func (b *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (b *CPUBackend) Device() tensor.Device {
	return tensor.CPU
}

// mustRaw allocates a result tensor, panicking on invalid shapes.
// Shape validity is established by the callers' argument checks.
func mustRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		panic(err)
	}
	return raw
}

// Compile-time check.
var _ tensor.Backend = (*CPUBackend)(nil)
