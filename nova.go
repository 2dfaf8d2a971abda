// Package nova is the thin top-level façade over the tensor and
// autograd engine packages: re-exported types and package-level
// constructors so a caller only needs one import for common usage.
package nova

import (
	"github.com/csotherden/nova/autograd"
	"github.com/csotherden/nova/internal/autograd/graph"
	"github.com/csotherden/nova/tensor"
)

// Tensor, DType and Device are re-exported from the tensor package so
// callers of nova need not import it directly for common usage.
type (
	Tensor = tensor.Tensor
	DType  = tensor.DType
	Device = tensor.Device
)

const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64

	CPU = tensor.CPU
)

// Zeros, Ones, FromFloat32 and FromFloat64 delegate to the tensor
// package's DefaultPool-backed constructors.
func Zeros(shape []int64, dtype DType) (*Tensor, error) { return tensor.Zeros(shape, dtype) }
func Ones(shape []int64, dtype DType) (*Tensor, error)  { return tensor.Ones(shape, dtype) }

func FromFloat32(shape []int64, data []float32) (*Tensor, error) {
	return tensor.FromFloat32(tensor.DefaultPool, shape, data)
}

func FromFloat64(shape []int64, data []float64) (*Tensor, error) {
	return tensor.FromFloat64(tensor.DefaultPool, shape, data)
}

// Engine re-exports the autograd engine type so callers building a
// small program don't need a second import for the common path.
type Engine = autograd.Engine

// NewEngine returns a fresh autodiff engine with an empty graph.
func NewEngine() *Engine { return autograd.New() }

// ValueID re-exports the graph value identifier type returned by
// Engine.TrackInput/Apply.
type ValueID = graph.ValueID
