// Package tensor is the eager, value-typed raw tensor layer: shape and
// stride accessors, dtype/device, broadcast-aware construction, an
// element iterator, and the operation surface built on internal/plan,
// internal/iter and internal/kernel.
//
// A tensor is a shape-and-stride view over a refcounted storage; most
// operations allocate a fresh output rather than mutating the receiver.
package tensor

import (
	"fmt"
	"unsafe"

	"github.com/csotherden/nova/config"
	"github.com/csotherden/nova/internal/alloc"
	"github.com/csotherden/nova/internal/storage"
	"github.com/csotherden/nova/internal/xerr"
)

// DType and the dtype constants are re-exported from internal/storage so
// callers never need to import it directly.
type DType = storage.DType

const (
	Float32 = storage.Float32
	Float64 = storage.Float64
	Int32   = storage.Int32
	Int64   = storage.Int64
)

// Device is re-exported from internal/storage.
type Device = storage.Device

const CPU = storage.CPU

var defaultAlignment = config.Load().DefaultAlignment

// DefaultPool is the process-wide BFC pool used by the package-level
// constructors (Zeros, Ones, FromFloat32, ...). Callers that want a
// dedicated or per-goroutine pool should use New directly.
var DefaultPool = alloc.NewPool(config.Load())

// Tensor is the raw, eager tensor value: a shape/stride view over a
// reference-counted Storage. Copying a Tensor value is cheap and aliases
// the same storage; use Clone for a deep copy.
type Tensor struct {
	st     *storage.Storage
	layout storage.Layout
	pool   *alloc.Pool
}

// New allocates a zero-filled, contiguous tensor of shape and dtype from
// pool.
func New(pool *alloc.Pool, shape []int64, dtype DType) (*Tensor, error) {
	st, err := storage.New(pool, shape, dtype, defaultAlignment)
	if err != nil {
		return nil, err
	}
	return &Tensor{st: st, layout: storage.NewContiguousLayout(shape), pool: pool}, nil
}

// Zeros allocates a zero-filled contiguous tensor from DefaultPool.
func Zeros(shape []int64, dtype DType) (*Tensor, error) {
	return New(DefaultPool, shape, dtype)
}

// Ones allocates a contiguous tensor from DefaultPool filled with 1.
func Ones(shape []int64, dtype DType) (*Tensor, error) {
	t, err := New(DefaultPool, shape, dtype)
	if err != nil {
		return nil, err
	}
	n := storage.FlatSize(shape)
	switch dtype {
	case storage.Float32:
		s, err := storage.View[float32](t.st.Buffer, 0, n)
		if err != nil {
			return nil, err
		}
		for i := range s {
			s[i] = 1
		}
	case storage.Float64:
		s, err := storage.View[float64](t.st.Buffer, 0, n)
		if err != nil {
			return nil, err
		}
		for i := range s {
			s[i] = 1
		}
	default:
		return nil, xerr.Newf(xerr.DtypeMismatch, "tensor.Ones", "unsupported dtype %s", dtype)
	}
	return t, nil
}

// Scalar wraps a single value as a rank-1, size-1 tensor.
func Scalar(pool *alloc.Pool, dtype DType, v float64) (*Tensor, error) {
	switch dtype {
	case storage.Float32:
		return FromFloat32(pool, []int64{1}, []float32{float32(v)})
	case storage.Float64:
		return FromFloat64(pool, []int64{1}, []float64{v})
	default:
		return nil, xerr.Newf(xerr.DtypeMismatch, "tensor.Scalar", "scalar requires a float dtype, got %s", dtype)
	}
}

// FromFloat32 allocates a contiguous Float32 tensor of shape from pool,
// filled with data.
func FromFloat32(pool *alloc.Pool, shape []int64, data []float32) (*Tensor, error) {
	st, err := storage.NewFromFloat32(pool, shape, data, defaultAlignment)
	if err != nil {
		return nil, err
	}
	return &Tensor{st: st, layout: storage.NewContiguousLayout(shape), pool: pool}, nil
}

// FromFloat64 is FromFloat32 for float64 data.
func FromFloat64(pool *alloc.Pool, shape []int64, data []float64) (*Tensor, error) {
	st, err := storage.NewFromFloat64(pool, shape, data, defaultAlignment)
	if err != nil {
		return nil, err
	}
	return &Tensor{st: st, layout: storage.NewContiguousLayout(shape), pool: pool}, nil
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int64 { return append([]int64(nil), t.layout.Shape...) }

// Strides returns a copy of the tensor's strides, in elements.
func (t *Tensor) Strides() []int64 { return append([]int64(nil), t.layout.Strides...) }

// DType reports the tensor's element type.
func (t *Tensor) DType() DType { return t.st.DType }

// Device reports where the tensor's storage lives. Only CPU exists today.
func (t *Tensor) Device() Device { return storage.CPU }

// Rank is len(Shape()).
func (t *Tensor) Rank() int { return t.layout.Rank() }

// NumElements is the product of Shape().
func (t *Tensor) NumElements() int64 { return t.layout.FlatSize() }

// Pool reports the BFC pool this tensor's storage was allocated from.
func (t *Tensor) Pool() *alloc.Pool { return t.pool }

// Release drops this tensor's ownership of its underlying buffer.
func (t *Tensor) Release() { t.st.Release() }

// Clone returns a fully independent deep copy: fresh storage, same
// logical contents.
func (t *Tensor) Clone() (*Tensor, error) {
	st, err := t.st.DeepClone(t.pool)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		st: st,
		layout: storage.Layout{
			Shape:   append([]int64(nil), t.layout.Shape...),
			Strides: append([]int64(nil), t.layout.Strides...),
		},
		pool: t.pool,
	}, nil
}

// Alias returns a cheap view sharing the receiver's storage (refcount
// incremented) with identical shape and strides — an independently
// releasable handle to the same data, distinct from Clone's deep copy.
func (t *Tensor) Alias() *Tensor {
	return &Tensor{
		st: t.st.Clone(),
		layout: storage.Layout{
			Shape:   append([]int64(nil), t.layout.Shape...),
			Strides: append([]int64(nil), t.layout.Strides...),
		},
		pool: t.pool,
	}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, dtype=%s, device=%s)", t.layout.Shape, t.st.DType, t.Device())
}

// basePtr returns the address of element 0 of t's backing buffer, viewed
// as type T.
func basePtr[T any](t *Tensor) (unsafe.Pointer, error) {
	n := storage.FlatSize(t.st.Shape)
	if n == 0 {
		return nil, nil
	}
	s, err := storage.View[T](t.st.Buffer, 0, n)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&s[0]), nil
}

// At reads the element at flat logical index flat (row-major over
// Shape()), honouring the tensor's strides — a read-only view into an
// arbitrarily strided tensor, not just a contiguous one.
func At[T any](t *Tensor, flat int64) (T, error) {
	var zero T
	shape, strides := t.layout.Shape, t.layout.Strides
	rank := len(shape)
	if flat < 0 {
		return zero, xerr.Newf(xerr.OutOfRange, "tensor.At", "negative flat index %d", flat)
	}
	rem := flat
	offsetElems := int64(0)
	for a := rank - 1; a >= 0; a-- {
		coord := rem % shape[a]
		rem /= shape[a]
		offsetElems += coord * strides[a]
	}
	if rem != 0 {
		return zero, xerr.Newf(xerr.OutOfRange, "tensor.At", "flat index %d exceeds %d elements", flat, t.NumElements())
	}
	base, err := basePtr[T](t)
	if err != nil {
		return zero, err
	}
	itemsize := int64(unsafe.Sizeof(zero))
	return *(*T)(unsafe.Add(base, offsetElems*itemsize)), nil
}

func shapesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// broadcastShape computes the right-aligned broadcast shape of shapes,
// the same rule internal/plan.BuildBroadcastPlan applies, so callers can
// size an output tensor before the planner validates it for real.
func broadcastShape(op string, shapes ...[]int64) ([]int64, error) {
	rank := 0
	for _, s := range shapes {
		if len(s) > rank {
			rank = len(s)
		}
	}
	out := make([]int64, rank)
	for a := 0; a < rank; a++ {
		extent := int64(1)
		for _, s := range shapes {
			pad := rank - len(s)
			e := int64(1)
			if a >= pad {
				e = s[a-pad]
			}
			if e == 1 {
				continue
			}
			if extent == 1 {
				extent = e
			} else if e != extent {
				return nil, xerr.Newf(xerr.IncompatibleShapes, op, "axis %d: incompatible extents %d and %d", a, extent, e)
			}
		}
		out[a] = extent
	}
	return out, nil
}
