// Package kernel implements the per-operation vector and scalar kernels
// dispatched by the iteration driver: one trait per operation family
// (binary elementwise, unary elementwise, reduction, GEMM), each with a
// contiguous fast-path entry and a scalar entry for strided tails.
//
// Loops are unrolled by four elements at a time, then finish the
// remainder one element at a time; there is no intermediate
// single-vector step. Go has no portable NEON intrinsics
// without cgo/assembly, so the "vector" kernels here are manually
// 4-wide-unrolled loops the compiler can autovectorize on its own, with
// the lane width left to the compiler rather than hand-written
// intrinsics.
package kernel

import (
	"github.com/chewxy/math32"
	"math"
)

// Float is the set of element types the arithmetic and transcendental
// kernels operate over.
type Float interface {
	~float32 | ~float64
}

// Binary is the trait for a two-operand elementwise operation.
type Binary[T Float] interface {
	// Scalar computes one element for the strided general-path tail.
	Scalar(a, b T) T
	// ExecuteContiguous computes out[i] = op(a[ai], b[bi]) for i in
	// [0,n), where ai/bi are i unless aIsScalar/bIsScalar broadcast a
	// single value across the whole span.
	ExecuteContiguous(a, b, out []T, aIsScalar, bIsScalar bool)
}

// Unary is the trait for a one-operand elementwise operation.
type Unary[T Float] interface {
	Scalar(a T) T
	ExecuteContiguous(a, out []T, aIsScalar bool)
}

// Reduce is the trait for a horizontal reduction.
type Reduce[T Float] interface {
	Identity() T
	Accumulate(acc, x T) T
	ReduceContiguous(a []T) T
}

// expT/logT/sqrtT/powT dispatch to chewxy/math32's float32 implementations
// or the standard library's float64 ones, so float32 tensors never pay
// for a float64 round-trip on transcendental kernels.
func expT[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return any(math32.Exp(v)).(T)
	case float64:
		return any(math.Exp(v)).(T)
	default:
		panic("kernel: unsupported Float type")
	}
}

func logT[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return any(math32.Log(v)).(T)
	case float64:
		return any(math.Log(v)).(T)
	default:
		panic("kernel: unsupported Float type")
	}
}

func sqrtT[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return any(math32.Sqrt(v)).(T)
	case float64:
		return any(math.Sqrt(v)).(T)
	default:
		panic("kernel: unsupported Float type")
	}
}

func powT[T Float](a, b T) T {
	switch va := any(a).(type) {
	case float32:
		return any(math32.Pow(va, any(b).(float32))).(T)
	case float64:
		return any(math.Pow(va, any(b).(float64))).(T)
	default:
		panic("kernel: unsupported Float type")
	}
}
