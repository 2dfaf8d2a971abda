package tensor

import (
	"unsafe"

	"github.com/csotherden/nova/internal/iter"
	"github.com/csotherden/nova/internal/kernel"
	"github.com/csotherden/nova/internal/plan"
	"github.com/csotherden/nova/internal/storage"
	"github.com/csotherden/nova/internal/xerr"
)

func elementwiseUnary(op string, a *Tensor, f32 kernel.Unary[float32], f64 kernel.Unary[float64]) (*Tensor, error) {
	if !a.st.DType.IsFloat() {
		return nil, xerr.Newf(xerr.DtypeMismatch, op, "%s requires a float dtype, got %s", op, a.st.DType)
	}
	out, err := New(a.pool, a.layout.Shape, a.st.DType)
	if err != nil {
		return nil, err
	}
	bp, err := plan.BuildBroadcastPlan(op, []plan.Descriptor{a.descriptor()}, out.descriptor())
	if err != nil {
		out.Release()
		return nil, err
	}

	switch a.st.DType {
	case storage.Float32:
		ap, err := basePtr[float32](a)
		if err != nil {
			out.Release()
			return nil, err
		}
		op2, err := basePtr[float32](out)
		if err != nil {
			out.Release()
			return nil, err
		}
		iter.RunUnary(bp, []unsafe.Pointer{ap, op2}, f32)
	case storage.Float64:
		ap, err := basePtr[float64](a)
		if err != nil {
			out.Release()
			return nil, err
		}
		op2, err := basePtr[float64](out)
		if err != nil {
			out.Release()
			return nil, err
		}
		iter.RunUnary(bp, []unsafe.Pointer{ap, op2}, f64)
	}
	return out, nil
}

// Neg computes -a. Needed by Sub's backward rule ("(g, -g)") and
// harmless to expose on its own.
func (a *Tensor) Neg() (*Tensor, error) {
	return elementwiseUnary("Tensor.Neg", a, kernel.Neg[float32](), kernel.Neg[float64]())
}

// Exp computes exp(a).
func (a *Tensor) Exp() (*Tensor, error) {
	return elementwiseUnary("Tensor.Exp", a, kernel.Exp[float32](), kernel.Exp[float64]())
}

// Log computes the natural log of a.
func (a *Tensor) Log() (*Tensor, error) {
	return elementwiseUnary("Tensor.Log", a, kernel.Log[float32](), kernel.Log[float64]())
}

// Sqrt computes the square root of a.
func (a *Tensor) Sqrt() (*Tensor, error) {
	return elementwiseUnary("Tensor.Sqrt", a, kernel.Sqrt[float32](), kernel.Sqrt[float64]())
}
