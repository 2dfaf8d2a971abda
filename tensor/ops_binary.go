package tensor

import (
	"unsafe"

	"github.com/csotherden/nova/internal/iter"
	"github.com/csotherden/nova/internal/kernel"
	"github.com/csotherden/nova/internal/plan"
	"github.com/csotherden/nova/internal/storage"
	"github.com/csotherden/nova/internal/xerr"
)

// elementwiseBinary allocates a freshly broadcast output and drives it
// with the float32/float64 instantiation of a kernel.Binary trait family.
func elementwiseBinary(op string, a, b *Tensor, f32 kernel.Binary[float32], f64 kernel.Binary[float64]) (*Tensor, error) {
	if a.st.DType != b.st.DType {
		return nil, xerr.Newf(xerr.DtypeMismatch, op, "dtype mismatch: %s vs %s", a.st.DType, b.st.DType)
	}
	if !a.st.DType.IsFloat() {
		return nil, xerr.Newf(xerr.DtypeMismatch, op, "%s requires a float dtype, got %s", op, a.st.DType)
	}

	outShape, err := broadcastShape(op, a.layout.Shape, b.layout.Shape)
	if err != nil {
		return nil, err
	}
	out, err := New(a.pool, outShape, a.st.DType)
	if err != nil {
		return nil, err
	}

	bp, err := plan.BuildBroadcastPlan(op, []plan.Descriptor{a.descriptor(), b.descriptor()}, out.descriptor())
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
		bp2, err := basePtr[float32](b)
		if err != nil {
			out.Release()
			return nil, err
		}
		op2, err := basePtr[float32](out)
		if err != nil {
			out.Release()
			return nil, err
		}
		iter.RunBinary(bp, []unsafe.Pointer{ap, bp2, op2}, f32)
	case storage.Float64:
		ap, err := basePtr[float64](a)
		if err != nil {
			out.Release()
			return nil, err
		}
		bp2, err := basePtr[float64](b)
		if err != nil {
			out.Release()
			return nil, err
		}
		op2, err := basePtr[float64](out)
		if err != nil {
			out.Release()
			return nil, err
		}
		iter.RunBinary(bp, []unsafe.Pointer{ap, bp2, op2}, f64)
	}
	return out, nil
}

// Add computes a freshly allocated a + b, with numpy-style broadcasting.
func (a *Tensor) Add(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Add", a, b, kernel.Add[float32](), kernel.Add[float64]())
}

// Sub computes a - b.
func (a *Tensor) Sub(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Sub", a, b, kernel.Sub[float32](), kernel.Sub[float64]())
}

// Mul computes a * b.
func (a *Tensor) Mul(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Mul", a, b, kernel.Mul[float32](), kernel.Mul[float64]())
}

// Div computes a / b.
func (a *Tensor) Div(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Div", a, b, kernel.Div[float32](), kernel.Div[float64]())
}

// Maximum computes the elementwise maximum of a and b.
func (a *Tensor) Maximum(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Maximum", a, b, kernel.Max[float32](), kernel.Max[float64]())
}

// Pow computes a^b elementwise.
func (a *Tensor) Pow(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Pow", a, b, kernel.Pow[float32](), kernel.Pow[float64]())
}

// Greater computes the elementwise 1/0 comparison a > b.
func (a *Tensor) Greater(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.Greater", a, b, kernel.Greater[float32](), kernel.Greater[float64]())
}

// GreaterEqual computes the elementwise 1/0 comparison a >= b.
func (a *Tensor) GreaterEqual(b *Tensor) (*Tensor, error) {
	return elementwiseBinary("Tensor.GreaterEqual", a, b, kernel.GreaterEqual[float32](), kernel.GreaterEqual[float64]())
}

// SubInPlace subtracts other from the receiver in place. It fails with
// TensorError: ShapeMismatch if broadcasting other against the receiver's
// shape would require the receiver's own shape to change.
func (t *Tensor) SubInPlace(other *Tensor) error {
	const op = "Tensor.SubInPlace"
	if t.st.DType != other.st.DType {
		return xerr.Newf(xerr.DtypeMismatch, op, "dtype mismatch: %s vs %s", t.st.DType, other.st.DType)
	}
	if !t.st.DType.IsFloat() {
		return xerr.Newf(xerr.DtypeMismatch, op, "%s requires a float dtype, got %s", op, t.st.DType)
	}
	wantShape, err := broadcastShape(op, t.layout.Shape, other.layout.Shape)
	if err != nil {
		return err
	}
	if !shapesEqual(wantShape, t.layout.Shape) {
		return xerr.Newf(xerr.ShapeMismatch, op, "in-place subtract would change shape %v to %v", t.layout.Shape, wantShape)
	}

	bp, err := plan.BuildBroadcastPlan(op, []plan.Descriptor{t.descriptor(), other.descriptor()}, t.descriptor())
	if err != nil {
		return err
	}

	switch t.st.DType {
	case storage.Float32:
		tp, err := basePtr[float32](t)
		if err != nil {
			return err
		}
		op2, err := basePtr[float32](other)
		if err != nil {
			return err
		}
		iter.RunBinary(bp, []unsafe.Pointer{tp, op2, tp}, kernel.Sub[float32]())
	case storage.Float64:
		tp, err := basePtr[float64](t)
		if err != nil {
			return err
		}
		op2, err := basePtr[float64](other)
		if err != nil {
			return err
		}
		iter.RunBinary(bp, []unsafe.Pointer{tp, op2, tp}, kernel.Sub[float64]())
	}
	return nil
}
