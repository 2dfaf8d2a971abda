package tensor

import (
	"unsafe"

	"github.com/csotherden/nova/internal/iter"
	"github.com/csotherden/nova/internal/kernel"
	"github.com/csotherden/nova/internal/plan"
	"github.com/csotherden/nova/internal/storage"
	"github.com/csotherden/nova/internal/xerr"
)

func reducedShape(shape []int64, axis int, keepdim bool) []int64 {
	out := make([]int64, 0, len(shape))
	for a, e := range shape {
		if a == axis {
			if keepdim {
				out = append(out, 1)
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

// Sum reduces a over axis, optionally keeping it as a size-1 axis.
func (a *Tensor) Sum(axis int, keepdim bool) (*Tensor, error) {
	const op = "Tensor.Sum"
	if !a.st.DType.IsFloat() {
		return nil, xerr.Newf(xerr.DtypeMismatch, op, "%s requires a float dtype, got %s", op, a.st.DType)
	}
	if axis < 0 || axis >= a.layout.Rank() {
		return nil, xerr.Newf(xerr.AxisOutOfRange, op, "axis %d out of range for rank %d", axis, a.layout.Rank())
	}
	out, err := New(a.pool, reducedShape(a.layout.Shape, axis, keepdim), a.st.DType)
	if err != nil {
		return nil, err
	}
	rp, err := plan.BuildReductionPlan(op, a.descriptor(), axis, keepdim, out.descriptor())
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
		iter.RunReduce(rp, ap, op2, kernel.Sum[float32]())
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
		iter.RunReduce(rp, ap, op2, kernel.Sum[float64]())
	}
	return out, nil
}

// Mean reduces a over axis by summation then scaling by 1/N.
func (a *Tensor) Mean(axis int, keepdim bool) (*Tensor, error) {
	const op = "Tensor.Mean"
	n := a.layout.Shape[axis]
	sum, err := a.Sum(axis, keepdim)
	if err != nil {
		return nil, err
	}
	scale, err := Scalar(a.pool, a.st.DType, 1/float64(n))
	if err != nil {
		sum.Release()
		return nil, err
	}
	defer scale.Release()

	mean, err := sum.Mul(scale)
	sum.Release()
	if err != nil {
		return nil, xerr.Wrap(err, xerr.ShapeMismatch, op, "scaling sum by 1/N failed")
	}
	return mean, nil
}
