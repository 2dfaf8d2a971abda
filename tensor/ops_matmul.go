package tensor

import (
	"unsafe"

	"github.com/csotherden/nova/internal/iter"
	"github.com/csotherden/nova/internal/kernel"
	"github.com/csotherden/nova/internal/plan"
	"github.com/csotherden/nova/internal/storage"
	"github.com/csotherden/nova/internal/xerr"
)

// MatMul computes a batched matrix product: a of shape (...batch, M, K)
// and b of shape (...batch, K, N) produce (...batch, M, N), dispatching
// to a BLAS GEMM when the planner recognises the pattern
// and falling back to the general strided contraction loop otherwise.
func (a *Tensor) MatMul(b *Tensor) (*Tensor, error) {
	const op = "Tensor.MatMul"
	if a.st.DType != b.st.DType {
		return nil, xerr.Newf(xerr.DtypeMismatch, op, "dtype mismatch: %s vs %s", a.st.DType, b.st.DType)
	}
	if !a.st.DType.IsFloat() {
		return nil, xerr.Newf(xerr.DtypeMismatch, op, "%s requires a float dtype, got %s", op, a.st.DType)
	}
	ra, rb := a.layout.Rank(), b.layout.Rank()
	if ra < 2 || rb < 2 {
		return nil, xerr.Newf(xerr.RankTooLow, op, "matmul requires rank >= 2, got %d and %d", ra, rb)
	}
	if ra != rb {
		return nil, xerr.Newf(xerr.IncompatibleShapes, op, "matmul operand ranks differ: %d vs %d", ra, rb)
	}

	batchShape, err := broadcastShape(op, a.layout.Shape[:ra-2], b.layout.Shape[:rb-2])
	if err != nil {
		return nil, err
	}
	m := a.layout.Shape[ra-2]
	k := a.layout.Shape[ra-1]
	kB := b.layout.Shape[rb-2]
	n := b.layout.Shape[rb-1]
	if k != kB {
		return nil, xerr.Newf(xerr.IncompatibleShapes, op, "matmul inner dims mismatch: %d vs %d", k, kB)
	}
	outShape := append(batchShape, m, n)

	out, err := New(a.pool, outShape, a.st.DType)
	if err != nil {
		return nil, err
	}

	cp, err := plan.BuildMatMulPlan(op, a.descriptor(), b.descriptor(), out.descriptor())
	if err != nil {
		out.Release()
		return nil, err
	}

	switch a.st.DType {
	case storage.Float32:
		if err := runMatMulF32(a, b, out, cp); err != nil {
			out.Release()
			return nil, err
		}
	case storage.Float64:
		if err := runMatMulF64(a, b, out, cp); err != nil {
			out.Release()
			return nil, err
		}
	}
	return out, nil
}

func runMatMulF32(a, b, out *Tensor, cp *plan.ContractionPlan) error {
	if cp.Gemm != nil {
		aS, err := storage.View[float32](a.st.Buffer, 0, storage.FlatSize(a.st.Shape))
		if err != nil {
			return err
		}
		bS, err := storage.View[float32](b.st.Buffer, 0, storage.FlatSize(b.st.Shape))
		if err != nil {
			return err
		}
		cS, err := storage.View[float32](out.st.Buffer, 0, storage.FlatSize(out.st.Shape))
		if err != nil {
			return err
		}
		kernel.GemmF32(cp.Gemm, aS, bS, cS)
		return nil
	}
	ap, err := basePtr[float32](a)
	if err != nil {
		return err
	}
	bp, err := basePtr[float32](b)
	if err != nil {
		return err
	}
	op2, err := basePtr[float32](out)
	if err != nil {
		return err
	}
	iter.RunContraction[float32](cp, []unsafe.Pointer{ap, bp, op2})
	return nil
}

func runMatMulF64(a, b, out *Tensor, cp *plan.ContractionPlan) error {
	if cp.Gemm != nil {
		aS, err := storage.View[float64](a.st.Buffer, 0, storage.FlatSize(a.st.Shape))
		if err != nil {
			return err
		}
		bS, err := storage.View[float64](b.st.Buffer, 0, storage.FlatSize(b.st.Shape))
		if err != nil {
			return err
		}
		cS, err := storage.View[float64](out.st.Buffer, 0, storage.FlatSize(out.st.Shape))
		if err != nil {
			return err
		}
		kernel.GemmF64(cp.Gemm, aS, bS, cS)
		return nil
	}
	ap, err := basePtr[float64](a)
	if err != nil {
		return err
	}
	bp, err := basePtr[float64](b)
	if err != nil {
		return err
	}
	op2, err := basePtr[float64](out)
	if err != nil {
		return err
	}
	iter.RunContraction[float64](cp, []unsafe.Pointer{ap, bp, op2})
	return nil
}
