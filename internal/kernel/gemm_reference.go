//go:build !darwin || !cgo

package kernel

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/csotherden/nova/internal/plan"
)

func transOf(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

func gemmF32(desc *plan.GemmDesc, a, b, c []float32) {
	ta, tb := transOf(desc.TransposeA), transOf(desc.TransposeB)
	lda := leadingDim(desc.RowStrideA, desc.ColStrideA, desc.TransposeA)
	ldb := leadingDim(desc.RowStrideB, desc.ColStrideB, desc.TransposeB)
	ldc := int(desc.RowStrideC)
	impl := blas32.Implementation()
	m, n, k := int(desc.M), int(desc.N), int(desc.K)
	for batch := int64(0); batch < desc.Batch; batch++ {
		ao := batch * desc.BatchStrideA
		bo := batch * desc.BatchStrideB
		co := batch * desc.BatchStrideC
		impl.Sgemm(ta, tb, m, n, k, 1, a[ao:], lda, b[bo:], ldb, 0, c[co:], ldc)
	}
}

func gemmF64(desc *plan.GemmDesc, a, b, c []float64) {
	ta, tb := transOf(desc.TransposeA), transOf(desc.TransposeB)
	lda := leadingDim(desc.RowStrideA, desc.ColStrideA, desc.TransposeA)
	ldb := leadingDim(desc.RowStrideB, desc.ColStrideB, desc.TransposeB)
	ldc := int(desc.RowStrideC)
	impl := blas64.Implementation()
	m, n, k := int(desc.M), int(desc.N), int(desc.K)
	for batch := int64(0); batch < desc.Batch; batch++ {
		ao := batch * desc.BatchStrideA
		bo := batch * desc.BatchStrideB
		co := batch * desc.BatchStrideC
		impl.Dgemm(ta, tb, m, n, k, 1, a[ao:], lda, b[bo:], ldb, 0, c[co:], ldc)
	}
}
