//go:build darwin && cgo

package kernel

/*
#cgo darwin LDFLAGS: -framework Accelerate
#include <Accelerate/Accelerate.h>
*/
import "C"

import "github.com/csotherden/nova/internal/plan"

func cblasTrans(t bool) C.enum_CBLAS_TRANSPOSE {
	if t {
		return C.CblasTrans
	}
	return C.CblasNoTrans
}

func gemmF32(desc *plan.GemmDesc, a, b, c []float32) {
	ta, tb := cblasTrans(desc.TransposeA), cblasTrans(desc.TransposeB)
	lda := leadingDim(desc.RowStrideA, desc.ColStrideA, desc.TransposeA)
	ldb := leadingDim(desc.RowStrideB, desc.ColStrideB, desc.TransposeB)
	ldc := int(desc.RowStrideC)
	m, n, k := C.int(desc.M), C.int(desc.N), C.int(desc.K)
	for batch := int64(0); batch < desc.Batch; batch++ {
		ao := batch * desc.BatchStrideA
		bo := batch * desc.BatchStrideB
		co := batch * desc.BatchStrideC
		C.cblas_sgemm(C.CblasRowMajor, ta, tb, m, n, k, 1,
			(*C.float)(&a[ao]), C.int(lda),
			(*C.float)(&b[bo]), C.int(ldb),
			0, (*C.float)(&c[co]), C.int(ldc))
	}
}

func gemmF64(desc *plan.GemmDesc, a, b, c []float64) {
	ta, tb := cblasTrans(desc.TransposeA), cblasTrans(desc.TransposeB)
	lda := leadingDim(desc.RowStrideA, desc.ColStrideA, desc.TransposeA)
	ldb := leadingDim(desc.RowStrideB, desc.ColStrideB, desc.TransposeB)
	ldc := int(desc.RowStrideC)
	m, n, k := C.int(desc.M), C.int(desc.N), C.int(desc.K)
	for batch := int64(0); batch < desc.Batch; batch++ {
		ao := batch * desc.BatchStrideA
		bo := batch * desc.BatchStrideB
		co := batch * desc.BatchStrideC
		C.cblas_dgemm(C.CblasRowMajor, ta, tb, m, n, k, 1,
			(*C.double)(&a[ao]), C.int(lda),
			(*C.double)(&b[bo]), C.int(ldb),
			0, (*C.double)(&c[co]), C.int(ldc))
	}
}
