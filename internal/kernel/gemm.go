// GEMM backend selection splits on build tag: a cgo-backed accelerated
// path behind `//go:build darwin && cgo` calling into the Accelerate
// framework's cblas_sgemm/cblas_dgemm, and a pure-Go fallback everywhere
// else using gonum's reference BLAS implementation.
package kernel

import "github.com/csotherden/nova/internal/plan"

// GemmF32 and GemmF64 compute, for every batch in desc, C = A*B over the
// row-major MxK by KxN matrices addressed by the descriptor's strides
// (element units). a, b and c must be large enough to cover every batch.
func GemmF32(desc *plan.GemmDesc, a, b, c []float32) { gemmF32(desc, a, b, c) }
func GemmF64(desc *plan.GemmDesc, a, b, c []float64) { gemmF64(desc, a, b, c) }

// leadingDim picks the physical row length BLAS needs for a row-major
// buffer: the non-unit stride of the two axes the matrix actually uses.
// detectGemm in internal/plan only recognises fully C-contiguous operands,
// so exactly one of rowStride/colStride is 1 and the other is the true
// leading dimension.
func leadingDim(rowStride, colStride int64, transposed bool) int {
	if transposed {
		return int(colStride)
	}
	return int(rowStride)
}
