package iter

import (
	"testing"
	"unsafe"

	"github.com/csotherden/nova/internal/plan"
)

func ptrOf[T any](s []T) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(s))
}

func descOf(shape []int64, itemsize int64) plan.Descriptor {
	strides := make([]int64, len(shape))
	acc := int64(1)
	for a := len(shape) - 1; a >= 0; a-- {
		strides[a] = acc
		acc *= shape[a]
	}
	return plan.Descriptor{Shape: shape, Strides: strides, Itemsize: itemsize}
}

// TestRunContractionGeneralPathMatchesPlainMatmul drives RunContraction
// directly (the path ops_matmul.go falls back to whenever the planner
// doesn't recognise a GEMM pattern) against a hand-computed 2x3 by 3x4
// matrix product, bypassing any BLAS dispatch entirely. The planner does
// attach a GemmDesc to this layout; RunContraction ignores it and runs the
// general strided loop.
func TestRunContractionGeneralPathMatchesPlainMatmul(t *testing.T) {
	a := []float32{
		1, 2, 3,
		4, 5, 6,
	} // shape (2,3)
	b := []float32{
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 1, 1,
	} // shape (3,4)
	out := make([]float32, 2*4)

	ad := descOf([]int64{2, 3}, 4)
	bd := descOf([]int64{3, 4}, 4)
	outd := descOf([]int64{2, 4}, 4)

	cp, err := plan.BuildContractionPlan("test", []plan.Descriptor{ad, bd}, []string{"ij", "jk"}, "ik", outd)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm == nil {
		t.Fatalf("test setup expects the planner to recognise ij,jk->ik as GEMM, got no GemmDesc")
	}

	RunContraction[float32](cp, []unsafe.Pointer{ptrOf(a), ptrOf(b), ptrOf(out)})

	want := []float32{1, 2, 3, 6, 4, 5, 6, 15}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("out[%d] = %v, want %v (full: %v)", i, out[i], w, out)
		}
	}
}

// TestRunContractionThreeOperandChain exercises the multi-operand
// (non-matmul) einsum path: ij,jk,kl->il, a chain contraction that
// detectGemm never recognises since it only looks at 2 operands.
func TestRunContractionThreeOperandChain(t *testing.T) {
	// a: identity-like 2x2, b: 2x2, c: 2x2 so il = a @ b @ c is easy to
	// verify by hand.
	a := []float32{1, 0, 0, 1} // identity
	b := []float32{1, 2, 3, 4}
	c := []float32{5, 6, 7, 8}
	out := make([]float32, 4)

	ad := descOf([]int64{2, 2}, 4)
	bd := descOf([]int64{2, 2}, 4)
	cd := descOf([]int64{2, 2}, 4)
	outd := descOf([]int64{2, 2}, 4)

	cp, err := plan.BuildContractionPlan("test", []plan.Descriptor{ad, bd, cd}, []string{"ij", "jk", "kl"}, "il", outd)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm != nil {
		t.Fatalf("a 3-operand contraction must never produce a GemmDesc")
	}

	RunContraction[float32](cp, []unsafe.Pointer{ptrOf(a), ptrOf(b), ptrOf(c), ptrOf(out)})

	// a is identity, so out should equal b @ c.
	want := []float32{
		1*5 + 2*7, 1*6 + 2*8,
		3*5 + 4*7, 3*6 + 4*8,
	}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("out[%d] = %v, want %v (full: %v)", i, out[i], w, out)
		}
	}
}

// TestRunContractionPureReduction covers the no-inner-dims short-circuit
// (a contraction whose only axes are all present in the output, i.e. a
// plain elementwise product with no summation).
func TestRunContractionNoReductionAxes(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	b := []float32{10, 20, 30, 40}
	out := make([]float32, 4)

	ad := descOf([]int64{4}, 4)
	bd := descOf([]int64{4}, 4)
	outd := descOf([]int64{4}, 4)

	cp, err := plan.BuildContractionPlan("test", []plan.Descriptor{ad, bd}, []string{"i", "i"}, "i", outd)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if len(cp.InnerDims) != 0 {
		t.Fatalf("expected no reduction axes, got %d", len(cp.InnerDims))
	}

	RunContraction[float32](cp, []unsafe.Pointer{ptrOf(a), ptrOf(b), ptrOf(out)})

	want := []float32{10, 40, 90, 160}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestForEachOuterVisitsEveryCoordinate(t *testing.T) {
	dims := []plan.LoopDim{
		{Extent: 2, ByteStrides: []int64{4, 0}},
		{Extent: 3, ByteStrides: []int64{0, 4}},
	}
	var visits int
	forEachOuter(dims, 2, func(offsets []int64) {
		visits++
	})
	if visits != 6 {
		t.Fatalf("expected 2*3=6 visits, got %d", visits)
	}
}

func TestForEachOuterZeroRankVisitsOnce(t *testing.T) {
	var visits int
	forEachOuter(nil, 2, func(offsets []int64) {
		visits++
		if offsets[0] != 0 || offsets[1] != 0 {
			t.Fatalf("expected zero offsets for the rank-0 case, got %v", offsets)
		}
	})
	if visits != 1 {
		t.Fatalf("expected exactly 1 visit for rank-0 dims, got %d", visits)
	}
}
