package plan

import (
	"testing"

	"github.com/csotherden/nova/internal/xerr"
)

// rowMajor builds a contiguous row-major Descriptor for shape, with the
// given element width.
func rowMajor(shape []int64, itemsize int64) Descriptor {
	strides := make([]int64, len(shape))
	acc := int64(1)
	for a := len(shape) - 1; a >= 0; a-- {
		strides[a] = acc
		acc *= shape[a]
	}
	return Descriptor{Shape: shape, Strides: strides, Itemsize: itemsize}
}

func wantKind(t *testing.T, err error, kind xerr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %s error, got nil", kind)
	}
	if !xerr.Is(err, kind) {
		t.Fatalf("expected a %s error, got %v", kind, err)
	}
}

func TestBuildContractionPlanLabelMismatchErrors(t *testing.T) {
	a := rowMajor([]int64{2, 3}, 4)
	b := rowMajor([]int64{3, 4}, 4)

	t.Run("operand count vs label count", func(t *testing.T) {
		_, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ij"}, "ik", rowMajor([]int64{2, 4}, 4))
		wantKind(t, err, xerr.LabelMismatch)
	})

	t.Run("label length vs operand rank", func(t *testing.T) {
		_, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ijk", "jk"}, "ik", rowMajor([]int64{2, 4}, 4))
		wantKind(t, err, xerr.LabelMismatch)
	})

	t.Run("output label absent from every operand", func(t *testing.T) {
		_, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ij", "jk"}, "iz", rowMajor([]int64{2, 4}, 4))
		wantKind(t, err, xerr.LabelMismatch)
	})
}

func TestBuildContractionPlanPlainMatmulDetectsGemm(t *testing.T) {
	a := rowMajor([]int64{2, 3}, 4)
	b := rowMajor([]int64{3, 4}, 4)
	out := rowMajor([]int64{2, 4}, 4)

	cp, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ij", "jk"}, "ik", out)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm == nil {
		t.Fatalf("expected a contiguous 2-operand matmul to be recognised as GEMM")
	}
	if cp.Gemm.Batch != 1 || cp.Gemm.M != 2 || cp.Gemm.N != 4 || cp.Gemm.K != 3 {
		t.Fatalf("unexpected GemmDesc dims: %+v", cp.Gemm)
	}
}

func TestBuildContractionPlanBatchedMatmulDetectsGemm(t *testing.T) {
	a := rowMajor([]int64{5, 2, 3}, 4)
	b := rowMajor([]int64{5, 3, 4}, 4)
	out := rowMajor([]int64{5, 2, 4}, 4)

	cp, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"bij", "bjk"}, "bik", out)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm == nil {
		t.Fatalf("expected a contiguous batched matmul to be recognised as GEMM")
	}
	if cp.Gemm.Batch != 5 {
		t.Fatalf("expected Batch=5, got %d", cp.Gemm.Batch)
	}
}

func TestBuildContractionPlanNonContiguousOperandFallsBackToGeneralPath(t *testing.T) {
	a := rowMajor([]int64{2, 3}, 4)
	b := rowMajor([]int64{3, 4}, 4)
	out := rowMajor([]int64{2, 4}, 4)

	// A transposed view: same shape, but strides no longer descend row-major,
	// so isCContiguousDescriptor(a) is false and GEMM must not be recognised.
	a.Strides = []int64{1, 2}

	cp, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ij", "jk"}, "ik", out)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm != nil {
		t.Fatalf("expected non-contiguous operand to disable GEMM detection, got %+v", cp.Gemm)
	}
	if len(cp.OuterDims) == 0 {
		t.Fatalf("expected a usable general loop plan even without GEMM")
	}
}

func TestBuildContractionPlanAmbiguousSharedAxisFallsBackToGeneralPath(t *testing.T) {
	// Two labels (j, k) shared between both operands and absent from the
	// output: detectGemm requires exactly one such reduction label, so
	// this must not be recognised as a matmul.
	a := rowMajor([]int64{2, 3, 4}, 4)
	b := rowMajor([]int64{3, 4, 5}, 4)
	out := rowMajor([]int64{2, 5}, 4)

	cp, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ijk", "jkl"}, "il", out)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm != nil {
		t.Fatalf("expected two shared reduction axes to disable GEMM detection, got %+v", cp.Gemm)
	}
}

func TestBuildContractionPlanThreeOperandEinsumNeverGemm(t *testing.T) {
	// detectGemm only looks at a 2-operand pattern; a 3-operand chain
	// contraction (ij,jk,kl->il) must always take the general path.
	a := rowMajor([]int64{2, 3}, 4)
	b := rowMajor([]int64{3, 4}, 4)
	c := rowMajor([]int64{4, 5}, 4)
	out := rowMajor([]int64{2, 5}, 4)

	cp, err := BuildContractionPlan("test", []Descriptor{a, b, c}, []string{"ij", "jk", "kl"}, "il", out)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	if cp.Gemm != nil {
		t.Fatalf("expected a 3-operand contraction to never produce a GemmDesc, got %+v", cp.Gemm)
	}
	if len(cp.OuterDims) != 2 {
		t.Fatalf("expected 2 outer dims (i, l), got %d", len(cp.OuterDims))
	}
	if len(cp.InnerDims) != 2 {
		t.Fatalf("expected 2 inner (reduced) dims (j, k), got %d", len(cp.InnerDims))
	}
}

func TestBuildContractionPlanBroadcastOperandZeroStride(t *testing.T) {
	// A size-1 axis on one operand against a larger output extent must
	// lower to a zero byte stride (broadcast), not a real stride.
	a := rowMajor([]int64{1, 3}, 4)
	b := rowMajor([]int64{2, 3}, 4)
	out := rowMajor([]int64{2, 3}, 4)

	cp, err := BuildContractionPlan("test", []Descriptor{a, b}, []string{"ij", "ij"}, "ij", out)
	if err != nil {
		t.Fatalf("BuildContractionPlan: %v", err)
	}
	for _, d := range cp.OuterDims {
		if len(d.ByteStrides) < 1 {
			t.Fatalf("unexpected dim shape: %+v", d)
		}
	}
	// axis i is broadcast for operand a (shape 1 vs out extent 2).
	iDim := cp.OuterDims[0]
	if iDim.ByteStrides[0] != 0 {
		t.Fatalf("expected operand a's byte stride along the broadcast axis to be 0, got %d", iDim.ByteStrides[0])
	}
}
