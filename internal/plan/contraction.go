package plan

import "github.com/csotherden/nova/internal/xerr"

// ContractionPlan is the loop plan for an einsum-style contraction: a
// free (output) loop nest and, nested inside it, a reduction loop nest
// that accumulates into the same output element. When the shape matches
// a batched matrix multiply over C-contiguous operands, Gemm is populated
// so the driver can dispatch to the BLAS kernel instead of the general
// strided loop.
type ContractionPlan struct {
	OutShape  []int64
	OuterDims []LoopDim // per-operand byte strides, operands = inputs..., output; output order
	InnerDims []LoopDim // per-operand byte strides, output entry always 0 (accumulation)
	Gemm      *GemmDesc
}

// GemmDesc describes a recognised batched row-major matrix multiply:
// C = alpha*A*B + beta*C, over `Batch` independent MxK-by-KxN products.
// Strides are in elements, not bytes.
type GemmDesc struct {
	Batch, M, N, K int64

	BatchStrideA, BatchStrideB, BatchStrideC int64
	RowStrideA, ColStrideA                   int64
	RowStrideB, ColStrideB                   int64
	RowStrideC, ColStrideC                   int64
	TransposeA, TransposeB                   bool
}

// BuildContractionPlan builds the loop plan (and, when recognised, the
// GEMM descriptor) for a contraction of len(inputs) operands whose axes
// carry the labels in inLabels (one label string per input, one rune per
// axis), producing an output whose axes carry outLabels, against a
// freshly allocated output descriptor.
func BuildContractionPlan(op string, inputs []Descriptor, inLabels []string, outLabels string, out Descriptor) (*ContractionPlan, error) {
	if len(inputs) != len(inLabels) {
		return nil, xerr.Newf(xerr.LabelMismatch, op, "%d operands but %d label strings", len(inputs), len(inLabels))
	}
	for i, d := range inputs {
		if len(inLabels[i]) != d.Rank() {
			return nil, xerr.Newf(xerr.LabelMismatch, op,
				"operand %d has rank %d but label string %q has length %d", i, d.Rank(), inLabels[i], len(inLabels[i]))
		}
	}

	// distinct labels, first-appearance order, and their broadcast extent
	var order []rune
	seen := map[rune]bool{}
	for _, labels := range inLabels {
		for _, r := range labels {
			if !seen[r] {
				seen[r] = true
				order = append(order, r)
			}
		}
	}

	extents := map[rune]int64{}
	for _, r := range order {
		var exts []int64
		for i, labels := range inLabels {
			if axis, ok := indexOf(labels, r); ok {
				exts = append(exts, inputs[i].Shape[axis])
			}
		}
		e, err := broadcastExtent(op, int(r), exts)
		if err != nil {
			return nil, err
		}
		extents[r] = e
	}

	isOutput := map[rune]bool{}
	for _, r := range outLabels {
		if !seen[r] {
			return nil, xerr.Newf(xerr.LabelMismatch, op, "output label %q not present in any operand", string(r))
		}
		isOutput[r] = true
	}

	outShape := make([]int64, len(outLabels))
	for i, r := range outLabels {
		outShape[i] = extents[r]
	}

	strideFor := func(labels string, d Descriptor, r rune, outExtent int64) int64 {
		axis, ok := indexOf(labels, r)
		if !ok {
			return 0
		}
		if d.Shape[axis] == 1 && outExtent != 1 {
			return 0
		}
		return byteStride(d, axis)
	}

	numOperands := len(inputs) + 1
	outerDims := make([]LoopDim, 0, len(outLabels))
	for axis, r := range outLabels {
		bs := make([]int64, numOperands)
		for i, labels := range inLabels {
			bs[i] = strideFor(labels, inputs[i], r, extents[r])
		}
		bs[len(inputs)] = byteStride(out, axis)
		outerDims = append(outerDims, LoopDim{Extent: extents[r], ByteStrides: bs})
	}

	var innerDims []LoopDim
	for _, r := range order {
		if isOutput[r] {
			continue
		}
		bs := make([]int64, numOperands)
		for i, labels := range inLabels {
			bs[i] = strideFor(labels, inputs[i], r, extents[r])
		}
		bs[len(inputs)] = 0
		innerDims = append(innerDims, LoopDim{Extent: extents[r], ByteStrides: bs})
	}

	plan := &ContractionPlan{OutShape: outShape, OuterDims: outerDims, InnerDims: innerDims}
	plan.Gemm = detectGemm(inputs, inLabels, outLabels, out)
	return plan, nil
}

func indexOf(s string, r rune) (int, bool) {
	for i, c := range s {
		if c == r {
			return i, true
		}
	}
	return 0, false
}

// detectGemm recognises the batched-matmul pattern:
// two input operands; exactly one label shared between them and absent
// from the output (K); exactly one output label unique to each operand
// (M from the first, N from the second); any remaining shared output
// labels are leading batch axes; both operands (and the output) are
// C-contiguous; neither M nor N carries a zero stride.
func detectGemm(inputs []Descriptor, inLabels []string, outLabels string, out Descriptor) *GemmDesc {
	if len(inputs) != 2 {
		return nil
	}
	a, b := inputs[0], inputs[1]
	la, lb := inLabels[0], inLabels[1]

	outSet := map[rune]bool{}
	for _, r := range outLabels {
		outSet[r] = true
	}
	aSet := map[rune]bool{}
	for _, r := range la {
		aSet[r] = true
	}
	bSet := map[rune]bool{}
	for _, r := range lb {
		bSet[r] = true
	}

	var kLabel rune
	kCount := 0
	for _, r := range la {
		if bSet[r] && !outSet[r] {
			kLabel = r
			kCount++
		}
	}
	if kCount != 1 {
		return nil
	}

	var mLabel rune
	mCount := 0
	for _, r := range la {
		if outSet[r] && !bSet[r] {
			mLabel = r
			mCount++
		}
	}
	if mCount != 1 {
		return nil
	}

	var nLabel rune
	nCount := 0
	for _, r := range lb {
		if outSet[r] && !aSet[r] {
			nLabel = r
			nCount++
		}
	}
	if nCount != 1 {
		return nil
	}

	var batchLabels []rune
	for _, r := range outLabels {
		if r == mLabel || r == nLabel {
			continue
		}
		if aSet[r] && bSet[r] {
			batchLabels = append(batchLabels, r)
		}
	}

	if !isCContiguousDescriptor(a) || !isCContiguousDescriptor(b) || !isCContiguousDescriptor(out) {
		return nil
	}

	aM, _ := indexOf(la, mLabel)
	aK, _ := indexOf(la, kLabel)
	bK, _ := indexOf(lb, kLabel)
	bN, _ := indexOf(lb, nLabel)
	oM, _ := indexOf(outLabels, mLabel)
	oN, _ := indexOf(outLabels, nLabel)

	strideAM, strideAK := a.Strides[aM], a.Strides[aK]
	strideBK, strideBN := b.Strides[bK], b.Strides[bN]
	strideOM, strideON := out.Strides[oM], out.Strides[oN]

	if strideAM == 0 || strideBN == 0 {
		return nil
	}

	batch := int64(1)
	var batchStrideA, batchStrideB, batchStrideC int64
	for _, r := range batchLabels {
		axisA, _ := indexOf(la, r)
		axisB, _ := indexOf(lb, r)
		axisO, _ := indexOf(outLabels, r)
		if a.Shape[axisA] != b.Shape[axisB] {
			// A broadcast batch axis is left to the general strided path.
			return nil
		}
		batch *= a.Shape[axisA]
		batchStrideA += a.Strides[axisA]
		batchStrideB += b.Strides[axisB]
		batchStrideC += out.Strides[axisO]
	}
	if len(batchLabels) == 0 {
		batch = 1
	}

	return &GemmDesc{
		Batch: batch,
		M:     a.Shape[aM],
		N:     b.Shape[bN],
		K:     a.Shape[aK],

		BatchStrideA: batchStrideA,
		BatchStrideB: batchStrideB,
		BatchStrideC: batchStrideC,

		RowStrideA: strideAM,
		ColStrideA: strideAK,
		RowStrideB: strideBK,
		ColStrideB: strideBN,
		RowStrideC: strideOM,
		ColStrideC: strideON,

		// TransposeA/TransposeB exist for the general einsum case where an
		// operand's M/K (or K/N) axes could appear in either order. The
		// only caller today, BuildMatMulPlan, always lays out la as
		// batch+M+K and lb as batch+K+N, so aM < aK and bK < bN hold
		// unconditionally and these are always false in practice.
		TransposeA: aM > aK,
		TransposeB: bN < bK,
	}
}

func isCContiguousDescriptor(d Descriptor) bool {
	acc := int64(1)
	for a := len(d.Shape) - 1; a >= 0; a-- {
		if d.Shape[a] > 1 && d.Strides[a] != acc {
			return false
		}
		acc *= d.Shape[a]
	}
	return true
}
