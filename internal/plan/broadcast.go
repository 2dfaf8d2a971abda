package plan

// BroadcastPlan is the loop plan for an elementwise operation over one or
// more (possibly differently-shaped) operands plus a freshly allocated
// output. Dims are in output-axis order.
type BroadcastPlan struct {
	NumOperands   int
	OutShape      []int64
	Dims          []LoopDim
	AllContiguous bool // true when every operand is layout-identical and contiguous: the fast path applies
}

// BuildBroadcastPlan computes numpy-style broadcasting over the given
// input descriptors and a freshly allocated contiguous output
// descriptor, and lowers it directly into a flat loop-dimension list (no
// separate index-space stage is needed for the elementwise case, since
// each logical axis maps to exactly one physical axis per operand).
func BuildBroadcastPlan(op string, inputs []Descriptor, out Descriptor) (*BroadcastPlan, error) {
	rank, shapes, strides := padShapes(append(append([]Descriptor(nil), inputs...), out))
	outIdx := len(inputs)

	outShape := make([]int64, rank)
	for a := 0; a < rank; a++ {
		exts := make([]int64, len(inputs))
		for i := range inputs {
			exts[i] = shapes[i][a]
		}
		extent, err := broadcastExtent(op, a, exts)
		if err != nil {
			return nil, err
		}
		outShape[a] = extent
	}

	dims := make([]LoopDim, rank)
	allContig := true
	for a := 0; a < rank; a++ {
		bs := make([]int64, len(inputs)+1)
		for i, d := range inputs {
			if shapes[i][a] == 1 && outShape[a] != 1 {
				bs[i] = 0 // broadcast: this operand does not advance along this axis
			} else {
				bs[i] = strides[i][a] * d.Itemsize
			}
		}
		bs[outIdx] = strides[outIdx][a] * out.Itemsize
		dims[a] = LoopDim{Extent: outShape[a], ByteStrides: bs}

		for i := range inputs {
			if bs[i] != bs[outIdx] {
				allContig = false
			}
		}
	}

	return &BroadcastPlan{
		NumOperands:   len(inputs) + 1,
		OutShape:      outShape,
		Dims:          dims,
		AllContiguous: allContig && isContiguousOutput(outShape, out),
	}, nil
}

func isContiguousOutput(outShape []int64, out Descriptor) bool {
	if len(outShape) != len(out.Shape) {
		return false
	}
	acc := int64(1)
	for a := len(out.Shape) - 1; a >= 0; a-- {
		if out.Shape[a] > 1 && out.Strides[a] != acc {
			return false
		}
		acc *= out.Shape[a]
	}
	return true
}
