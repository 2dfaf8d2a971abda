package plan

import "github.com/csotherden/nova/internal/xerr"

// ReductionPlan reduces one input operand over a single axis into a
// freshly allocated output. Dims lists the non-reduced axes first (in
// output order), then the reduction axis last — placing the contracted
// loop innermost so a contiguous inner reduction can use the kernel's
// reduce_contiguous fast path.
type ReductionPlan struct {
	InShape    []int64
	OutShape   []int64
	ReduceAxis int
	Keepdim    bool
	Dims       []LoopDim // last entry is always the reduction axis
}

// BuildReductionPlan builds the loop plan for reducing in over axis,
// against a freshly allocated output descriptor whose shape already
// reflects keepdim.
func BuildReductionPlan(op string, in Descriptor, axis int, keepdim bool, out Descriptor) (*ReductionPlan, error) {
	rank := in.Rank()
	if axis < 0 || axis >= rank {
		return nil, xerr.Newf(xerr.AxisOutOfRange, op, "axis %d out of range for rank %d", axis, rank)
	}

	outShape := make([]int64, 0, rank)
	for a := 0; a < rank; a++ {
		if a == axis {
			if keepdim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, in.Shape[a])
	}

	dims := make([]LoopDim, 0, rank)
	outAxis := 0
	for a := 0; a < rank; a++ {
		if a == axis {
			continue
		}
		bs := []int64{byteStride(in, a), byteStride(out, outAxis)}
		dims = append(dims, LoopDim{Extent: in.Shape[a], ByteStrides: bs})
		outAxis++
	}
	// reduction axis last, innermost: output stride is 0 so every step
	// along this axis accumulates into the same output element.
	dims = append(dims, LoopDim{
		Extent:      in.Shape[axis],
		ByteStrides: []int64{byteStride(in, axis), 0},
	})

	return &ReductionPlan{
		InShape:    in.Shape,
		OutShape:   outShape,
		ReduceAxis: axis,
		Keepdim:    keepdim,
		Dims:       dims,
	}, nil
}
