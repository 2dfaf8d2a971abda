// Package plan builds loop plans (broadcast, reduction, contraction) from
// operand descriptors, consumed by the iteration driver in internal/iter.
//
// An index space of logical loop axes is built first, then lowered into
// a flat list of loop dimensions carrying per-operand byte strides.
package plan

import "github.com/csotherden/nova/internal/xerr"

// Descriptor is the planner-facing view of one tensor operand: rank,
// shape, strides in elements, and the element width in bytes. Descriptors
// are plain values; they never own memory.
type Descriptor struct {
	Shape    []int64
	Strides  []int64 // in elements
	Itemsize int64
}

// Rank is len(Shape).
func (d Descriptor) Rank() int { return len(d.Shape) }

// LoopDim is one axis of a lowered loop plan: its extent, and the
// per-operand byte stride to advance that operand by one step along this
// axis (0 for a broadcast or accumulation axis).
type LoopDim struct {
	Extent      int64
	ByteStrides []int64 // parallel to the plan's operand list
}

func byteStride(d Descriptor, axis int) int64 {
	if axis < 0 || axis >= len(d.Shape) {
		return 0
	}
	return d.Strides[axis] * d.Itemsize
}

// padShapes right-aligns every descriptor's shape/strides to the same
// rank by conceptually prepending size-1 axes. It returns, per operand,
// a shape/stride pair
// at the common rank without mutating the input descriptors.
func padShapes(descs []Descriptor) (rank int, shapes [][]int64, strides [][]int64) {
	for _, d := range descs {
		if d.Rank() > rank {
			rank = d.Rank()
		}
	}
	shapes = make([][]int64, len(descs))
	strides = make([][]int64, len(descs))
	for i, d := range descs {
		pad := rank - d.Rank()
		sh := make([]int64, rank)
		st := make([]int64, rank)
		for a := 0; a < rank; a++ {
			if a < pad {
				sh[a] = 1
				st[a] = 0
			} else {
				sh[a] = d.Shape[a-pad]
				st[a] = d.Strides[a-pad]
			}
		}
		shapes[i] = sh
		strides[i] = st
	}
	return
}

func broadcastExtent(op string, axis int, perOperandExtent []int64) (int64, error) {
	extent := int64(1)
	for _, e := range perOperandExtent {
		if e == 1 {
			continue
		}
		if extent == 1 {
			extent = e
			continue
		}
		if e != extent {
			return 0, xerr.Newf(xerr.IncompatibleShapes, op,
				"axis %d: incompatible extents %d and %d", axis, extent, e)
		}
	}
	return extent, nil
}
