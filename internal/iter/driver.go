// Package iter is the iteration driver: it walks a loop plan built by
// internal/plan over an array of per-operand base pointers and dispatches
// to the kernel traits in internal/kernel.
//
// A contiguous fast path calls the kernel once over the flat length, and
// a general path walks every axis but the innermost before handing the
// kernel a contiguous (or scalar-broadcast) span for that last axis.
// The walk is iterative mixed-radix rather than recursive: one counter
// and one running byte offset per operand, incremented with explicit
// carry instead of a call stack, since unbounded recursion on a
// user-controlled rank is a liability.
package iter

import (
	"unsafe"

	"github.com/csotherden/nova/internal/kernel"
	"github.com/csotherden/nova/internal/plan"
)

// forEachOuter visits every coordinate of the axes in dims (output-axis
// order), calling visit with the running byte offset for each operand at
// that coordinate. With no dims it visits once, at offset zero — the
// fully-reduced / rank-0 case.
func forEachOuter(dims []plan.LoopDim, numOperands int, visit func(offsets []int64)) {
	rank := len(dims)
	offsets := make([]int64, numOperands)
	if rank == 0 {
		visit(offsets)
		return
	}
	idx := make([]int64, rank)
	for {
		visit(offsets)

		a := rank - 1
		for a >= 0 {
			idx[a]++
			for o := 0; o < numOperands; o++ {
				offsets[o] += dims[a].ByteStrides[o]
			}
			if idx[a] < dims[a].Extent {
				break
			}
			for o := 0; o < numOperands; o++ {
				offsets[o] -= dims[a].ByteStrides[o] * idx[a]
			}
			idx[a] = 0
			a--
		}
		if a < 0 {
			return
		}
	}
}

func flatSize(shape []int64) int64 {
	n := int64(1)
	for _, e := range shape {
		n *= e
	}
	return n
}

func itemsizeOf[T kernel.Float]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

// RunBinary drives bp over bases = [a, b, out].
func RunBinary[T kernel.Float](bp *plan.BroadcastPlan, bases []unsafe.Pointer, k kernel.Binary[T]) {
	n := flatSize(bp.OutShape)
	if n == 0 {
		return
	}
	if bp.AllContiguous {
		a := unsafe.Slice((*T)(bases[0]), n)
		b := unsafe.Slice((*T)(bases[1]), n)
		out := unsafe.Slice((*T)(bases[2]), n)
		k.ExecuteContiguous(a, b, out, false, false)
		return
	}
	if len(bp.Dims) == 0 {
		av := *(*T)(bases[0])
		bv := *(*T)(bases[1])
		*(*T)(bases[2]) = k.Scalar(av, bv)
		return
	}

	itemsize := itemsizeOf[T]()
	outer := bp.Dims[:len(bp.Dims)-1]
	inner := bp.Dims[len(bp.Dims)-1]

	forEachOuter(outer, 3, func(offsets []int64) {
		aPtr := unsafe.Add(bases[0], offsets[0])
		bPtr := unsafe.Add(bases[1], offsets[1])
		outPtr := unsafe.Add(bases[2], offsets[2])
		extent := inner.Extent
		aStride, bStride, outStride := inner.ByteStrides[0], inner.ByteStrides[1], inner.ByteStrides[2]

		switch {
		case aStride == itemsize && bStride == itemsize && outStride == itemsize:
			aS := unsafe.Slice((*T)(aPtr), extent)
			bS := unsafe.Slice((*T)(bPtr), extent)
			outS := unsafe.Slice((*T)(outPtr), extent)
			k.ExecuteContiguous(aS, bS, outS, false, false)
		case aStride == 0 && bStride == itemsize && outStride == itemsize:
			aS := []T{*(*T)(aPtr)}
			bS := unsafe.Slice((*T)(bPtr), extent)
			outS := unsafe.Slice((*T)(outPtr), extent)
			k.ExecuteContiguous(aS, bS, outS, true, false)
		case bStride == 0 && aStride == itemsize && outStride == itemsize:
			aS := unsafe.Slice((*T)(aPtr), extent)
			bS := []T{*(*T)(bPtr)}
			outS := unsafe.Slice((*T)(outPtr), extent)
			k.ExecuteContiguous(aS, bS, outS, false, true)
		default:
			for i := int64(0); i < extent; i++ {
				av := *(*T)(unsafe.Add(aPtr, aStride*i))
				bv := *(*T)(unsafe.Add(bPtr, bStride*i))
				*(*T)(unsafe.Add(outPtr, outStride*i)) = k.Scalar(av, bv)
			}
		}
	})
}

// RunUnary drives bp over bases = [a, out].
func RunUnary[T kernel.Float](bp *plan.BroadcastPlan, bases []unsafe.Pointer, k kernel.Unary[T]) {
	n := flatSize(bp.OutShape)
	if n == 0 {
		return
	}
	if bp.AllContiguous {
		a := unsafe.Slice((*T)(bases[0]), n)
		out := unsafe.Slice((*T)(bases[1]), n)
		k.ExecuteContiguous(a, out, false)
		return
	}
	if len(bp.Dims) == 0 {
		*(*T)(bases[1]) = k.Scalar(*(*T)(bases[0]))
		return
	}

	itemsize := itemsizeOf[T]()
	outer := bp.Dims[:len(bp.Dims)-1]
	inner := bp.Dims[len(bp.Dims)-1]

	forEachOuter(outer, 2, func(offsets []int64) {
		aPtr := unsafe.Add(bases[0], offsets[0])
		outPtr := unsafe.Add(bases[1], offsets[1])
		extent := inner.Extent
		aStride, outStride := inner.ByteStrides[0], inner.ByteStrides[1]

		switch {
		case aStride == itemsize && outStride == itemsize:
			aS := unsafe.Slice((*T)(aPtr), extent)
			outS := unsafe.Slice((*T)(outPtr), extent)
			k.ExecuteContiguous(aS, outS, false)
		case aStride == 0 && outStride == itemsize:
			aS := []T{*(*T)(aPtr)}
			outS := unsafe.Slice((*T)(outPtr), extent)
			k.ExecuteContiguous(aS, outS, true)
		default:
			for i := int64(0); i < extent; i++ {
				av := *(*T)(unsafe.Add(aPtr, aStride*i))
				*(*T)(unsafe.Add(outPtr, outStride*i)) = k.Scalar(av)
			}
		}
	})
}

// RunReduce drives rp, reading from inBase and accumulating into outBase.
func RunReduce[T kernel.Float](rp *plan.ReductionPlan, inBase, outBase unsafe.Pointer, k kernel.Reduce[T]) {
	if len(rp.Dims) == 0 {
		return
	}
	itemsize := itemsizeOf[T]()
	outer := rp.Dims[:len(rp.Dims)-1]
	inner := rp.Dims[len(rp.Dims)-1]

	forEachOuter(outer, 2, func(offsets []int64) {
		inPtr := unsafe.Add(inBase, offsets[0])
		outPtr := unsafe.Add(outBase, offsets[1])
		extent := inner.Extent
		inStride := inner.ByteStrides[0]

		var result T
		if inStride == itemsize {
			result = k.ReduceContiguous(unsafe.Slice((*T)(inPtr), extent))
		} else {
			result = k.Identity()
			for i := int64(0); i < extent; i++ {
				v := *(*T)(unsafe.Add(inPtr, inStride*i))
				result = k.Accumulate(result, v)
			}
		}
		*(*T)(outPtr) = result
	})
}

// RunContraction drives the general (non-GEMM) contraction path: for every
// output coordinate, sum the product of all input operands over the inner
// (reduced) axes. bases is [inputs..., out]; len(bases) must equal the
// number of operands (inputs plus output) the plan's strides were built
// against.
func RunContraction[T kernel.Float](cp *plan.ContractionPlan, bases []unsafe.Pointer) {
	numOperands := len(bases)
	outIdx := numOperands - 1

	forEachOuter(cp.OuterDims, numOperands, func(outerOffsets []int64) {
		outPtr := unsafe.Add(bases[outIdx], outerOffsets[outIdx])

		if len(cp.InnerDims) == 0 {
			prod := *(*T)(unsafe.Add(bases[0], outerOffsets[0]))
			for i := 1; i < outIdx; i++ {
				prod *= *(*T)(unsafe.Add(bases[i], outerOffsets[i]))
			}
			*(*T)(outPtr) = prod
			return
		}

		var acc T
		forEachOuter(cp.InnerDims, numOperands, func(innerOffsets []int64) {
			prod := *(*T)(unsafe.Add(bases[0], outerOffsets[0]+innerOffsets[0]))
			for i := 1; i < outIdx; i++ {
				prod *= *(*T)(unsafe.Add(bases[i], outerOffsets[i]+innerOffsets[i]))
			}
			acc += prod
		})
		*(*T)(outPtr) = acc
	})
}
