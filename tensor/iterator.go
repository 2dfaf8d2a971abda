package tensor

import (
	"iter"
	"unsafe"
)

// Elements returns a Go 1.23 range-over-func sequence walking t's
// elements in logical (shape) order, honouring strides — so a transposed
// or otherwise permuted view (e.g. the result of SwapAxes) iterates in
// its own logical order, not its physical memory order, expressed here
// as a single Seq instead of a stateful iterator object.
func Elements[T any](t *Tensor) iter.Seq[T] {
	return func(yield func(T) bool) {
		shape, strides := t.layout.Shape, t.layout.Strides
		rank := len(shape)
		total := t.layout.FlatSize()
		if total == 0 {
			return
		}
		base, err := basePtr[T](t)
		if err != nil {
			return
		}
		var zero T
		itemsize := int64(unsafe.Sizeof(zero))

		idx := make([]int64, rank)
		for i := int64(0); i < total; i++ {
			offset := int64(0)
			for a := 0; a < rank; a++ {
				offset += idx[a] * strides[a] * itemsize
			}
			v := *(*T)(unsafe.Add(base, offset))
			if !yield(v) {
				return
			}
			for a := rank - 1; a >= 0; a-- {
				idx[a]++
				if idx[a] < shape[a] {
					break
				}
				idx[a] = 0
			}
		}
	}
}
