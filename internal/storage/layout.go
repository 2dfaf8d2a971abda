package storage

import "github.com/csotherden/nova/internal/xerr"

// Layout is a shape (ordered, non-negative dimension sizes) and a matching
// strides sequence in elements. Scalars are rank-1 tensors of
// size 1, so the empty shape is never constructed by public entry points.
type Layout struct {
	Shape   []int64
	Strides []int64
}

// ContiguousStrides computes the row-major (C-contiguous) strides for
// shape: stride[i] = product(shape[i+1:]).
func ContiguousStrides(shape []int64) []int64 {
	n := len(shape)
	strides := make([]int64, n)
	acc := int64(1)
	for i := n - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// NewContiguousLayout builds a Layout with freshly computed contiguous
// strides for shape.
func NewContiguousLayout(shape []int64) Layout {
	s := append([]int64(nil), shape...)
	return Layout{Shape: s, Strides: ContiguousStrides(s)}
}

// FlatSize returns the product of shape, i.e. the element count.
func FlatSize(shape []int64) int64 {
	n := int64(1)
	for _, s := range shape {
		n *= s
	}
	return n
}

// Rank is len(Shape).
func (l Layout) Rank() int { return len(l.Shape) }

// FlatSize is the product of l.Shape.
func (l Layout) FlatSize() int64 { return FlatSize(l.Shape) }

// IsContiguous reports whether Strides matches ContiguousStrides(Shape).
func (l Layout) IsContiguous() bool {
	want := ContiguousStrides(l.Shape)
	if len(want) != len(l.Strides) {
		return false
	}
	for i := range want {
		if l.Shape[i] > 1 && want[i] != l.Strides[i] {
			return false
		}
	}
	return true
}

// Validate checks the raw-tensor invariants: shape and
// strides are the same length, and every axis has non-negative stride and
// shape[i] >= 1 (scalars are rank-1 size-1, never rank-0).
func (l Layout) Validate(op string) error {
	if len(l.Shape) != len(l.Strides) {
		return xerr.Newf(xerr.ShapeMismatch, op,
			"shape rank %d != strides rank %d", len(l.Shape), len(l.Strides))
	}
	for i, s := range l.Shape {
		if s < 1 {
			return xerr.Newf(xerr.ShapeMismatch, op, "axis %d has non-positive extent %d", i, s)
		}
		if l.Strides[i] < 0 {
			return xerr.Newf(xerr.ShapeMismatch, op, "axis %d has negative stride %d", i, l.Strides[i])
		}
	}
	return nil
}
