package tensor

import (
	"github.com/csotherden/nova/internal/storage"
	"github.com/csotherden/nova/internal/xerr"
)

// SwapAxes returns a view sharing the receiver's storage with axes i and
// j permuted in both shape and strides — a metadata-only operation, no
// data movement; its gradient rule is just "swap the same axes on g".
func (t *Tensor) SwapAxes(i, j int) (*Tensor, error) {
	const op = "Tensor.SwapAxes"
	rank := t.layout.Rank()
	if i < 0 || i >= rank || j < 0 || j >= rank {
		return nil, xerr.Newf(xerr.AxisOutOfRange, op, "axis out of range for rank %d: (%d, %d)", rank, i, j)
	}
	shape := append([]int64(nil), t.layout.Shape...)
	strides := append([]int64(nil), t.layout.Strides...)
	shape[i], shape[j] = shape[j], shape[i]
	strides[i], strides[j] = strides[j], strides[i]

	return &Tensor{
		st:     t.st.Clone(),
		layout: storage.Layout{Shape: shape, Strides: strides},
		pool:   t.pool,
	}, nil
}

// Unsqueeze returns a view with a new size-1 axis inserted at axis. The
// inserted axis carries stride 0: it is never indexed past coordinate 0,
// so its stride value is immaterial except to broadcasting, which treats
// a size-1 axis specially regardless. Used to re-align a reduction's
// output rank with its input before broadcasting a gradient back across
// a non-leading reduced axis in Sum/Mean's backward rule.
func (t *Tensor) Unsqueeze(axis int) (*Tensor, error) {
	const op = "Tensor.Unsqueeze"
	rank := t.layout.Rank()
	if axis < 0 || axis > rank {
		return nil, xerr.Newf(xerr.AxisOutOfRange, op, "axis %d out of range for rank %d", axis, rank)
	}
	shape := make([]int64, 0, rank+1)
	strides := make([]int64, 0, rank+1)
	shape = append(shape, t.layout.Shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, t.layout.Shape[axis:]...)
	strides = append(strides, t.layout.Strides[:axis]...)
	strides = append(strides, 0)
	strides = append(strides, t.layout.Strides[axis:]...)

	return &Tensor{
		st:     t.st.Clone(),
		layout: storage.Layout{Shape: shape, Strides: strides},
		pool:   t.pool,
	}, nil
}
