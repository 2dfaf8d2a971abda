package tensor

import "github.com/csotherden/nova/internal/plan"

// descriptor is the planner-facing view of t: its current shape/strides
// and element width, carrying no memory ownership of its own.
func (t *Tensor) descriptor() plan.Descriptor {
	return plan.Descriptor{
		Shape:    t.layout.Shape,
		Strides:  t.layout.Strides,
		Itemsize: t.st.DType.Itemsize(),
	}
}
