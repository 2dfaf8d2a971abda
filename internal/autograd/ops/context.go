// Package ops is the operator registry: one record per supported op
// naming its forward and backward closures, with a small closed tagged
// union for the context each op uses to pass data from forward to
// backward.
//
// One Go file per op, each a small Forward/Backward pair against this
// shared saved-value context.
package ops

import (
	"github.com/csotherden/nova/internal/xerr"
	"github.com/csotherden/nova/tensor"
)

// SavedAxis is the context entry for a single axis parameter (SwapAxes
// saves one for each of its two axes).
type SavedAxis struct {
	Axis    int
	Keepdim bool
}

// SavedReduceDesc is the context entry for reduction ops that additionally
// need the reduced axis's original extent for their backward pass (Mean's
// 1/N scale).
type SavedReduceDesc struct {
	Axis    int
	N       int64
	Keepdim bool
}

// Context carries the tensors and parameters a forward pass saves for its
// matching backward pass. It rejects a heterogeneous any-typed map in
// favour of three small closed stores.
type Context struct {
	tensors map[string]*tensor.Tensor
	axes    map[string]SavedAxis
	reduce  map[string]SavedReduceDesc
}

// NewContext returns an empty context, ready for one forward/backward
// round trip.
func NewContext() *Context {
	return &Context{
		tensors: make(map[string]*tensor.Tensor),
		axes:    make(map[string]SavedAxis),
		reduce:  make(map[string]SavedReduceDesc),
	}
}

// SaveTensor stores t under key for later retrieval by Tensor.
func (c *Context) SaveTensor(key string, t *tensor.Tensor) { c.tensors[key] = t }

// Tensor retrieves a tensor saved under key, failing with
// AutogradError: MissingContext if it was never saved.
func (c *Context) Tensor(op, key string) (*tensor.Tensor, error) {
	t, ok := c.tensors[key]
	if !ok {
		return nil, xerr.Newf(xerr.MissingContext, op, "no saved tensor for key %q", key)
	}
	return t, nil
}

// SaveAxis stores an axis parameter under key.
func (c *Context) SaveAxis(key string, v SavedAxis) { c.axes[key] = v }

// Axis retrieves an axis parameter saved under key.
func (c *Context) Axis(op, key string) (SavedAxis, error) {
	v, ok := c.axes[key]
	if !ok {
		return SavedAxis{}, xerr.Newf(xerr.MissingContext, op, "no saved axis for key %q", key)
	}
	return v, nil
}

// SaveReduceDesc stores a reduce descriptor under key.
func (c *Context) SaveReduceDesc(key string, v SavedReduceDesc) { c.reduce[key] = v }

// ReduceDesc retrieves a reduce descriptor saved under key.
func (c *Context) ReduceDesc(op, key string) (SavedReduceDesc, error) {
	v, ok := c.reduce[key]
	if !ok {
		return SavedReduceDesc{}, xerr.Newf(xerr.MissingContext, op, "no saved reduce descriptor for key %q", key)
	}
	return v, nil
}

// CheckArity fails with AutogradError: ArityMismatch when an op's backward
// produced a different number of gradients than its forward had inputs.
func CheckArity(op string, wantIn, gotGradIn int) error {
	if wantIn != gotGradIn {
		return xerr.Newf(xerr.ArityMismatch, op, "backward produced %d gradients for %d inputs", gotGradIn, wantIn)
	}
	return nil
}
