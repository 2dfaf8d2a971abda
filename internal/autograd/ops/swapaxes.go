package ops

import (
	"github.com/csotherden/nova/internal/xerr"
	"github.com/csotherden/nova/tensor"
)

// swapAxesOp implements a metadata-only axis permutation; backward swaps
// the same two axes on g.
type swapAxesOp struct{}

func (swapAxesOp) Name() string { return "SwapAxes" }

func (o *swapAxesOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 1, len(in)); err != nil {
		return nil, err
	}
	p, ok := param.(SwapAxesParam)
	if !ok {
		return nil, xerr.Newf(xerr.MissingContext, o.Name(), "forward requires a SwapAxesParam")
	}
	out, err := in[0].SwapAxes(p.I, p.J)
	if err != nil {
		return nil, err
	}
	ctx.SaveAxis("i", SavedAxis{Axis: p.I})
	ctx.SaveAxis("j", SavedAxis{Axis: p.J})
	return []*tensor.Tensor{out}, nil
}

func (o *swapAxesOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	i, err := ctx.Axis(o.Name(), "i")
	if err != nil {
		return nil, err
	}
	j, err := ctx.Axis(o.Name(), "j")
	if err != nil {
		return nil, err
	}
	ga, err := gradOut[0].SwapAxes(i.Axis, j.Axis)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga}, nil
}
