package ops

import (
	"github.com/csotherden/nova/internal/xerr"
	"github.com/csotherden/nova/tensor"
)

// meanOp implements sum/N over one axis; backward is g/N broadcast back,
// sharing sumOp's broadcast-back machinery.
type meanOp struct{}

func (meanOp) Name() string { return "Mean" }

func (o *meanOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 1, len(in)); err != nil {
		return nil, err
	}
	p, ok := param.(ReduceParam)
	if !ok {
		return nil, xerr.Newf(xerr.MissingContext, o.Name(), "forward requires a ReduceParam")
	}
	out, err := in[0].Mean(p.Axis, p.Keepdim)
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveReduceDesc("desc", SavedReduceDesc{Axis: p.Axis, N: in[0].Shape()[p.Axis], Keepdim: p.Keepdim})
	return []*tensor.Tensor{out}, nil
}

func (o *meanOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	desc, err := ctx.ReduceDesc(o.Name(), "desc")
	if err != nil {
		return nil, err
	}
	scale, err := tensor.Scalar(a.Pool(), a.DType(), 1/float64(desc.N))
	if err != nil {
		return nil, err
	}
	scaledG, err := gradOut[0].Mul(scale)
	scale.Release()
	if err != nil {
		return nil, err
	}
	ga, err := broadcastReducedGrad(o.Name(), a, desc, scaledG)
	scaledG.Release()
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga}, nil
}
