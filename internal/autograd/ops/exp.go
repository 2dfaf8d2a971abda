package ops

import "github.com/csotherden/nova/tensor"

// expOp implements exp(a); backward is g*exp(a). The forward output IS
// exp(a), so backward reuses it instead of recomputing.
type expOp struct{}

func (expOp) Name() string { return "Exp" }

func (o *expOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 1, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Exp()
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("out", out)
	return []*tensor.Tensor{out}, nil
}

func (o *expOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	out, err := ctx.Tensor(o.Name(), "out")
	if err != nil {
		return nil, err
	}
	ga, err := gradOut[0].Mul(out)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga}, nil
}
