package ops

import "github.com/csotherden/nova/tensor"

// logOp implements log(a); backward is g/a.
type logOp struct{}

func (logOp) Name() string { return "Log" }

func (o *logOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 1, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Log()
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	return []*tensor.Tensor{out}, nil
}

func (o *logOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	ga, err := gradOut[0].Div(a)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga}, nil
}
