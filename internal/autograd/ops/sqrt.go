package ops

import "github.com/csotherden/nova/tensor"

// sqrtOp implements sqrt(a); backward is g/(2*sqrt(a)), reusing the
// forward output (sqrt(a)) rather than recomputing it.
type sqrtOp struct{}

func (sqrtOp) Name() string { return "Sqrt" }

func (o *sqrtOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 1, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Sqrt()
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("out", out)
	return []*tensor.Tensor{out}, nil
}

func (o *sqrtOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	out, err := ctx.Tensor(o.Name(), "out")
	if err != nil {
		return nil, err
	}
	two, err := tensor.Scalar(out.Pool(), out.DType(), 2)
	if err != nil {
		return nil, err
	}
	twoSqrt, err := out.Mul(two)
	two.Release()
	if err != nil {
		return nil, err
	}
	ga, err := gradOut[0].Div(twoSqrt)
	twoSqrt.Release()
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga}, nil
}
