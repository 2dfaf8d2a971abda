package ops

import "github.com/csotherden/nova/tensor"

// greaterThanOp implements a > b; a comparison with no gradient flow,
// so backward is (0, 0).
type greaterThanOp struct{}

func (greaterThanOp) Name() string { return "GreaterThan" }

func (o *greaterThanOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Greater(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveTensor("b", in[1])
	return []*tensor.Tensor{out}, nil
}

func (o *greaterThanOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b")
	if err != nil {
		return nil, err
	}
	za, err := tensor.New(a.Pool(), a.Shape(), a.DType())
	if err != nil {
		return nil, err
	}
	zb, err := tensor.New(b.Pool(), b.Shape(), b.DType())
	if err != nil {
		za.Release()
		return nil, err
	}
	return []*tensor.Tensor{za, zb}, nil
}
