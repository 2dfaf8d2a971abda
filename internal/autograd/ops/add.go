package ops

import "github.com/csotherden/nova/tensor"

// addOp implements a + b; backward is simply (g, g), reduced back to
// each operand's pre-broadcast shape.
type addOp struct{}

func (addOp) Name() string { return "Add" }

func (o *addOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Add(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a_shape", in[0])
	ctx.SaveTensor("b_shape", in[1])
	return []*tensor.Tensor{out}, nil
}

func (o *addOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a_shape")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b_shape")
	if err != nil {
		return nil, err
	}
	g := gradOut[0]
	ga, err := unbroadcast(g, a.Shape())
	if err != nil {
		return nil, err
	}
	gb, err := unbroadcast(g, b.Shape())
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []*tensor.Tensor{ga, gb}, nil
}
