package ops

import "github.com/csotherden/nova/tensor"

// mulOp implements a * b; backward is (g*b, g*a).
type mulOp struct{}

func (mulOp) Name() string { return "Mul" }

func (o *mulOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Mul(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveTensor("b", in[1])
	return []*tensor.Tensor{out}, nil
}

func (o *mulOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b")
	if err != nil {
		return nil, err
	}
	g := gradOut[0]

	gTimesB, err := g.Mul(b)
	if err != nil {
		return nil, err
	}
	ga, err := unbroadcast(gTimesB, a.Shape())
	gTimesB.Release()
	if err != nil {
		return nil, err
	}

	gTimesA, err := g.Mul(a)
	if err != nil {
		ga.Release()
		return nil, err
	}
	gb, err := unbroadcast(gTimesA, b.Shape())
	gTimesA.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []*tensor.Tensor{ga, gb}, nil
}
