package ops

import "github.com/csotherden/nova/tensor"

// divOp implements a / b; backward is (g/b, -g*a/b^2).
type divOp struct{}

func (divOp) Name() string { return "Div" }

func (o *divOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Div(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveTensor("b", in[1])
	return []*tensor.Tensor{out}, nil
}

func (o *divOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b")
	if err != nil {
		return nil, err
	}
	g := gradOut[0]

	gOverB, err := g.Div(b)
	if err != nil {
		return nil, err
	}
	ga, err := unbroadcast(gOverB, a.Shape())
	gOverB.Release()
	if err != nil {
		return nil, err
	}

	bSq, err := b.Mul(b)
	if err != nil {
		ga.Release()
		return nil, err
	}
	gTimesA, err := g.Mul(a)
	if err != nil {
		bSq.Release()
		ga.Release()
		return nil, err
	}
	numer, err := gTimesA.Div(bSq)
	gTimesA.Release()
	bSq.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	negNumer, err := numer.Neg()
	numer.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	gb, err := unbroadcast(negNumer, b.Shape())
	negNumer.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []*tensor.Tensor{ga, gb}, nil
}
