package ops

import "github.com/csotherden/nova/tensor"

// maximumOp implements max(a, b); backward is (g*[a>=b], g*[b>a]),
// splitting the gradient on the tie-breaking mask.
type maximumOp struct{}

func (maximumOp) Name() string { return "Maximum" }

func (o *maximumOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Maximum(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveTensor("b", in[1])
	return []*tensor.Tensor{out}, nil
}

func (o *maximumOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b")
	if err != nil {
		return nil, err
	}
	g := gradOut[0]

	aGeB, err := a.GreaterEqual(b)
	if err != nil {
		return nil, err
	}
	gradAFull, err := g.Mul(aGeB)
	aGeB.Release()
	if err != nil {
		return nil, err
	}
	ga, err := unbroadcast(gradAFull, a.Shape())
	gradAFull.Release()
	if err != nil {
		return nil, err
	}

	bGtA, err := b.Greater(a)
	if err != nil {
		ga.Release()
		return nil, err
	}
	gradBFull, err := g.Mul(bGtA)
	bGtA.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	gb, err := unbroadcast(gradBFull, b.Shape())
	gradBFull.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []*tensor.Tensor{ga, gb}, nil
}
