package ops

import "github.com/csotherden/nova/tensor"

// powOp implements a^b; backward is (b*a^(b-1)*g, a^b*ln(a)*g). Saves
// the forward output (a^b) to avoid recomputing it.
type powOp struct{}

func (powOp) Name() string { return "Pow" }

func (o *powOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].Pow(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveTensor("b", in[1])
	ctx.SaveTensor("out", out)
	return []*tensor.Tensor{out}, nil
}

func (o *powOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b")
	if err != nil {
		return nil, err
	}
	out, err := ctx.Tensor(o.Name(), "out")
	if err != nil {
		return nil, err
	}
	g := gradOut[0]

	one, err := tensor.Scalar(a.Pool(), a.DType(), 1)
	if err != nil {
		return nil, err
	}
	bMinus1, err := b.Sub(one)
	one.Release()
	if err != nil {
		return nil, err
	}
	aPowBMinus1, err := a.Pow(bMinus1)
	bMinus1.Release()
	if err != nil {
		return nil, err
	}
	bTimesPow, err := b.Mul(aPowBMinus1)
	aPowBMinus1.Release()
	if err != nil {
		return nil, err
	}
	gradAFull, err := bTimesPow.Mul(g)
	bTimesPow.Release()
	if err != nil {
		return nil, err
	}
	ga, err := unbroadcast(gradAFull, a.Shape())
	gradAFull.Release()
	if err != nil {
		return nil, err
	}

	lnA, err := a.Log()
	if err != nil {
		ga.Release()
		return nil, err
	}
	outTimesLnA, err := out.Mul(lnA)
	lnA.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	gradBFull, err := outTimesLnA.Mul(g)
	outTimesLnA.Release()
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
