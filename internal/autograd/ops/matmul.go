package ops

import "github.com/csotherden/nova/tensor"

// matMulOp implements A . B; backward is (G . B^T, A^T . G) with the
// transpose over the last two axes, reduced back across any broadcast
// batch axes.
type matMulOp struct{}

func (matMulOp) Name() string { return "MatMul" }

func (o *matMulOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 2, len(in)); err != nil {
		return nil, err
	}
	out, err := in[0].MatMul(in[1])
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveTensor("b", in[1])
	return []*tensor.Tensor{out}, nil
}

func (o *matMulOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	b, err := ctx.Tensor(o.Name(), "b")
	if err != nil {
		return nil, err
	}
	g := gradOut[0]
	ra, rb := a.Rank(), b.Rank()

	bT, err := b.SwapAxes(rb-2, rb-1)
	if err != nil {
		return nil, err
	}
	gAFull, err := g.MatMul(bT)
	bT.Release()
	if err != nil {
		return nil, err
	}
	ga, err := unbroadcast(gAFull, a.Shape())
	gAFull.Release()
	if err != nil {
		return nil, err
	}

	aT, err := a.SwapAxes(ra-2, ra-1)
	if err != nil {
		ga.Release()
		return nil, err
	}
	gBFull, err := aT.MatMul(g)
	aT.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	gb, err := unbroadcast(gBFull, b.Shape())
	gBFull.Release()
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []*tensor.Tensor{ga, gb}, nil
}
