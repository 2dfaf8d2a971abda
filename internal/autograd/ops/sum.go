package ops

import (
	"github.com/csotherden/nova/internal/xerr"
	"github.com/csotherden/nova/tensor"
)

// sumOp implements reduction over one axis; backward broadcasts g back
// along the reduced axis, re-inserting it first when the forward pass
// dropped it (keepdim=false).
type sumOp struct{}

func (sumOp) Name() string { return "Sum" }

func (o *sumOp) Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error) {
	if err := CheckArity(o.Name(), 1, len(in)); err != nil {
		return nil, err
	}
	p, ok := param.(ReduceParam)
	if !ok {
		return nil, xerr.Newf(xerr.MissingContext, o.Name(), "forward requires a ReduceParam")
	}
	out, err := in[0].Sum(p.Axis, p.Keepdim)
	if err != nil {
		return nil, err
	}
	ctx.SaveTensor("a", in[0])
	ctx.SaveReduceDesc("desc", SavedReduceDesc{Axis: p.Axis, N: in[0].Shape()[p.Axis], Keepdim: p.Keepdim})
	return []*tensor.Tensor{out}, nil
}

// broadcastReducedGrad re-aligns g's rank with the input shape (inserting
// back the reduced axis if keepdim was false) then broadcasts it out
// across that axis.
func broadcastReducedGrad(op string, a *tensor.Tensor, desc SavedReduceDesc, g *tensor.Tensor) (*tensor.Tensor, error) {
	aligned := g
	owned := false
	if !desc.Keepdim {
		u, err := g.Unsqueeze(desc.Axis)
		if err != nil {
			return nil, err
		}
		aligned = u
		owned = true
	}
	zeros, err := tensor.New(a.Pool(), a.Shape(), a.DType())
	if err != nil {
		if owned {
			aligned.Release()
		}
		return nil, err
	}
	full, err := zeros.Add(aligned)
	zeros.Release()
	if owned {
		aligned.Release()
	}
	if err != nil {
		return nil, err
	}
	return full, nil
}

func (o *sumOp) Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error) {
	a, err := ctx.Tensor(o.Name(), "a")
	if err != nil {
		return nil, err
	}
	desc, err := ctx.ReduceDesc(o.Name(), "desc")
	if err != nil {
		return nil, err
	}
	ga, err := broadcastReducedGrad(o.Name(), a, desc, gradOut[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{ga}, nil
}
