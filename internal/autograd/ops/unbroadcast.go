package ops

import "github.com/csotherden/nova/tensor"

// unbroadcast reduces g, the gradient flowing into a broadcast operand,
// back down to shape — the operand's original (pre-broadcast) shape. Any
// leading axes g has beyond len(shape) were rank-padding and are summed
// away entirely; any axis where shape is 1 but g's is not was broadcast
// in place and is summed with keepdim so the rank stays aligned.
//
// Used by Add/Sub/Mul/Div/Maximum/Pow/MatMul's backward passes.
func unbroadcast(g *tensor.Tensor, shape []int64) (*tensor.Tensor, error) {
	cur := g
	owned := false

	for cur.Rank() > len(shape) {
		next, err := cur.Sum(0, false)
		if err != nil {
			if owned {
				cur.Release()
			}
			return nil, err
		}
		if owned {
			cur.Release()
		}
		cur = next
		owned = true
	}

	curShape := cur.Shape()
	for i, want := range shape {
		if want == 1 && curShape[i] != 1 {
			next, err := cur.Sum(i, true)
			if err != nil {
				if owned {
					cur.Release()
				}
				return nil, err
			}
			if owned {
				cur.Release()
			}
			cur = next
			owned = true
			curShape = cur.Shape()
		}
	}

	if !owned {
		return cur.Alias(), nil
	}
	return cur, nil
}
