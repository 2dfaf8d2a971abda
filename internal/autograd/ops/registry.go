package ops

import (
	"fmt"

	"github.com/csotherden/nova/tensor"
)

// Op is a type-erased node: a concrete operator wrapped so the graph can
// store heterogeneous nodes behind one interface. param carries whatever
// forward needs beyond its tensor inputs (an axis, a keepdim flag, ...);
// ops that take no parameter ignore it.
type Op interface {
	Name() string
	Forward(ctx *Context, in []*tensor.Tensor, param any) ([]*tensor.Tensor, error)
	Backward(ctx *Context, gradOut []*tensor.Tensor) ([]*tensor.Tensor, error)
}

var registry = make(map[string]Op)

// Register adds op to the registry under op.Name(), panicking on a
// duplicate name — a programmer error caught at init time, not runtime.
func Register(op Op) {
	name := op.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("ops: duplicate registration for %q", name))
	}
	registry[name] = op
}

// Get looks up an op by its stable textual name.
func Get(name string) (Op, bool) {
	op, ok := registry[name]
	return op, ok
}

func init() {
	Register(&addOp{})
	Register(&subOp{})
	Register(&mulOp{})
	Register(&divOp{})
	Register(&powOp{})
	Register(&maximumOp{})
	Register(&greaterThanOp{})
	Register(&expOp{})
	Register(&logOp{})
	Register(&sqrtOp{})
	Register(&sumOp{})
	Register(&meanOp{})
	Register(&matMulOp{})
	Register(&swapAxesOp{})
}
