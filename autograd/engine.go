// Package autograd is the dynamic reverse-mode autodiff engine: tracks
// input tensors as graph leaves, applies registered operators to build
// the graph as forward computation runs, and walks it backward to
// accumulate gradients.
package autograd

import (
	"fmt"
	"sync"

	"github.com/awalterschulze/gographviz"
	"github.com/csotherden/nova/internal/autograd/graph"
	"github.com/csotherden/nova/internal/autograd/ops"
	"github.com/csotherden/nova/internal/xerr"
	"github.com/csotherden/nova/tensor"
)

// Engine owns one computation graph plus the value table (tensors keyed
// by graph.ValueID) and the per-node bookkeeping needed to run each
// node's backward closure during Backward. The zero value is not usable;
// use New.
type Engine struct {
	mu sync.Mutex

	g      *graph.Graph
	values map[graph.ValueID]*tensor.Tensor

	requiresGrad map[graph.ValueID]bool
	leaves       map[graph.ValueID]bool // requires-grad leaf inputs

	nodeOp      map[graph.NodeID]ops.Op
	nodeCtx     map[graph.NodeID]*ops.Context
	nodeOutputs map[graph.NodeID][]graph.ValueID

	gradEnabled bool
}

// New returns a fresh engine with an empty graph and grad tracing enabled.
func New() *Engine {
	return &Engine{
		g:            graph.New(),
		values:       make(map[graph.ValueID]*tensor.Tensor),
		requiresGrad: make(map[graph.ValueID]bool),
		leaves:       make(map[graph.ValueID]bool),
		nodeOp:       make(map[graph.NodeID]ops.Op),
		nodeCtx:      make(map[graph.NodeID]*ops.Context),
		nodeOutputs:  make(map[graph.NodeID][]graph.ValueID),
		gradEnabled:  true,
	}
}

// TrackInput assigns a new input value identifier for t, storing it in
// the value table and recording leaf status when requiresGrad is true.
func (e *Engine) TrackInput(t *tensor.Tensor, requiresGrad bool) graph.ValueID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.g.NewInputValue()
	e.values[id] = t
	if requiresGrad {
		e.requiresGrad[id] = true
		e.leaves[id] = true
	}
	return id
}

// ShouldTrace is true only when grad tracing is enabled on e and at
// least one of ids requires grad.
func (e *Engine) ShouldTrace(ids ...graph.ValueID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gradEnabled {
		return false
	}
	for _, id := range ids {
		if e.requiresGrad[id] {
			return true
		}
	}
	return false
}

// Apply creates a node for op bound to inputIDs, connects producer
// edges, runs op's forward over the corresponding tensors with param,
// allocates one intermediate value per output, stores the outputs in
// the value table, and returns the first output's identifier.
func (e *Engine) Apply(op ops.Op, param any, inputIDs []graph.ValueID) (graph.ValueID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	const errOp = "Engine.Apply"
	inputs := make([]*tensor.Tensor, len(inputIDs))
	for i, id := range inputIDs {
		t, ok := e.values[id]
		if !ok {
			return 0, xerr.Newf(xerr.ValueNotTracked, errOp, "value %d not tracked", id)
		}
		inputs[i] = t
	}

	node := e.g.NewNode(inputIDs)
	for _, id := range inputIDs {
		if p, ok := e.g.Producer(id); ok {
			e.g.AddEdge(p.Node, node)
		}
	}

	opCtx := ops.NewContext()
	outs, err := op.Forward(opCtx, inputs, param)
	if err != nil {
		return 0, err
	}

	outIDs := make([]graph.ValueID, len(outs))
	for i, out := range outs {
		vid := e.g.NewIntermediateValue()
		e.g.SetProducedBy(vid, node, i)
		e.values[vid] = out
		e.requiresGrad[vid] = true
		outIDs[i] = vid
	}
	e.nodeOp[node] = op
	e.nodeCtx[node] = opCtx
	e.nodeOutputs[node] = outIDs

	return outIDs[0], nil
}

// NodeCount and ValueCount report the current graph's size, for
// diagnostics (internal/metrics.Collector.ObserveGraph).
func (e *Engine) NodeCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.NodeCount()
}

func (e *Engine) ValueCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.ValueCount()
}

// Materialise deep-copies the tensor stored at id for consumption
// outside the engine.
func (e *Engine) Materialise(id graph.ValueID) (*tensor.Tensor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.values[id]
	if !ok {
		return nil, xerr.Newf(xerr.ValueNotTracked, "Engine.Materialise", "value %d not tracked", id)
	}
	return t.Clone()
}

// BackwardResult collects the gradients Backward computed for every
// requires-grad leaf reachable from the seed.
type BackwardResult struct {
	grads  map[graph.ValueID]*tensor.Tensor
	leaves []graph.ValueID
}

// Grad retrieves the gradient computed for a leaf value, if any.
func (r *BackwardResult) Grad(id graph.ValueID) (*tensor.Tensor, bool) {
	t, ok := r.grads[id]
	return t, ok
}

// Leaves lists the requires-grad leaf identifiers a gradient was
// computed for.
func (r *BackwardResult) Leaves() []graph.ValueID { return r.leaves }

// Backward runs the five-step reverse pass: seed
// seedID's gradient with ones, walk the topological order in reverse
// accumulating gradients via each node's backward closure, then —
// if materialise — collect gradients for every requires-grad leaf. The
// graph and value table are reset unless retainGraph is true; the
// working gradient table itself is always scratch, independent of
// retainGraph.
func (e *Engine) Backward(seedID graph.ValueID, materialise, retainGraph bool) (*BackwardResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	const errOp = "Engine.Backward"

	order, err := e.g.TopoSort()
	if err != nil {
		return nil, err
	}

	seedVal, ok := e.values[seedID]
	if !ok {
		return nil, xerr.Newf(xerr.ValueNotTracked, errOp, "seed value %d not tracked", seedID)
	}
	seedGrad, err := tensor.Ones(seedVal.Shape(), seedVal.DType())
	if err != nil {
		return nil, err
	}
	gradients := map[graph.ValueID]*tensor.Tensor{seedID: seedGrad}

	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		outIDs := e.nodeOutputs[node]

		gradOuts := make([]*tensor.Tensor, len(outIDs))
		for j, outID := range outIDs {
			g, ok := gradients[outID]
			if !ok {
				outVal := e.values[outID]
				zero, err := tensor.New(outVal.Pool(), outVal.Shape(), outVal.DType())
				if err != nil {
					releaseAll(gradients)
					return nil, err
				}
				gradients[outID] = zero
				g = zero
			}
			gradOuts[j] = g
		}

		op := e.nodeOp[node]
		gradIns, err := op.Backward(e.nodeCtx[node], gradOuts)
		if err != nil {
			releaseAll(gradients)
			return nil, err
		}
		inputIDs := e.g.Inputs(node)
		if err := ops.CheckArity(op.Name(), len(inputIDs), len(gradIns)); err != nil {
			releaseAll(gradients)
			return nil, err
		}

		for k, inID := range inputIDs {
			newGrad := gradIns[k]
			if existing, ok := gradients[inID]; ok {
				summed, err := existing.Add(newGrad)
				if err != nil {
					releaseAll(gradients)
					return nil, err
				}
				existing.Release()
				newGrad.Release()
				gradients[inID] = summed
			} else {
				gradients[inID] = newGrad
			}
		}
	}

	result := &BackwardResult{grads: make(map[graph.ValueID]*tensor.Tensor)}
	if materialise {
		for id := range e.leaves {
			g, ok := gradients[id]
			if !ok {
				continue
			}
			cloned, err := g.Clone()
			if err != nil {
				releaseAll(gradients)
				return nil, err
			}
			result.grads[id] = cloned
			result.leaves = append(result.leaves, id)
		}
	}

	releaseAll(gradients)

	if !retainGraph {
		e.resetLocked()
	}
	return result, nil
}

func releaseAll(ts map[graph.ValueID]*tensor.Tensor) {
	for _, t := range ts {
		t.Release()
	}
}

// resetLocked discards the graph and value table, releasing every
// engine-allocated (non-leaf) tensor. Caller-supplied leaf tensors are
// never released here: the caller retains ownership of those.
func (e *Engine) resetLocked() {
	for id, t := range e.values {
		if _, hasProducer := e.g.Producer(id); hasProducer {
			t.Release()
		}
	}
	e.g.Reset()
	e.values = make(map[graph.ValueID]*tensor.Tensor)
	e.requiresGrad = make(map[graph.ValueID]bool)
	e.leaves = make(map[graph.ValueID]bool)
	e.nodeOp = make(map[graph.NodeID]ops.Op)
	e.nodeCtx = make(map[graph.NodeID]*ops.Context)
	e.nodeOutputs = make(map[graph.NodeID][]graph.ValueID)
}

// NoGradGuard turns the engine's tracing flag off for the lifetime of the
// guard (GradEnabled and ShouldTrace report false), restoring the previous
// state on Close. Apply does not read the flag: it records a node for
// every call, whether or not a guard is open. Grounded on
// a scoped guard; Go has no destructors, so callers defer
// Close explicitly:
//
//	guard := autograd.NewNoGradGuard(eng)
//	defer guard.Close()
type NoGradGuard struct {
	eng  *Engine
	prev bool
}

// NewNoGradGuard disables tracing on eng and returns a guard that
// restores the prior state when closed.
func NewNoGradGuard(eng *Engine) *NoGradGuard {
	eng.mu.Lock()
	prev := eng.gradEnabled
	eng.gradEnabled = false
	eng.mu.Unlock()
	return &NoGradGuard{eng: eng, prev: prev}
}

// Close restores the engine's tracing state to what it was before this
// guard opened.
func (n *NoGradGuard) Close() {
	n.eng.mu.Lock()
	n.eng.gradEnabled = n.prev
	n.eng.mu.Unlock()
}

// GradEnabled reports whether e is currently tracing, independent of
// which NoGradGuard (if any) last changed it — the only reliable way
// for a second, unrelated accessor of the same engine to read the
// current state rather than assuming nothing else touched it.
func (e *Engine) GradEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gradEnabled
}

// SetGradEnabled forces e's tracing state to v and returns what it was
// set to before, for a caller that needs to bracket a scope (force
// recording on, then restore) without owning a NoGradGuard itself.
func (e *Engine) SetGradEnabled(v bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.gradEnabled
	e.gradEnabled = v
	return prev
}

// Graph renders a Graphviz DOT dump of e's current node/value structure —
// read-only inspection, not graph rewriting.
func (e *Engine) Graph() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	dot := gographviz.NewGraph()
	_ = dot.SetName("autograd")
	_ = dot.SetDir(true)

	nodeName := func(n graph.NodeID) string { return fmt.Sprintf("n%d", n) }
	leafName := func(v graph.ValueID) string { return fmt.Sprintf("leaf_v%d", v) }

	for node, op := range e.nodeOp {
		_ = dot.AddNode("autograd", nodeName(node), map[string]string{"label": fmt.Sprintf("%q", op.Name())})
		for _, id := range e.g.Inputs(node) {
			if p, ok := e.g.Producer(id); ok {
				_ = dot.AddEdge(nodeName(p.Node), nodeName(node), true, map[string]string{"label": fmt.Sprintf("%q", fmt.Sprintf("v%d", id))})
			} else {
				_ = dot.AddNode("autograd", leafName(id), map[string]string{"shape": "box"})
				_ = dot.AddEdge(leafName(id), nodeName(node), true, nil)
			}
		}
	}
	return dot.String()
}
