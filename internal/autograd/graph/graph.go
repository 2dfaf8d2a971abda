// Package graph is the autodiff computation graph: three parallel tables
// indexed by stable integer identifiers (values, nodes, and the edges
// between them) plus a Kahn's-algorithm topological sort for the backward
// walk.
package graph

import "github.com/csotherden/nova/internal/xerr"

// ValueID identifies a value slot: either a tracked input or an
// intermediate output of some node.
type ValueID int64

// NodeID identifies an operator application. NullNode marks the absence
// of a producer, used for leaf (input) values.
type NodeID int64

// NullNode is the producer of a value with no node behind it (a leaf
// input). add_edge skips any edge touching it.
const NullNode NodeID = -1

// ProducerInfo records which node (and which of its output slots)
// produced a value.
type ProducerInfo struct {
	Node NodeID
	Slot int
}

// Graph is the mutable autodiff graph. The zero value is not usable; use
// New.
type Graph struct {
	nextValue ValueID
	nextNode  NodeID

	producedBy map[ValueID]ProducerInfo
	nodeInputs map[NodeID][]ValueID
	consumedBy map[NodeID][]NodeID // outgoing edges: producer node -> consumer nodes
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		producedBy: make(map[ValueID]ProducerInfo),
		nodeInputs: make(map[NodeID][]ValueID),
		consumedBy: make(map[NodeID][]NodeID),
	}
}

// NewInputValue allocates a value identifier with no producer node.
func (g *Graph) NewInputValue() ValueID {
	id := g.nextValue
	g.nextValue++
	return id
}

// NewIntermediateValue allocates a value identifier intended to be filled
// by SetProducedBy once its producing node is known.
func (g *Graph) NewIntermediateValue() ValueID {
	id := g.nextValue
	g.nextValue++
	return id
}

// SetProducedBy records that value was produced by node at output slot.
func (g *Graph) SetProducedBy(value ValueID, node NodeID, slot int) {
	g.producedBy[value] = ProducerInfo{Node: node, Slot: slot}
}

// Producer reports the node (and slot) that produced value, if any.
func (g *Graph) Producer(value ValueID) (ProducerInfo, bool) {
	p, ok := g.producedBy[value]
	return p, ok
}

// NewNode allocates a node identifier for an operator application over
// inputs, recording its input list, which the engine's backward pass reads
// through Inputs to route gradients (the topological sort itself only
// needs the edges added via AddEdge).
func (g *Graph) NewNode(inputs []ValueID) NodeID {
	id := g.nextNode
	g.nextNode++
	g.nodeInputs[id] = append([]ValueID(nil), inputs...)
	return id
}

// Inputs returns the input values recorded for node at creation.
func (g *Graph) Inputs(node NodeID) []ValueID { return g.nodeInputs[node] }

// AddEdge records a producer -> consumer relationship for the reverse
// walk. Edges touching NullNode (leaf inputs) are silently skipped.
func (g *Graph) AddEdge(src, dst NodeID) {
	if src == NullNode || dst == NullNode {
		return
	}
	g.consumedBy[src] = append(g.consumedBy[src], dst)
}

// NodeCount is the number of nodes allocated so far.
func (g *Graph) NodeCount() int64 { return int64(g.nextNode) }

// ValueCount is the number of values allocated so far.
func (g *Graph) ValueCount() int64 { return int64(g.nextValue) }

// TopoSort computes a linear order of all nodes such that every node
// appears after all of its producers, using Kahn's algorithm: in-degree
// per node derived from the edges AddEdge recorded, with a queue of
// zero-in-degree nodes consumed until exhausted. If the resulting order
// is shorter than the node count, the graph has a cycle.
func (g *Graph) TopoSort() ([]NodeID, error) {
	n := g.nextNode
	inDegree := make([]int, n)
	for _, dsts := range g.consumedBy {
		for _, d := range dsts {
			inDegree[d]++
		}
	}

	queue := make([]NodeID, 0, n)
	for id := NodeID(0); id < n; id++ {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]NodeID, 0, n)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, d := range g.consumedBy[node] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if NodeID(len(order)) != n {
		return nil, xerr.Newf(xerr.CycleDetected, "graph.TopoSort",
			"expected %d nodes in topological order, got %d", n, len(order))
	}
	return order, nil
}

// Reset discards all nodes, values and edges, returning the graph to its
// initial empty state (used when the autodiff engine's backward pass
// completes without retain_graph).
func (g *Graph) Reset() {
	g.nextValue = 0
	g.nextNode = 0
	g.producedBy = make(map[ValueID]ProducerInfo)
	g.nodeInputs = make(map[NodeID][]ValueID)
	g.consumedBy = make(map[NodeID][]NodeID)
}
