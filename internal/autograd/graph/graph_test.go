package graph

import "testing"

func TestTopoSortLinearChain(t *testing.T) {
	g := New()
	in := g.NewInputValue()

	n1 := g.NewNode([]ValueID{in})
	v1 := g.NewIntermediateValue()
	g.SetProducedBy(v1, n1, 0)

	n2 := g.NewNode([]ValueID{v1})
	v2 := g.NewIntermediateValue()
	g.SetProducedBy(v2, n2, 0)
	g.AddEdge(n1, n2)

	order, err := g.TopoSort()
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != n1 || order[1] != n2 {
		t.Fatalf("unexpected order: %v", order)
	}
	_ = v2
}

func TestTopoSortDiamond(t *testing.T) {
	g := New()
	in := g.NewInputValue()

	nTop := g.NewNode([]ValueID{in})
	vTop := g.NewIntermediateValue()
	g.SetProducedBy(vTop, nTop, 0)

	nLeft := g.NewNode([]ValueID{vTop})
	vLeft := g.NewIntermediateValue()
	g.SetProducedBy(vLeft, nLeft, 0)
	g.AddEdge(nTop, nLeft)

	nRight := g.NewNode([]ValueID{vTop})
	vRight := g.NewIntermediateValue()
	g.SetProducedBy(vRight, nRight, 0)
	g.AddEdge(nTop, nRight)

	nJoin := g.NewNode([]ValueID{vLeft, vRight})
	g.AddEdge(nLeft, nJoin)
	g.AddEdge(nRight, nJoin)

	order, err := g.TopoSort()
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[NodeID]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	if pos[nTop] >= pos[nLeft] || pos[nTop] >= pos[nRight] || pos[nLeft] >= pos[nJoin] || pos[nRight] >= pos[nJoin] {
		t.Fatalf("topo order violates dependency edges: %v", order)
	}
}

func TestTopoSortCycleDetected(t *testing.T) {
	g := New()
	a := g.NewNode(nil)
	b := g.NewNode(nil)
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	if _, err := g.TopoSort(); err == nil {
		t.Fatal("expected a cycle-detected error")
	}
}

func TestAddEdgeSkipsNullNode(t *testing.T) {
	g := New()
	n := g.NewNode(nil)
	g.AddEdge(NullNode, n)
	g.AddEdge(n, NullNode)

	order, err := g.TopoSort()
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 1 || order[0] != n {
		t.Fatalf("unexpected order: %v", order)
	}
}
