package autograd

import (
	"math"
	"testing"

	"github.com/csotherden/nova/internal/autograd/graph"
	"github.com/csotherden/nova/internal/autograd/ops"
	"github.com/csotherden/nova/tensor"
)

func approxEqual(t *testing.T, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range got {
		if float32(math.Abs(float64(got[i]-want[i]))) > tol {
			t.Fatalf("index %d: got %v want %v", i, got, want)
		}
	}
}

func collect(t *testing.T, x *tensor.Tensor) []float32 {
	t.Helper()
	var out []float32
	for v := range tensor.Elements[float32](x) {
		out = append(out, v)
	}
	return out
}

// TestBackwardMulChain checks y = (a + b) * c end to end: dy/da = c,
// dy/db = c, dy/dc = a + b.
func TestBackwardMulChain(t *testing.T) {
	eng := New()

	a, _ := tensor.FromFloat32(tensor.DefaultPool, []int64{2}, []float32{1, 2})
	b, _ := tensor.FromFloat32(tensor.DefaultPool, []int64{2}, []float32{3, 4})
	c, _ := tensor.FromFloat32(tensor.DefaultPool, []int64{2}, []float32{5, 6})

	aID := eng.TrackInput(a, true)
	bID := eng.TrackInput(b, true)
	cID := eng.TrackInput(c, true)

	addOp, ok := ops.Get("Add")
	if !ok {
		t.Fatal("Add not registered")
	}
	mulOp, ok := ops.Get("Mul")
	if !ok {
		t.Fatal("Mul not registered")
	}

	if !eng.ShouldTrace(aID, bID) {
		t.Fatal("expected ShouldTrace to be true for requires-grad leaves")
	}

	sumID, err := eng.Apply(addOp, nil, []graph.ValueID{aID, bID})
	if err != nil {
		t.Fatal(err)
	}
	yID, err := eng.Apply(mulOp, nil, []graph.ValueID{sumID, cID})
	if err != nil {
		t.Fatal(err)
	}

	y, err := eng.Materialise(yID)
	if err != nil {
		t.Fatal(err)
	}
	defer y.Release()
	approxEqual(t, collect(t, y), []float32{20, 36}, 1e-6)

	result, err := eng.Backward(yID, true, false)
	if err != nil {
		t.Fatal(err)
	}

	ga, ok := result.Grad(aID)
	if !ok {
		t.Fatal("missing gradient for a")
	}
	defer ga.Release()
	approxEqual(t, collect(t, ga), []float32{5, 6}, 1e-6)

	gb, ok := result.Grad(bID)
	if !ok {
		t.Fatal("missing gradient for b")
	}
	defer gb.Release()
	approxEqual(t, collect(t, gb), []float32{5, 6}, 1e-6)

	gc, ok := result.Grad(cID)
	if !ok {
		t.Fatal("missing gradient for c")
	}
	defer gc.Release()
	approxEqual(t, collect(t, gc), []float32{4, 6}, 1e-6)

	if len(result.Leaves()) != 3 {
		t.Fatalf("expected 3 leaves, got %d", len(result.Leaves()))
	}
}

// TestBackwardRetainGraphAllowsSecondCall exercises retain_graph=true:
// two backward calls against the same graph should produce identical
// gradients, and the graph must still be usable afterwards.
func TestBackwardRetainGraphAllowsSecondCall(t *testing.T) {
	eng := New()
	a, _ := tensor.FromFloat32(tensor.DefaultPool, []int64{3}, []float32{1, 2, 3})
	b, _ := tensor.FromFloat32(tensor.DefaultPool, []int64{3}, []float32{4, 5, 6})
	aID := eng.TrackInput(a, true)
	bID := eng.TrackInput(b, true)

	mulOp, _ := ops.Get("Mul")
	yID, err := eng.Apply(mulOp, nil, []graph.ValueID{aID, bID})
	if err != nil {
		t.Fatal(err)
	}

	r1, err := eng.Backward(yID, true, true)
	if err != nil {
		t.Fatal(err)
	}
	g1, _ := r1.Grad(aID)
	defer g1.Release()

	r2, err := eng.Backward(yID, true, false)
	if err != nil {
		t.Fatal(err)
	}
	g2, _ := r2.Grad(aID)
	defer g2.Release()

	approxEqual(t, collect(t, g1), collect(t, g2), 1e-6)
}

// TestNoGradGuardSuppressesTracing confirms ShouldTrace reports false
// while a NoGradGuard is open, and restores prior state on Close.
func TestNoGradGuardSuppressesTracing(t *testing.T) {
	eng := New()
	a, _ := tensor.FromFloat32(tensor.DefaultPool, []int64{1}, []float32{1})
	aID := eng.TrackInput(a, true)

	if !eng.ShouldTrace(aID) {
		t.Fatal("expected tracing enabled by default")
	}

	guard := NewNoGradGuard(eng)
	if eng.ShouldTrace(aID) {
		t.Fatal("expected tracing suppressed under NoGradGuard")
	}
	guard.Close()

	if !eng.ShouldTrace(aID) {
		t.Fatal("expected tracing restored after guard closed")
	}
}
