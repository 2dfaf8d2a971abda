package tensor

import (
	"math"
	"testing"
)

func equalApprox32(t *testing.T, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range got {
		if float32(math.Abs(float64(got[i]-want[i]))) > tol {
			t.Fatalf("index %d: got %v want %v", i, got, want)
		}
	}
}

func collect(t *testing.T, x *Tensor) []float32 {
	t.Helper()
	var out []float32
	for v := range Elements[float32](x) {
		out = append(out, v)
	}
	return out
}

func TestAddContiguous(t *testing.T) {
	a, err := FromFloat32(DefaultPool, []int64{4}, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()
	b, err := FromFloat32(DefaultPool, []int64{4}, []float32{10, 20, 30, 40})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	out, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()
	equalApprox32(t, collect(t, out), []float32{11, 22, 33, 44}, 1e-6)
}

func TestAddBroadcastsScalar(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	defer a.Release()
	b, _ := FromFloat32(DefaultPool, []int64{1}, []float32{100})
	defer b.Release()

	out, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()
	equalApprox32(t, collect(t, out), []float32{101, 102, 103, 104, 105, 106}, 1e-6)
}

func TestAddIncompatibleShapesErrors(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{3}, []float32{1, 2, 3})
	defer a.Release()
	b, _ := FromFloat32(DefaultPool, []int64{4}, []float32{1, 2, 3, 4})
	defer b.Release()

	if _, err := a.Add(b); err == nil {
		t.Fatal("expected an incompatible-shapes error")
	}
}

func TestSumThenBroadcastBackIdentity(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer a.Release()

	sum, err := a.Sum(1, true)
	if err != nil {
		t.Fatal(err)
	}
	defer sum.Release()
	if !shapesEqual(sum.Shape(), []int64{2, 1}) {
		t.Fatalf("unexpected keepdim shape: %v", sum.Shape())
	}

	broadcastBack, err := sum.Add(a)
	if err != nil {
		t.Fatal(err)
	}
	defer broadcastBack.Release()
	if !shapesEqual(broadcastBack.Shape(), a.Shape()) {
		t.Fatalf("broadcast-back shape mismatch: %v", broadcastBack.Shape())
	}
}

func TestMean(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{4}, []float32{1, 2, 3, 4})
	defer a.Release()
	mean, err := a.Mean(0, false)
	if err != nil {
		t.Fatal(err)
	}
	defer mean.Release()
	equalApprox32(t, collect(t, mean), []float32{2.5}, 1e-6)
}

func TestMatMul2D(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer a.Release()
	b, _ := FromFloat32(DefaultPool, []int64{3, 2}, []float32{7, 8, 9, 10, 11, 12})
	defer b.Release()

	out, err := a.MatMul(b)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()
	// [1 2 3; 4 5 6] x [7 8; 9 10; 11 12] = [58 64; 139 154]
	equalApprox32(t, collect(t, out), []float32{58, 64, 139, 154}, 1e-3)
}

func TestMatMulBatched(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{2, 2, 2}, []float32{
		1, 0, 0, 1, // batch 0: identity
		2, 0, 0, 2, // batch 1: 2*identity
	})
	defer a.Release()
	b, _ := FromFloat32(DefaultPool, []int64{2, 2, 2}, []float32{
		1, 2, 3, 4,
		1, 2, 3, 4,
	})
	defer b.Release()

	out, err := a.MatMul(b)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()
	equalApprox32(t, collect(t, out), []float32{1, 2, 3, 4, 2, 4, 6, 8}, 1e-3)
}

func TestSwapAxes(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer a.Release()
	at, err := a.SwapAxes(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer at.Release()
	if !shapesEqual(at.Shape(), []int64{3, 2}) {
		t.Fatalf("unexpected transposed shape: %v", at.Shape())
	}
	equalApprox32(t, collect(t, at), []float32{1, 4, 2, 5, 3, 6}, 1e-6)
}

func TestSubInPlace(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{3}, []float32{10, 20, 30})
	defer a.Release()
	b, _ := FromFloat32(DefaultPool, []int64{3}, []float32{1, 2, 3})
	defer b.Release()

	if err := a.SubInPlace(b); err != nil {
		t.Fatal(err)
	}
	equalApprox32(t, collect(t, a), []float32{9, 18, 27}, 1e-6)
}

func TestSubInPlaceShapeChangeErrors(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{3}, []float32{1, 2, 3})
	defer a.Release()
	b, _ := FromFloat32(DefaultPool, []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer b.Release()

	if err := a.SubInPlace(b); err == nil {
		t.Fatal("expected a shape-mismatch error")
	}
}

func TestAtRespectsStrides(t *testing.T) {
	a, _ := FromFloat32(DefaultPool, []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer a.Release()
	at, _ := a.SwapAxes(0, 1)
	defer at.Release()

	v, err := At[float32](at, 1) // logical (0,1) of the transposed view -> original (1,0) -> 4
	if err != nil {
		t.Fatal(err)
	}
	if v != 4 {
		t.Fatalf("At(1) = %v, want 4", v)
	}
}
