package kernel

import (
	"math"
	"testing"
)

func equalApprox32(a, b []float32, tol float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := float32(math.Abs(float64(a[i] - b[i])))
		if d > tol {
			return false
		}
	}
	return true
}

func TestAddContiguous(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	b := []float32{10, 20, 30, 40, 50}
	out := make([]float32, 5)
	Add[float32]().ExecuteContiguous(a, b, out, false, false)
	want := []float32{11, 22, 33, 44, 55}
	if !equalApprox32(out, want, 1e-6) {
		t.Fatalf("Add mismatch: got %v want %v", out, want)
	}
}

func TestAddBroadcastScalar(t *testing.T) {
	a := []float32{2}
	b := []float32{1, 2, 3, 4, 5, 6, 7}
	out := make([]float32, 7)
	Add[float32]().ExecuteContiguous(a, b, out, true, false)
	for i, v := range out {
		want := b[i] + 2
		if v != want {
			t.Fatalf("index %d: got %v want %v", i, v, want)
		}
	}
}

func TestMulScalarTail(t *testing.T) {
	a := Mul[float32]()
	if got := a.Scalar(3, 4); got != 12 {
		t.Fatalf("Scalar(3,4) = %v, want 12", got)
	}
}

func TestGreater(t *testing.T) {
	g := Greater[float64]()
	if g.Scalar(3, 2) != 1 {
		t.Fatalf("expected 1 for 3>2")
	}
	if g.Scalar(2, 3) != 0 {
		t.Fatalf("expected 0 for 2>3")
	}
}

func TestExpLogRoundTrip(t *testing.T) {
	e := Exp[float64]()
	l := Log[float64]()
	x := 1.5
	y := e.Scalar(x)
	back := l.Scalar(y)
	if math.Abs(back-x) > 1e-9 {
		t.Fatalf("exp/log round trip: got %v want %v", back, x)
	}
}

func TestPowFloat32(t *testing.T) {
	p := Pow[float32]()
	got := p.Scalar(2, 10)
	if math.Abs(float64(got)-1024) > 1e-2 {
		t.Fatalf("2^10 = %v, want ~1024", got)
	}
}
