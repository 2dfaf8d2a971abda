package ops

import (
	"testing"

	"gorgonia.org/dawson"

	"github.com/csotherden/nova/tensor"
)

// sumAll reduces a flat float32 slice to a scalar loss, standing in for
// a final Sum node without going through the engine.
func sumAll(xs []float32) float32 {
	var s float32
	for _, x := range xs {
		s += x
	}
	return s
}

// centralDiff perturbs data[i] by +-eps and returns the central-difference
// estimate of d(loss)/d(data[i]), where loss evaluates forward(data) and
// reduces the result to a scalar via sumAll.
func centralDiff(t *testing.T, shape []int64, data []float32, i int, eps float32,
	forward func(x *tensor.Tensor) (*tensor.Tensor, error)) float32 {
	t.Helper()

	eval := func(perturbed []float32) float32 {
		x, err := tensor.FromFloat32(tensor.DefaultPool, shape, perturbed)
		if err != nil {
			t.Fatal(err)
		}
		defer x.Release()
		y, err := forward(x)
		if err != nil {
			t.Fatal(err)
		}
		defer y.Release()
		return sumAll(collect(t, y))
	}

	plus := append([]float32(nil), data...)
	plus[i] += eps
	minus := append([]float32(nil), data...)
	minus[i] -= eps

	return (eval(plus) - eval(minus)) / (2 * eps)
}

// TestMulGradCheck verifies Mul's analytic backward against a
// finite-difference estimate (epsilon = 1e-3, float32).
func TestMulGradCheck(t *testing.T) {
	const eps = 1e-3
	op, _ := Get("Mul")

	aData := []float32{1, 2, 3, 4}
	bData := []float32{5, 6, 7, 8}
	shape := []int64{4}

	a, _ := tensor.FromFloat32(tensor.DefaultPool, shape, aData)
	defer a.Release()
	b, _ := tensor.FromFloat32(tensor.DefaultPool, shape, bData)
	defer b.Release()

	ctx := NewContext()
	out, err := op.Forward(ctx, []*tensor.Tensor{a, b}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer out[0].Release()

	seed, _ := tensor.Ones(shape, tensor.Float32)
	defer seed.Release()
	grads, err := op.Backward(ctx, []*tensor.Tensor{seed})
	if err != nil {
		t.Fatal(err)
	}
	defer grads[0].Release()
	defer grads[1].Release()

	analyticA := collect(t, grads[0])
	for i := range aData {
		numeric := centralDiff(t, shape, aData, i, eps, func(x *tensor.Tensor) (*tensor.Tensor, error) {
			fctx := NewContext()
			outs, err := op.Forward(fctx, []*tensor.Tensor{x, b}, nil)
			return outs[0], err
		})
		if !dawson.ToleranceF32(analyticA[i], numeric, 1e-2) {
			t.Fatalf("dA[%d]: analytic %v numeric %v", i, analyticA[i], numeric)
		}
	}

	analyticB := collect(t, grads[1])
	for i := range bData {
		numeric := centralDiff(t, shape, bData, i, eps, func(x *tensor.Tensor) (*tensor.Tensor, error) {
			fctx := NewContext()
			outs, err := op.Forward(fctx, []*tensor.Tensor{a, x}, nil)
			return outs[0], err
		})
		if !dawson.ToleranceF32(analyticB[i], numeric, 1e-2) {
			t.Fatalf("dB[%d]: analytic %v numeric %v", i, analyticB[i], numeric)
		}
	}
}

// TestExpGradCheck verifies Exp's analytic backward against a
// finite-difference estimate.
func TestExpGradCheck(t *testing.T) {
	const eps = 1e-3
	op, _ := Get("Exp")

	aData := []float32{0.1, 0.5, -0.3, 1.2}
	shape := []int64{4}

	a, _ := tensor.FromFloat32(tensor.DefaultPool, shape, aData)
	defer a.Release()

	ctx := NewContext()
	out, err := op.Forward(ctx, []*tensor.Tensor{a}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer out[0].Release()

	seed, _ := tensor.Ones(shape, tensor.Float32)
	defer seed.Release()
	grads, err := op.Backward(ctx, []*tensor.Tensor{seed})
	if err != nil {
		t.Fatal(err)
	}
	defer grads[0].Release()

	analytic := collect(t, grads[0])
	for i := range aData {
		numeric := centralDiff(t, shape, aData, i, eps, func(x *tensor.Tensor) (*tensor.Tensor, error) {
			fctx := NewContext()
			outs, err := op.Forward(fctx, []*tensor.Tensor{x}, nil)
			return outs[0], err
		})
		if !dawson.ToleranceF32(analytic[i], numeric, 1e-2) {
			t.Fatalf("d[%d]: analytic %v numeric %v", i, analytic[i], numeric)
		}
	}
}

// TestMatMulGradCheck verifies MatMul's analytic backward against a
// finite-difference estimate.
func TestMatMulGradCheck(t *testing.T) {
	const eps = 1e-3
	op, _ := Get("MatMul")

	aData := []float32{1, 2, 3, 4}
	bData := []float32{5, 6, 7, 8}
	shape := []int64{2, 2}

	a, _ := tensor.FromFloat32(tensor.DefaultPool, shape, aData)
	defer a.Release()
	b, _ := tensor.FromFloat32(tensor.DefaultPool, shape, bData)
	defer b.Release()

	ctx := NewContext()
	out, err := op.Forward(ctx, []*tensor.Tensor{a, b}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer out[0].Release()

	seed, _ := tensor.Ones(out[0].Shape(), tensor.Float32)
	defer seed.Release()
	grads, err := op.Backward(ctx, []*tensor.Tensor{seed})
	if err != nil {
		t.Fatal(err)
	}
	defer grads[0].Release()
	defer grads[1].Release()

	analyticA := collect(t, grads[0])
	for i := range aData {
		numeric := centralDiff(t, shape, aData, i, eps, func(x *tensor.Tensor) (*tensor.Tensor, error) {
			fctx := NewContext()
			outs, err := op.Forward(fctx, []*tensor.Tensor{x, b}, nil)
			return outs[0], err
		})
		if !dawson.ToleranceF32(analyticA[i], numeric, 5e-2) {
			t.Fatalf("dA[%d]: analytic %v numeric %v", i, analyticA[i], numeric)
		}
	}
}
