package kernel

// binaryOp wraps a plain two-argument function as a Binary trait. The
// contiguous loop is unrolled four at a time (see types.go); the
// remainder runs one element at a time.
type binaryOp[T Float] struct {
	fn func(a, b T) T
}

func (k binaryOp[T]) Scalar(a, b T) T { return k.fn(a, b) }

func (k binaryOp[T]) ExecuteContiguous(a, b, out []T, aIsScalar, bIsScalar bool) {
	n := len(out)
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = k.fn(pick(a, aIsScalar, i), pick(b, bIsScalar, i))
		out[i+1] = k.fn(pick(a, aIsScalar, i+1), pick(b, bIsScalar, i+1))
		out[i+2] = k.fn(pick(a, aIsScalar, i+2), pick(b, bIsScalar, i+2))
		out[i+3] = k.fn(pick(a, aIsScalar, i+3), pick(b, bIsScalar, i+3))
	}
	for ; i < n; i++ {
		out[i] = k.fn(pick(a, aIsScalar, i), pick(b, bIsScalar, i))
	}
}

func pick[T Float](s []T, isScalar bool, i int) T {
	if isScalar {
		return s[0]
	}
	return s[i]
}

type unaryOp[T Float] struct {
	fn func(a T) T
}

func (k unaryOp[T]) Scalar(a T) T { return k.fn(a) }

func (k unaryOp[T]) ExecuteContiguous(a, out []T, aIsScalar bool) {
	n := len(out)
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = k.fn(pick(a, aIsScalar, i))
		out[i+1] = k.fn(pick(a, aIsScalar, i+1))
		out[i+2] = k.fn(pick(a, aIsScalar, i+2))
		out[i+3] = k.fn(pick(a, aIsScalar, i+3))
	}
	for ; i < n; i++ {
		out[i] = k.fn(pick(a, aIsScalar, i))
	}
}

// Add, Sub, Mul, Div, Max and Greater are the arithmetic and comparison
// kernel traits used by the elementwise tensor ops and their gradients.
// Greater follows the autodiff convention of returning 1/0 rather than a
// bool so its output can share the tensor's own dtype.

func Add[T Float]() Binary[T] { return binaryOp[T]{fn: func(a, b T) T { return a + b }} }
func Sub[T Float]() Binary[T] { return binaryOp[T]{fn: func(a, b T) T { return a - b }} }
func Mul[T Float]() Binary[T] { return binaryOp[T]{fn: func(a, b T) T { return a * b }} }
func Div[T Float]() Binary[T] { return binaryOp[T]{fn: func(a, b T) T { return a / b }} }

func Max[T Float]() Binary[T] {
	return binaryOp[T]{fn: func(a, b T) T {
		if a > b {
			return a
		}
		return b
	}}
}

func Greater[T Float]() Binary[T] {
	return binaryOp[T]{fn: func(a, b T) T {
		if a > b {
			return 1
		}
		return 0
	}}
}

func GreaterEqual[T Float]() Binary[T] {
	return binaryOp[T]{fn: func(a, b T) T {
		if a >= b {
			return 1
		}
		return 0
	}}
}

// Pow is the elementwise power kernel, dispatched through chewxy/math32
// for float32 so it never promotes to float64 under the hood.
func Pow[T Float]() Binary[T] { return binaryOp[T]{fn: powT[T]} }

// Neg, Exp, Log and Sqrt are the unary kernel traits.

func Neg[T Float]() Unary[T]  { return unaryOp[T]{fn: func(a T) T { return -a }} }
func Exp[T Float]() Unary[T]  { return unaryOp[T]{fn: expT[T]} }
func Log[T Float]() Unary[T]  { return unaryOp[T]{fn: logT[T]} }
func Sqrt[T Float]() Unary[T] { return unaryOp[T]{fn: sqrtT[T]} }
