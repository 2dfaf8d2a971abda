// Package binding declares the language-embedding seam kept out of
// scope as a full implementation ("no scripting front-end") while
// still giving a future cgo/Python shim a concrete shape to bind
// against. This is an interface boundary only; no runtime is vendored
// here.
package binding

import "github.com/csotherden/nova/internal/autograd/graph"

// TensorHandle is the opaque reference a foreign-language binding would
// hold onto for a tracked value: the value identifier it can pass back
// into Autodiff/GradTape calls, plus enough shape/dtype metadata to
// marshal data across the boundary without reaching into the engine.
type TensorHandle interface {
	ValueID() graph.ValueID
	Shape() []int64
	DType() string
}

// GradTape is the context-manager equivalent a Python-style `with`
// block would bind to: Enter opens a recording scope, Exit closes it and
// returns an error if the scope could not be closed. Exit does not report
// what happened inside the scope.
type GradTape interface {
	Enter()
	Exit() error
}

// Autodiff is the enabled-state accessor a binding would expose as a
// property: Enabled() reads the current state, SetEnabled(v) toggles it
// (the boundary's view of NoGradGuard).
type Autodiff interface {
	Enabled() bool
	SetEnabled(v bool)
}
