package binding

import (
	"github.com/csotherden/nova/autograd"
	"github.com/csotherden/nova/internal/autograd/graph"
	"github.com/csotherden/nova/tensor"
)

// refHandle is the reference TensorHandle: a value identifier plus the
// shape/dtype metadata a binding would marshal without touching the
// engine directly.
type refHandle struct {
	id    graph.ValueID
	shape []int64
	dtype string
}

// NewHandle wraps a tracked tensor's identifier as a TensorHandle.
func NewHandle(id graph.ValueID, t *tensor.Tensor) TensorHandle {
	return &refHandle{id: id, shape: t.Shape(), dtype: t.DType().String()}
}

func (h *refHandle) ValueID() graph.ValueID { return h.id }
func (h *refHandle) Shape() []int64         { return h.shape }
func (h *refHandle) DType() string          { return h.dtype }

// refAutodiff is the reference Autodiff accessor, backed by toggling a
// NoGradGuard on the underlying engine.
type refAutodiff struct {
	eng   *autograd.Engine
	guard *autograd.NoGradGuard
}

// NewAutodiff returns an Autodiff view over eng. Creating the view leaves
// the engine's enabled state as it was.
func NewAutodiff(eng *autograd.Engine) Autodiff {
	return &refAutodiff{eng: eng}
}

// Enabled reads the engine's own state rather than this accessor's local
// guard, so two independent Autodiff/GradTape views of the same engine
// never disagree about whether recording is on.
func (a *refAutodiff) Enabled() bool { return a.eng.GradEnabled() }

func (a *refAutodiff) SetEnabled(v bool) {
	if v {
		if a.guard != nil {
			a.guard.Close()
			a.guard = nil
		}
		return
	}
	if a.guard == nil {
		a.guard = autograd.NewNoGradGuard(a.eng)
	}
}

// refGradTape is the reference GradTape: Enter/Exit bracket a scope in
// which autodiff is forced on, restoring the engine's prior state on
// Exit — the boundary's equivalent of a Python `with tape:` block.
//
// It sets the engine's tracing flag directly rather than going through
// a NoGradGuard, since a guard only restores state to whoever owns it;
// a GradTape needs to force recording on and put back whatever state it
// found, even if that state was set by some other Autodiff accessor on
// the same engine.
type refGradTape struct {
	eng        *autograd.Engine
	open       bool
	wasEnabled bool
}

// NewGradTape returns a GradTape bracketing recording scopes on eng.
func NewGradTape(eng *autograd.Engine) GradTape {
	return &refGradTape{eng: eng}
}

func (t *refGradTape) Enter() {
	t.wasEnabled = t.eng.SetGradEnabled(true)
	t.open = true
}

func (t *refGradTape) Exit() error {
	t.eng.SetGradEnabled(t.wasEnabled)
	t.open = false
	return nil
}
