// Package xerr defines the typed error taxonomy shared across the engine.
//
// Every error returned from a public entry point is one of the four
// families below. Callers match on kind with errors.As, not by string
// comparison.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Family names the broad error taxonomy a Kind belongs to.
type Family string

const (
	FamilyAlloc    Family = "AllocError"
	FamilyTensor   Family = "TensorError"
	FamilyPlan     Family = "PlanError"
	FamilyAutograd Family = "AutogradError"
)

// Kind is a specific named variant within a Family.
type Kind string

const (
	BadAlignment   Kind = "BadAlignment"
	OutOfMemory    Kind = "OutOfMemory"
	UnknownPointer Kind = "UnknownPointer"

	ShapeMismatch      Kind = "ShapeMismatch"
	IncompatibleShapes Kind = "IncompatibleShapes"
	RankTooLow         Kind = "RankTooLow"
	AxisOutOfRange     Kind = "AxisOutOfRange"
	DtypeMismatch      Kind = "DtypeMismatch"
	// DeviceMismatch is reserved for a multi-device engine; with only CPU
	// storage implemented, nothing can construct this today.
	DeviceMismatch Kind = "DeviceMismatch"
	OutOfRange     Kind = "OutOfRange"

	// UnsupportedLayout is reserved for a planner that rejects a layout
	// outright; today every layout either hits the GEMM fast path or
	// falls back to the general strided contraction loop, which accepts
	// any stride pattern, so nothing constructs this yet.
	UnsupportedLayout Kind = "UnsupportedLayout"
	LabelMismatch     Kind = "LabelMismatch"

	NoEngineInContext Kind = "NoEngineInContext"
	ArityMismatch     Kind = "ArityMismatch"
	MissingContext    Kind = "MissingContext"
	CycleDetected     Kind = "CycleDetected"
	ValueNotTracked   Kind = "ValueNotTracked"
)

var familyOf = map[Kind]Family{
	BadAlignment:   FamilyAlloc,
	OutOfMemory:    FamilyAlloc,
	UnknownPointer: FamilyAlloc,

	ShapeMismatch:      FamilyTensor,
	IncompatibleShapes: FamilyTensor,
	RankTooLow:         FamilyTensor,
	AxisOutOfRange:     FamilyTensor,
	DtypeMismatch:      FamilyTensor,
	DeviceMismatch:     FamilyTensor,
	OutOfRange:         FamilyTensor,

	UnsupportedLayout: FamilyPlan,
	LabelMismatch:     FamilyPlan,

	NoEngineInContext: FamilyAutograd,
	ArityMismatch:     FamilyAutograd,
	MissingContext:    FamilyAutograd,
	CycleDetected:     FamilyAutograd,
	ValueNotTracked:   FamilyAutograd,
}

// Error is the concrete error type for every taxonomy member.
type Error struct {
	Kind   Kind
	Op     string // the operation or component that raised it, e.g. "Pool.Allocate"
	Detail string
}

func (e *Error) Error() string {
	fam := familyOf[e.Kind]
	if e.Op == "" {
		return fmt.Sprintf("%s: %s: %s", fam, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s: %s", fam, e.Kind, e.Op, e.Detail)
}

// Family reports which of the four taxonomy families this error belongs to.
func (e *Error) Family() Family { return familyOf[e.Kind] }

// New builds an *Error with the given kind, raising op and detail message.
func New(kind Kind, op, detail string) error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Newf is New with a formatted detail message.
func Newf(kind Kind, op, format string, args ...any) error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

// Wrap attaches op/detail context to an existing error without losing the
// original cause, using pkg/errors so callers can still errors.Cause() down
// to the root.
func Wrap(err error, kind Kind, op, detail string) error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: kind, Op: op, Detail: detail}
	return errors.Wrap(err, e.Error())
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
