// Package knot validates knot vectors and converts B-spline control
// polygons to piecewise Bézier form by Boehm knot insertion.
package knot

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/nurbs/pkg/nurbs"
)

// Tolerance is the absolute distance below which two knots are identical.
const Tolerance = 1.0e-5

// Identical reports whether two knot values are within Tolerance.
func Identical(x, y float64) bool {
	return math.Abs(x-y) < Tolerance
}

// Code identifies the reason a knot vector was rejected.
type Code int

const (
	CodeOK Code = iota
	CodeOrderUnsupported
	CodeTooFewKnots
	CodeEmptyRange
	CodeDecreasing
	CodeMultiplicity
)

var (
	ErrOrderUnsupported = errors.New("spline order un-supported")
	ErrTooFewKnots      = errors.New("too few knots")
	ErrEmptyRange       = errors.New("valid knot range is empty")
	ErrDecreasing       = errors.New("decreasing knot sequence")
	ErrMultiplicity     = errors.New("knot multiplicity greater than order of spline")
)

var codeErrors = map[Code]error{
	CodeOrderUnsupported: ErrOrderUnsupported,
	CodeTooFewKnots:      ErrTooFewKnots,
	CodeEmptyRange:       ErrEmptyRange,
	CodeDecreasing:       ErrDecreasing,
	CodeMultiplicity:     ErrMultiplicity,
}

func (c Code) String() string {
	if c == CodeOK {
		return "ok"
	}
	if err, ok := codeErrors[c]; ok {
		return err.Error()
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// ValidationError reports a rejected knot vector.
type ValidationError struct {
	Code  Code
	Order int
	Count int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("knot: %s (order %d, %d knots)", e.Code, e.Order, e.Count)
}

func (e *ValidationError) Unwrap() error {
	return codeErrors[e.Code]
}

// CodeOf returns the validation code carried by err, CodeOK for nil.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return -1
}

// KnotVector is a knot sequence with the order of the spline it belongs to
// and the stride, in float64s, between that spline's control points.
type KnotVector struct {
	Order  int
	Knots  []float64
	Stride int
}

// New returns a knot vector. The knots are used as given; callers must not
// change them afterwards.
func New(order int, knots []float64, stride int) KnotVector {
	return KnotVector{Order: order, Knots: knots, Stride: stride}
}

// Len is the number of knots.
func (kv KnotVector) Len() int { return len(kv.Knots) }

// Validate checks the order bounds, the knot count, that the valid range is
// not empty, that the knots never decrease and that no multiplicity
// exceeds the order. It returns a *ValidationError on failure.
func (kv KnotVector) Validate() error {
	n := len(kv.Knots)
	fail := func(c Code) error {
		return &ValidationError{Code: c, Order: kv.Order, Count: n}
	}

	if kv.Order < 1 || kv.Order > nurbs.MaxOrder {
		return fail(CodeOrderUnsupported)
	}
	if n < 2*kv.Order {
		return fail(CodeTooFewKnots)
	}

	last := n - 1
	if Identical(kv.Knots[last-(kv.Order-1)], kv.Knots[kv.Order-1]) {
		return fail(CodeEmptyRange)
	}

	for i := 0; i < last; i++ {
		if kv.Knots[i] > kv.Knots[i+1] {
			return fail(CodeDecreasing)
		}
	}

	multi := 1
	for k := last; k >= 1; k-- {
		if Identical(kv.Knots[k], kv.Knots[k-1]) {
			multi++
			continue
		}
		if multi > kv.Order {
			return fail(CodeMultiplicity)
		}
		multi = 1
	}
	if multi > kv.Order {
		return fail(CodeMultiplicity)
	}
	return nil
}

// Domain returns the valid parameter range [knots[order-1], knots[n-order]].
func (kv KnotVector) Domain() (lo, hi float64) {
	return kv.Knots[kv.Order-1], kv.Knots[len(kv.Knots)-kv.Order]
}

// NumControlPoints is the number of control points the vector expects.
func (kv KnotVector) NumControlPoints() int {
	return len(kv.Knots) - kv.Order
}
