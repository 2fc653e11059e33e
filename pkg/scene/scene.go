// Package scene defines the objects handed to the tessellator: NURBS
// curves and surfaces, their trim loops, render hints and per-map
// sampling properties.
package scene

import (
	"fmt"

	"github.com/chazu/nurbs/pkg/knot"
	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/quilt"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum of v and w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// IsZero reports whether every component is zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Transform places an object. Rotation holds Euler angles in degrees,
// applied before the translation.
type Transform struct {
	Translation Vec3 `json:"translation"`
	Rotation    Vec3 `json:"rotation"`
}

// IsIdentity reports whether the transform leaves the object in place.
func (t Transform) IsIdentity() bool {
	return t.Translation.IsZero() && t.Rotation.IsZero()
}

// Map is one NURBS map of an object. Ctrl holds Type.Coords() values per
// control point; SStride is the distance between consecutive control
// points along s, TStride along t.
type Map struct {
	Type    nurbs.MapType `json:"type"`
	SOrder  int           `json:"sOrder"`
	SKnots  []float64     `json:"sKnots"`
	SStride int           `json:"sStride"`
	TOrder  int           `json:"tOrder,omitempty"`
	TKnots  []float64     `json:"tKnots,omitempty"`
	TStride int           `json:"tStride,omitempty"`
	Ctrl    []float64     `json:"ctrl"`
}

// SKnotVector returns the s knot vector of m.
func (m Map) SKnotVector() knot.KnotVector {
	return knot.New(m.SOrder, m.SKnots, m.SStride)
}

// TKnotVector returns the t knot vector of m.
func (m Map) TKnotVector() knot.KnotVector {
	return knot.New(m.TOrder, m.TKnots, m.TStride)
}

// Quilt converts m to Bézier form with descriptor md.
func (m Map) Quilt(md *nurbs.Mapdesc) (*quilt.Quilt, error) {
	q := quilt.New(md)
	var err error
	if m.Type.Dimension() == 2 {
		err = q.ToBezierSurface(m.SKnotVector(), m.TKnotVector(), m.Ctrl, m.Type.Coords())
	} else {
		err = q.ToBezierCurve(m.SKnotVector(), m.Ctrl, m.Type.Coords())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Type, err)
	}
	return q, nil
}

// Curve is a NURBS curve made of one or more maps over a shared domain.
type Curve struct {
	Name      string    `json:"name"`
	Maps      []Map     `json:"maps"`
	Transform Transform `json:"transform"`
}

// Surface is a NURBS surface, optionally trimmed by closed loops in its
// parameter domain. Outer loops run counter-clockwise, holes clockwise.
type Surface struct {
	Name      string    `json:"name"`
	Maps      []Map     `json:"maps"`
	Trims     []Loop    `json:"trims,omitempty"`
	Transform Transform `json:"transform"`
}

// PieceKind distinguishes trim curve representations.
type PieceKind int

const (
	PiecePwl   PieceKind = iota // piecewise linear (s, t) points
	PieceNurbs                  // NURBS curve in the parameter plane
)

func (k PieceKind) String() string {
	switch k {
	case PiecePwl:
		return "pwl"
	case PieceNurbs:
		return "nurbs"
	default:
		return "unknown"
	}
}

// TrimPiece is one curve of a trim loop. A pwl piece lists (s, t) pairs
// in Points. A NURBS piece has Order, Knots and Ctrl with two values per
// control point, or three when Rational.
type TrimPiece struct {
	Kind     PieceKind `json:"kind"`
	Points   []float64 `json:"points,omitempty"`
	Order    int       `json:"order,omitempty"`
	Knots    []float64 `json:"knots,omitempty"`
	Ctrl     []float64 `json:"ctrl,omitempty"`
	Rational bool      `json:"rational,omitempty"`
}

// Coords is the number of values per NURBS control point.
func (p TrimPiece) Coords() int {
	if p.Rational {
		return 3
	}
	return 2
}

// KnotVector returns the knot vector of a NURBS piece.
func (p TrimPiece) KnotVector() knot.KnotVector {
	return knot.New(p.Order, p.Knots, p.Coords())
}

// Quilt converts a NURBS piece to Bézier segments.
func (p TrimPiece) Quilt() (*quilt.Quilt, error) {
	q := quilt.New(nil)
	if err := q.ToBezierCurve(p.KnotVector(), p.Ctrl, p.Coords()); err != nil {
		return nil, err
	}
	return q, nil
}

// Ends returns the first and last parameter-space point of the piece.
func (p TrimPiece) Ends() (start, end [2]float64, err error) {
	switch p.Kind {
	case PiecePwl:
		n := len(p.Points)
		if n < 4 || n%2 != 0 {
			return start, end, fmt.Errorf("pwl trim needs at least two (s, t) pairs, have %d values", n)
		}
		return [2]float64{p.Points[0], p.Points[1]}, [2]float64{p.Points[n-2], p.Points[n-1]}, nil
	case PieceNurbs:
		q, err := p.Quilt()
		if err != nil {
			return start, end, err
		}
		qs := q.Qspec[0]
		c := p.Coords()
		first := q.Cpts[qs.Offset:]
		last := q.Cpts[qs.Offset+((qs.Width-1)*qs.Order+qs.Order-1)*qs.Stride:]
		return dehomogenize(first, c), dehomogenize(last, c), nil
	}
	return start, end, fmt.Errorf("unknown trim piece kind %d", int(p.Kind))
}

func dehomogenize(p []float64, coords int) [2]float64 {
	if coords == 3 && p[2] != 0 {
		return [2]float64{p[0] / p[2], p[1] / p[2]}
	}
	return [2]float64{p[0], p[1]}
}

// Loop is a closed trim loop: each piece starts where the previous one
// ends and the last piece ends at the start of the first.
type Loop struct {
	Pieces []TrimPiece `json:"pieces"`
}

// Property sets one sampling property on the maps of the listed types,
// or on every map type when Types is empty.
type Property struct {
	Types []nurbs.MapType `json:"types,omitempty"`
	Prop  nurbs.Property  `json:"prop"`
	Value float64         `json:"value"`
}

// Scene is everything one tessellation pass draws.
type Scene struct {
	Curves     []Curve           `json:"curves"`
	Surfaces   []Surface         `json:"surfaces"`
	Hints      nurbs.Renderhints `json:"hints"`
	Properties []Property        `json:"properties,omitempty"`
}

// New returns an empty scene with the default render hints.
func New() *Scene {
	return &Scene{Hints: nurbs.DefaultRenderhints()}
}

// Maplist returns the default map descriptors with the scene's properties
// applied in order.
func (s *Scene) Maplist() (*nurbs.Maplist, error) {
	l := nurbs.NewMaplist()
	for _, p := range s.Properties {
		types := p.Types
		if len(types) == 0 {
			types = l.Types()
		}
		if err := l.SetProperty(types, p.Prop, p.Value); err != nil {
			return nil, err
		}
	}
	return l, nil
}
