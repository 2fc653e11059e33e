package quilt

import (
	"errors"
	"fmt"

	"github.com/chazu/nurbs/pkg/knot"
	"github.com/chazu/nurbs/pkg/nurbs"
)

var (
	// ErrUnsupportedDimension is returned for control points with more
	// than nurbs.MaxCoords coordinates.
	ErrUnsupportedDimension = errors.New("quilt: unsupported dimensionality")
	// ErrShortControlPoints is returned when the control point buffer is
	// smaller than the knot vectors and strides require.
	ErrShortControlPoints = errors.New("quilt: too few control points")
)

// SplineSpec converts a B-spline control mesh of one or two parametric
// dimensions to Bézier form.
type SplineSpec struct {
	dim     int
	kspec   *knot.KnotSpec
	outcpts []float64
}

// NewSplineSpec returns a spec for dim parametric dimensions.
func NewSplineSpec(dim int) *SplineSpec {
	return &SplineSpec{dim: dim}
}

// KspecInit wires one knot vector per dimension, outermost first.
func (s *SplineSpec) KspecInit(kvs ...knot.KnotVector) {
	var prev *knot.KnotSpec
	for _, kv := range kvs {
		ks := knot.NewKnotSpec(kv)
		if prev == nil {
			s.kspec = ks
		} else {
			prev.Next = ks
		}
		prev = ks
	}
}

// Select computes breakpoints and insertion factors for every dimension.
func (s *SplineSpec) Select() {
	for ks := s.kspec; ks != nil; ks = ks.Next {
		ks.Preselect()
		ks.Select()
	}
}

// Layout assigns output strides and allocates the shared output buffer.
func (s *SplineSpec) Layout(ncoords int) error {
	if ncoords < 1 || ncoords > nurbs.MaxCoords {
		return fmt.Errorf("%w: %d coordinates", ErrUnsupportedDimension, ncoords)
	}
	stride := ncoords
	for ks := s.kspec; ks != nil; ks = ks.Next {
		stride = ks.Layout(stride, ncoords)
	}
	s.outcpts = make([]float64, stride)
	return nil
}

// SetupQuilt hands the layout, breakpoints and output buffer to q.
func (s *SplineSpec) SetupQuilt(q *Quilt) {
	q.Qspec = q.Qspec[:0]
	for ks := s.kspec; ks != nil; ks = ks.Next {
		bpts := ks.Breakpoints()
		qs := Quiltspec{
			Order:       ks.Order,
			Stride:      ks.Poststride,
			Width:       ks.Segments(),
			Offset:      ks.Postoffset,
			Bdry:        [2]bool{true, true},
			Breakpoints: make([]float64, len(bpts)),
		}
		for i, bp := range bpts {
			qs.Breakpoints[i] = bp.Value
		}
		q.Qspec = append(q.Qspec, qs)
	}
	q.Cpts = s.outcpts
	q.Next = nil
}

// Copy moves the input control points into the output layout.
func (s *SplineSpec) Copy(ctlpts []float64) {
	s.kspec.Copy(ctlpts, 0, s.outcpts, 0)
}

// Transform inserts knots along each dimension in turn.
func (s *SplineSpec) Transform() {
	for ks := s.kspec; ks != nil; ks = ks.Next {
		ks.MarkTransformed(false)
	}
	for ks := s.kspec; ks != nil; ks = ks.Next {
		s.kspec.SetTarget(ks)
		s.kspec.Transform(s.outcpts, 0)
		ks.MarkTransformed(true)
	}
}

// checkExtent reports whether ctlpts holds every control point the knot
// vectors address.
func checkExtent(ctlpts []float64, ncoords int, kvs ...knot.KnotVector) error {
	need := ncoords
	for _, kv := range kvs {
		need += (kv.NumControlPoints() - 1) * kv.Stride
	}
	if len(ctlpts) < need {
		return fmt.Errorf("%w: have %d values, need %d", ErrShortControlPoints, len(ctlpts), need)
	}
	return nil
}
