// Package quilt holds NURBS maps converted to piecewise Bézier form and the
// per-dimension layout needed to hand single pieces to a backend.
package quilt

import (
	"fmt"

	"github.com/chazu/nurbs/pkg/backend"
	"github.com/chazu/nurbs/pkg/knot"
	"github.com/chazu/nurbs/pkg/nurbs"
)

// Quiltspec is the layout of one parametric dimension of a Quilt.
type Quiltspec struct {
	Order  int
	Stride int // float64s between consecutive points
	Width  int // number of Bézier segments
	Offset int // float64s before the first segment
	Index  int // currently selected segment

	// Bdry records whether the first and last breakpoints are the ends
	// of the original knot vector. Conversion always covers the whole
	// vector, so both are set.
	Bdry        [2]bool
	Breakpoints []float64
}

// Quilt is one map converted to Bézier segments. Quilts sharing a domain
// are chained through Next.
type Quilt struct {
	Mapdesc *nurbs.Mapdesc
	Qspec   []Quiltspec
	Cpts    []float64
	Next    *Quilt
}

// New returns an empty quilt for the map described by md.
func New(md *nurbs.Mapdesc) *Quilt {
	return &Quilt{Mapdesc: md}
}

// Dimension is the number of parametric dimensions (1 or 2).
func (q *Quilt) Dimension() int { return len(q.Qspec) }

// ToBezierCurve converts a B-spline curve. ctlpts holds ncoords values per
// control point, kv.Stride apart.
func (q *Quilt) ToBezierCurve(kv knot.KnotVector, ctlpts []float64, ncoords int) error {
	if err := kv.Validate(); err != nil {
		return err
	}
	if err := checkExtent(ctlpts, ncoords, kv); err != nil {
		return err
	}
	return q.toBezier(ctlpts, ncoords, kv)
}

// ToBezierSurface converts a B-spline surface. The s knot vector's stride
// walks between rows, the t knot vector's stride within a row.
func (q *Quilt) ToBezierSurface(skv, tkv knot.KnotVector, ctlpts []float64, ncoords int) error {
	if err := skv.Validate(); err != nil {
		return fmt.Errorf("s knots: %w", err)
	}
	if err := tkv.Validate(); err != nil {
		return fmt.Errorf("t knots: %w", err)
	}
	if err := checkExtent(ctlpts, ncoords, skv, tkv); err != nil {
		return err
	}
	return q.toBezier(ctlpts, ncoords, skv, tkv)
}

func (q *Quilt) toBezier(ctlpts []float64, ncoords int, kvs ...knot.KnotVector) error {
	spline := NewSplineSpec(len(kvs))
	spline.KspecInit(kvs...)
	spline.Select()
	if err := spline.Layout(ncoords); err != nil {
		return err
	}
	spline.SetupQuilt(q)
	spline.Copy(ctlpts)
	spline.Transform()
	return nil
}

// Append adds n to the end of the chain starting at q.
func (q *Quilt) Append(n *Quilt) {
	m := q
	for m.Next != nil {
		m = m.Next
	}
	m.Next = n
}

// GetRange merges the breakpoints of every quilt in the chain into one
// list per dimension, clipped to the domain all of them share, and
// returns that domain.
func (q *Quilt) GetRange(lists ...*Flist) (from, to [2]float64) {
	for i, list := range lists {
		if i >= len(q.Qspec) {
			break
		}
		from[i], to[i] = q.getRange(i, list)
	}
	return from, to
}

func (q *Quilt) getRange(i int, list *Flist) (from, to float64) {
	qs := q.Qspec[i]
	from = qs.Breakpoints[0]
	to = qs.Breakpoints[qs.Width]
	for m := q; m != nil; m = m.Next {
		ms := m.Qspec[i]
		if ms.Breakpoints[0] > from {
			from = ms.Breakpoints[0]
		}
		if ms.Breakpoints[ms.Width] < to {
			to = ms.Breakpoints[ms.Width]
		}
	}
	for m := q; m != nil; m = m.Next {
		for _, bp := range m.Qspec[i].Breakpoints {
			list.Add(bp)
		}
	}
	list.Filter()
	list.Taper(from, to)
	return from, to
}

// Select picks, per dimension, the segment whose breakpoint interval holds
// [pta, ptb]. A range outside every segment is a caller bug and panics.
func (q *Quilt) Select(pta, ptb []float64) {
	for i := range q.Qspec {
		qs := &q.Qspec[i]
		j := qs.Width - 1
		for ; j >= 0; j-- {
			if qs.Breakpoints[j] <= pta[i] && ptb[i] <= qs.Breakpoints[j+1] {
				break
			}
		}
		if j < 0 {
			panic(fmt.Sprintf("quilt: range [%v, %v] outside every segment of dimension %d", pta[i], ptb[i], i))
		}
		qs.Index = j
	}
}

// Segment returns the control points of the selected piece, starting at
// its first point.
func (q *Quilt) Segment() []float64 {
	off := 0
	for _, qs := range q.Qspec {
		off += qs.Offset + qs.Index*qs.Order*qs.Stride
	}
	return q.Cpts[off:]
}

// Download hands the selected piece to b.
func (q *Quilt) Download(b *backend.Backend) {
	pts := q.Segment()
	typ := q.Mapdesc.Type
	s := q.Qspec[0]
	if q.Dimension() == 2 {
		t := q.Qspec[1]
		b.Surfpts(typ, pts, s.Stride, t.Stride, s.Order, t.Order,
			s.Breakpoints[s.Index], s.Breakpoints[s.Index+1],
			t.Breakpoints[t.Index], t.Breakpoints[t.Index+1])
		return
	}
	b.Curvpts(typ, pts, s.Stride, s.Order, s.Breakpoints[s.Index], s.Breakpoints[s.Index+1])
}

// DownloadAll selects and downloads the piece holding [pta, ptb] for every
// quilt in the chain.
func (q *Quilt) DownloadAll(pta, ptb []float64, b *backend.Backend) {
	for m := q; m != nil; m = m.Next {
		m.Select(pta, ptb)
		m.Download(b)
	}
}

// IsCulled runs the culling test over the whole control mesh when culling
// is enabled for the map.
func (q *Quilt) IsCulled() nurbs.CullResult {
	md := q.Mapdesc
	if !md.IsCulling() {
		return nurbs.CullAccept
	}
	s := q.Qspec[0]
	nrows, rstride := s.Order*s.Width, s.Stride
	ncols, cstride := 1, 0
	off := s.Offset
	if q.Dimension() == 2 {
		t := q.Qspec[1]
		ncols, cstride = t.Order*t.Width, t.Stride
		off += t.Offset
	}
	buf := make([]float64, nrows*ncols*nurbs.MaxHCoords)
	md.Xform2(&md.CullingMatrix, q.Cpts[off:], nrows, rstride, ncols, cstride,
		buf, ncols*nurbs.MaxHCoords, nurbs.MaxHCoords)
	return md.CullCheck(buf, nrows*ncols, nurbs.MaxHCoords)
}

// ChainCulled reports whether any quilt in the chain is trivially rejected.
func ChainCulled(q *Quilt) bool {
	for m := q; m != nil; m = m.Next {
		if m.IsCulled() == nurbs.CullTrivialReject {
			return true
		}
	}
	return false
}
