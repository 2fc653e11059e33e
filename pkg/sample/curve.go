// Package sample decides how finely a Bézier piece is sampled: step sizes
// from the map's sampling method, clamping, culling and whether a range
// must be split further before it can be drawn.
package sample

import (
	"math"

	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/quilt"
)

// stride between points of the sampling and culling buffers.
const stride = nurbs.MaxHCoords

// Curve is one curve segment restricted to a parameter range, with its
// control points in sampling space and culling space.
type Curve struct {
	mapdesc       *nurbs.Mapdesc
	needsSampling bool
	cullval       nurbs.CullResult
	order         int
	spts          []float64
	cpts          []float64

	// Range is {start, end, end-start}.
	Range       [3]float64
	Stepsize    float64
	Minstepsize float64
}

// NewCurve selects the segment of q holding [pta, ptb] and clips it to
// that range.
func NewCurve(q *quilt.Quilt, pta, ptb float64) *Curve {
	md := q.Mapdesc
	qs := q.Qspec[0]
	c := &Curve{
		mapdesc:       md,
		needsSampling: md.IsRangeSampling(),
		cullval:       nurbs.CullTrivialAccept,
		order:         qs.Order,
	}
	if md.IsCulling() {
		c.cullval = nurbs.CullAccept
	}

	q.Select([]float64{pta}, []float64{ptb})
	qs = q.Qspec[0]
	ps := q.Segment()
	if c.needsSampling {
		c.spts = make([]float64, c.order*stride)
		md.Xform1(&md.SamplingMatrix, ps, qs.Order, qs.Stride, c.spts, stride)
	}
	if c.cullval == nurbs.CullAccept {
		c.cpts = make([]float64, c.order*stride)
		md.Xform1(&md.CullingMatrix, ps, qs.Order, qs.Stride, c.cpts, stride)
	}

	c.Range[0] = qs.Breakpoints[qs.Index]
	c.Range[1] = qs.Breakpoints[qs.Index+1]
	c.Range[2] = c.Range[1] - c.Range[0]

	if c.Range[1] != ptb {
		*c = *c.split(ptb)
	}
	if c.Range[0] != pta {
		c.split(pta)
	}
	return c
}

// split cuts c at value. c keeps the upper part and the lower part is
// returned.
func (c *Curve) split(value float64) *Curve {
	lower := &Curve{
		mapdesc:       c.mapdesc,
		needsSampling: c.needsSampling,
		cullval:       c.cullval,
		order:         c.order,
	}
	d := (value - c.Range[0]) / c.Range[2]
	if c.needsSampling {
		lower.spts = make([]float64, len(c.spts))
		c.mapdesc.Subdivide(c.spts, lower.spts, d, stride, c.order)
	}
	if c.cullval == nurbs.CullAccept {
		lower.cpts = make([]float64, len(c.cpts))
		c.mapdesc.Subdivide(c.cpts, lower.cpts, d, stride, c.order)
	}
	lower.Range = [3]float64{c.Range[0], value, value - c.Range[0]}
	c.Range[0] = value
	c.Range[2] = c.Range[1] - value
	return lower
}

// CullCheck tests the culling points once; later calls return the cached
// verdict.
func (c *Curve) CullCheck() nurbs.CullResult {
	if c.cullval == nurbs.CullAccept {
		c.cullval = c.mapdesc.CullCheck(c.cpts, c.order, stride)
	}
	return c.cullval
}

func (c *Curve) setStepsize(max float64) {
	if max >= 1 {
		c.Stepsize = c.Range[2] / max
	} else {
		c.Stepsize = c.Range[2]
	}
	c.Minstepsize = c.Stepsize
}

// GetStepSize computes the step size and the smallest step the map's rate
// allows.
func (c *Curve) GetStepSize() {
	md := c.mapdesc
	c.Minstepsize = 0
	switch {
	case md.IsConstantSampling():
		c.setStepsize(md.MaxRate())
	case md.IsDomainSampling():
		c.setStepsize(md.MaxRate() * c.Range[2])
	case !c.needsSampling:
		c.Stepsize = c.Range[2]
		c.Minstepsize = c.Range[2]
	default:
		var tmp [nurbs.MaxOrder * nurbs.MaxCoords]float64
		if !md.Project(c.spts, stride, tmp[:], nurbs.MaxCoords, c.order) {
			c.setStepsize(md.MaxRate())
			return
		}
		tol := md.PixelTolerance
		partial := 1
		if md.IsParametricDistanceSampling() {
			partial = 2
		}
		d := md.CalcPartialVelocity(tmp[:], nurbs.MaxCoords, c.order, partial, c.Range[2])
		switch {
		case d <= 0:
			c.Stepsize = c.Range[2]
		case partial == 2:
			c.Stepsize = math.Sqrt(8 * tol / d)
		default:
			c.Stepsize = tol / d
		}
		if rate := md.MaxRate(); rate > 0 {
			c.Minstepsize = c.Range[2] / rate
		}
	}
}

// Clamp raises a step below the minimum to clampfactor times the minimum.
func (c *Curve) Clamp() {
	f := c.mapdesc.ClampFactor
	if f != nurbs.NoClamping && c.Stepsize < c.Minstepsize {
		c.Stepsize = f * c.Minstepsize
	}
}

// NeedsSamplingSubdivision reports whether the step is below the minimum.
func (c *Curve) NeedsSamplingSubdivision() bool {
	return c.Stepsize < c.Minstepsize
}

// Curvelist is the set of curves, one per quilt, covering one range.
type Curvelist struct {
	curves []*Curve

	Range            [3]float64
	Stepsize         float64
	needsSubdivision bool
}

// NewCurvelist builds one Curve per quilt in the chain over [pta, ptb].
func NewCurvelist(q *quilt.Quilt, pta, ptb float64) *Curvelist {
	l := &Curvelist{Range: [3]float64{pta, ptb, ptb - pta}}
	for m := q; m != nil; m = m.Next {
		l.curves = append(l.curves, NewCurve(m, pta, ptb))
	}
	return l
}

// Split cuts the list at value. l keeps the upper part and the lower part
// is returned.
func (l *Curvelist) Split(value float64) *Curvelist {
	lower := &Curvelist{
		Range: [3]float64{l.Range[0], value, value - l.Range[0]},
	}
	for _, c := range l.curves {
		lower.curves = append(lower.curves, c.split(value))
	}
	l.Range[0] = value
	l.Range[2] = l.Range[1] - value
	return lower
}

// Len is the number of curves in the list.
func (l *Curvelist) Len() int { return len(l.curves) }

// CullCheck rejects the list when any curve is trivially rejected.
func (l *Curvelist) CullCheck() nurbs.CullResult {
	for _, c := range l.curves {
		if c.CullCheck() == nurbs.CullTrivialReject {
			return nurbs.CullTrivialReject
		}
	}
	return nurbs.CullAccept
}

// GetStepSize takes the smallest step over the curves, stopping at the
// first curve that needs subdivision.
func (l *Curvelist) GetStepSize() {
	l.Stepsize = l.Range[2]
	l.needsSubdivision = false
	for _, c := range l.curves {
		c.GetStepSize()
		c.Clamp()
		if c.Stepsize < l.Stepsize {
			l.Stepsize = c.Stepsize
		}
		if c.NeedsSamplingSubdivision() {
			l.needsSubdivision = true
			break
		}
	}
}

// NeedsSamplingSubdivision reports the result of the last GetStepSize.
func (l *Curvelist) NeedsSamplingSubdivision() bool { return l.needsSubdivision }
