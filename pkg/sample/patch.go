package sample

import (
	"math"

	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/quilt"
)

// Patchspec is the sampling state of one parametric direction.
type Patchspec struct {
	order  int
	stride int

	// Range is {start, end, end-start}.
	Range            [3]float64
	Stepsize         float64
	Minstepsize      float64
	NeedsSubdivision bool
}

func (ps *Patchspec) setStepsize(max float64) {
	if max >= 1 {
		ps.Stepsize = ps.Range[2] / max
	} else {
		ps.Stepsize = ps.Range[2]
	}
	ps.Minstepsize = ps.Stepsize
}

func (ps *Patchspec) singleStep() {
	ps.Stepsize = math.Abs(ps.Range[2])
}

// limit sets the step to v, no larger than the range.
func (ps *Patchspec) limit(v float64) {
	ps.Stepsize = math.Min(v, ps.Range[2])
}

func (ps *Patchspec) clamp(f float64) {
	if ps.Stepsize < ps.Minstepsize {
		ps.Stepsize = f * ps.Minstepsize
	}
}

// Steps is the number of grid steps that cover the range at the current
// step size, at least one and at most max.
func (ps *Patchspec) Steps(max int) int {
	if ps.Stepsize <= 0 {
		return max
	}
	n := math.Ceil(ps.Range[2]/ps.Stepsize - 1e-9)
	switch {
	case n < 1:
		return 1
	case n > float64(max):
		return max
	}
	return int(n)
}

// Patch is one Bézier patch restricted to a parameter box, with its
// control points in sampling, culling and bounding space.
type Patch struct {
	mapdesc       *nurbs.Mapdesc
	cullval       nurbs.CullResult
	notInBbox     bool
	needsSampling bool
	pspec         [2]Patchspec

	spts, cpts, bpts []float64
}

// NewPatch selects the patch of q holding the box [pta, ptb] and clips it
// to that box.
func NewPatch(q *quilt.Quilt, pta, ptb [2]float64) *Patch {
	md := q.Mapdesc
	p := &Patch{
		mapdesc:       md,
		cullval:       nurbs.CullTrivialAccept,
		notInBbox:     md.IsBBoxSubdividing(),
		needsSampling: md.IsRangeSampling(),
	}
	if md.IsCulling() {
		p.cullval = nurbs.CullAccept
	}

	q.Select(pta[:], ptb[:])
	qs, qt := q.Qspec[0], q.Qspec[1]
	s, t := &p.pspec[0], &p.pspec[1]
	s.order, t.order = qs.Order, qt.Order
	s.stride, t.stride = t.order*stride, stride

	ps := q.Segment()
	n := s.order * t.order * stride
	xform := func(m *nurbs.Matrix) []float64 {
		dst := make([]float64, n)
		md.Xform2(m, ps, qs.Order, qs.Stride, qt.Order, qt.Stride, dst, s.stride, t.stride)
		return dst
	}
	if p.needsSampling {
		p.spts = xform(&md.SamplingMatrix)
	}
	if p.cullval == nurbs.CullAccept {
		p.cpts = xform(&md.CullingMatrix)
	}
	if p.notInBbox {
		p.bpts = xform(&md.BoundingMatrix)
	}

	s.Range = [3]float64{qs.Breakpoints[qs.Index], qs.Breakpoints[qs.Index+1], 0}
	s.Range[2] = s.Range[1] - s.Range[0]
	t.Range = [3]float64{qt.Breakpoints[qt.Index], qt.Breakpoints[qt.Index+1], 0}
	t.Range[2] = t.Range[1] - t.Range[0]

	for k := 0; k < 2; k++ {
		if p.pspec[k].Range[1] != ptb[k] {
			*p = *p.split(k, ptb[k])
		}
		if p.pspec[k].Range[0] != pta[k] {
			p.split(k, pta[k])
		}
	}
	p.checkBboxConstraint()
	return p
}

// split cuts p at value along param. p keeps the upper part and the
// lower part is returned.
func (p *Patch) split(param int, value float64) *Patch {
	lower := &Patch{
		mapdesc:       p.mapdesc,
		cullval:       p.cullval,
		notInBbox:     p.notInBbox,
		needsSampling: p.needsSampling,
		pspec:         p.pspec,
	}
	up := &p.pspec[param]
	d := (value - up.Range[0]) / up.Range[2]

	other := 1 - param
	so, ss := p.pspec[other].order, p.pspec[other].stride
	to, ts := up.order, up.stride
	sub := func(src []float64) []float64 {
		if src == nil {
			return nil
		}
		dst := make([]float64, len(src))
		p.mapdesc.Subdivide2(src, dst, d, so, ss, to, ts)
		return dst
	}
	lower.spts = sub(p.spts)
	lower.cpts = sub(p.cpts)
	lower.bpts = sub(p.bpts)

	lower.pspec[param].Range = [3]float64{up.Range[0], value, value - up.Range[0]}
	up.Range[0] = value
	up.Range[2] = up.Range[1] - value

	lower.checkBboxConstraint()
	p.checkBboxConstraint()
	return lower
}

func (p *Patch) checkBboxConstraint() {
	if p.notInBbox {
		s, t := p.pspec[0], p.pspec[1]
		if p.mapdesc.BBoxTooBig(p.bpts, s.stride, t.stride, s.order, t.order) != 1 {
			p.notInBbox = false
		}
	}
}

// CullCheck tests the culling points once; later calls return the cached
// verdict.
func (p *Patch) CullCheck() nurbs.CullResult {
	if p.cullval == nurbs.CullAccept {
		p.cullval = p.mapdesc.CullCheck(p.cpts, p.pspec[0].order*p.pspec[1].order, stride)
	}
	return p.cullval
}

// GetStepSize computes per-direction step sizes and minimum steps.
func (p *Patch) GetStepSize() {
	md := p.mapdesc
	s, t := &p.pspec[0], &p.pspec[1]
	s.Minstepsize, t.Minstepsize = 0, 0

	switch {
	case md.IsConstantSampling():
		s.setStepsize(md.MaxSRate())
		t.setStepsize(md.MaxTRate())
		return
	case md.IsDomainSampling():
		s.setStepsize(md.MaxSRate() * s.Range[2])
		t.setStepsize(md.MaxTRate() * t.Range[2])
		return
	case !p.needsSampling:
		s.singleStep()
		t.singleStep()
		s.Minstepsize, t.Minstepsize = s.Stepsize, t.Stepsize
		return
	}

	var tmp [nurbs.MaxOrder * nurbs.MaxOrder * nurbs.MaxCoords]float64
	trs := t.order * nurbs.MaxCoords
	if !md.Project2(p.spts, s.stride, t.stride, tmp[:], trs, nurbs.MaxCoords, s.order, t.order) {
		s.setStepsize(md.MaxSRate())
		t.setStepsize(md.MaxTRate())
	} else if md.IsParametricDistanceSampling() {
		p.parametricDistance(tmp[:], trs, md.PixelTolerance)
	} else {
		p.pathLength(tmp[:], trs, md.PixelTolerance)
	}

	if r := md.MaxSRate(); r > 0 {
		s.Minstepsize = s.Range[2] / r
	}
	if r := md.MaxTRate(); r > 0 {
		t.Minstepsize = t.Range[2] / r
	}
}

func (p *Patch) velocity(tmp []float64, trs, spartial, tpartial int) float64 {
	s, t := p.pspec[0], p.pspec[1]
	return p.mapdesc.CalcPartialVelocity2(nil, tmp, trs, nurbs.MaxCoords, s.order, t.order,
		spartial, tpartial, s.Range[2], t.Range[2], nurbs.SideNone)
}

// parametricDistance bounds the distance between the surface and its
// bilinear sample grid by tol.
func (p *Patch) parametricDistance(tmp []float64, trs int, tol float64) {
	s, t := &p.pspec[0], &p.pspec[1]
	ss := p.velocity(tmp, trs, 2, 0)
	st := p.velocity(tmp, trs, 1, 1)
	tt := p.velocity(tmp, trs, 0, 2)

	switch {
	case ss != 0 && tt != 0:
		ttq := math.Sqrt(ss)
		ssq := math.Sqrt(tt)
		s.limit(math.Sqrt(4 * tol * ttq / (ss*ttq + st*ssq)))
		t.limit(math.Sqrt(4 * tol * ssq / (tt*ssq + st*ttq)))
	case ss != 0:
		x := t.Range[2] * st
		s.limit((math.Sqrt(x*x+8*tol*ss) - x) / ss)
		t.singleStep()
	case tt != 0:
		x := s.Range[2] * st
		s.singleStep()
		t.limit((math.Sqrt(x*x+8*tol*tt) - x) / tt)
	default:
		if 4*tol > st*s.Range[2]*t.Range[2] {
			s.singleStep()
			t.singleStep()
			return
		}
		area := 4 * tol / st
		s.limit(math.Sqrt(area * s.Range[2] / t.Range[2]))
		t.limit(math.Sqrt(area * t.Range[2] / s.Range[2]))
	}
}

// pathLength bounds the distance between consecutive samples by tol.
func (p *Patch) pathLength(tmp []float64, trs int, tol float64) {
	s, t := &p.pspec[0], &p.pspec[1]
	ms := p.velocity(tmp, trs, 1, 0)
	mt := p.velocity(tmp, trs, 0, 1)

	switch {
	case ms != 0 && mt != 0:
		s.limit(tol / (2 * ms))
		t.limit(tol / (2 * mt))
	case ms != 0:
		s.limit(tol / ms)
		t.singleStep()
	case mt != 0:
		s.singleStep()
		t.limit(tol / mt)
	default:
		s.singleStep()
		t.singleStep()
	}
}

// Clamp applies the map's clamp factor to both directions.
func (p *Patch) Clamp() {
	if f := p.mapdesc.ClampFactor; f != nurbs.NoClamping {
		p.pspec[0].clamp(f)
		p.pspec[1].clamp(f)
	}
}

// NeedsNonSamplingSubdivision reports whether the bounding box is still
// larger than the map allows.
func (p *Patch) NeedsNonSamplingSubdivision() bool { return p.notInBbox }

// Patchlist is the set of patches, one per quilt, covering one box.
type Patchlist struct {
	patches []*Patch
	Pspec   [2]Patchspec
}

// NewPatchlist builds one Patch per quilt in the chain over [pta, ptb].
func NewPatchlist(q *quilt.Quilt, pta, ptb [2]float64) *Patchlist {
	l := &Patchlist{}
	for k := 0; k < 2; k++ {
		l.Pspec[k].Range = [3]float64{pta[k], ptb[k], ptb[k] - pta[k]}
	}
	for m := q; m != nil; m = m.Next {
		l.patches = append(l.patches, NewPatch(m, pta, ptb))
	}
	return l
}

// Split cuts the list at value along param. l keeps the upper part and
// the lower part is returned.
func (l *Patchlist) Split(param int, value float64) *Patchlist {
	lower := &Patchlist{Pspec: l.Pspec}
	for _, p := range l.patches {
		lower.patches = append(lower.patches, p.split(param, value))
	}
	up := &l.Pspec[param]
	lower.Pspec[param].Range = [3]float64{up.Range[0], value, value - up.Range[0]}
	up.Range[0] = value
	up.Range[2] = up.Range[1] - value
	return lower
}

// Len is the number of patches in the list.
func (l *Patchlist) Len() int { return len(l.patches) }

// CullCheck rejects the list when any patch is trivially rejected.
func (l *Patchlist) CullCheck() nurbs.CullResult {
	for _, p := range l.patches {
		if p.CullCheck() == nurbs.CullTrivialReject {
			return nurbs.CullTrivialReject
		}
	}
	return nurbs.CullAccept
}

// GetStepSize takes, per direction, the smallest step over the patches and
// records which directions need subdivision.
func (l *Patchlist) GetStepSize() {
	for k := range l.Pspec {
		ps := &l.Pspec[k]
		ps.Stepsize = ps.Range[2]
		ps.Minstepsize = 0
		ps.NeedsSubdivision = false
	}
	for _, p := range l.patches {
		p.GetStepSize()
		p.Clamp()
		for k := range l.Pspec {
			pp := &p.pspec[k]
			pp.NeedsSubdivision = pp.Stepsize < pp.Minstepsize
			ps := &l.Pspec[k]
			if pp.Stepsize < ps.Stepsize {
				ps.Stepsize = pp.Stepsize
			}
			if pp.Minstepsize > ps.Minstepsize {
				ps.Minstepsize = pp.Minstepsize
			}
			ps.NeedsSubdivision = ps.NeedsSubdivision || pp.NeedsSubdivision
		}
	}
}

// NeedsSamplingSubdivision reports whether either direction needs
// subdivision after the last GetStepSize.
func (l *Patchlist) NeedsSamplingSubdivision() bool {
	return l.Pspec[0].NeedsSubdivision || l.Pspec[1].NeedsSubdivision
}

// NeedsSubdivision reports whether direction param needs subdivision.
func (l *Patchlist) NeedsSubdivision(param int) bool {
	return l.Pspec[param].NeedsSubdivision
}

// NeedsNonSamplingSubdivision reports whether any patch's bounding box is
// still too big.
func (l *Patchlist) NeedsNonSamplingSubdivision() bool {
	for _, p := range l.patches {
		if p.NeedsNonSamplingSubdivision() {
			return true
		}
	}
	return false
}
