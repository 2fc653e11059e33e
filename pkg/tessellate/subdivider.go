package tessellate

import (
	"errors"
	"fmt"

	"honnef.co/go/curve"

	"github.com/chazu/nurbs/pkg/backend"
	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/quilt"
	"github.com/chazu/nurbs/pkg/sample"
	"github.com/chazu/nurbs/pkg/trim"
)

var (
	// ErrInvalidState is returned when a Subdivider method is called out
	// of the BeginQuilts, AddQuilt, EndQuilts, Draw order.
	ErrInvalidState = errors.New("tessellate: call out of order")
	// ErrDimension is returned when curves are drawn from surface quilts
	// or the other way round.
	ErrDimension = errors.New("tessellate: quilt dimension does not match draw call")
)

// MaxGridSteps bounds the grid steps per direction of one leaf.
const MaxGridSteps = 1024

type state int

const (
	stateIdle state = iota
	stateQuiltsOpen
	stateDrawing
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateQuiltsOpen:
		return "quilts open"
	case stateDrawing:
		return "drawing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Subdivider drives one tessellation pass: it walks the breakpoint grid of
// its quilts, splits the trim loops along the way and hands leaves to the
// backend. A Subdivider is not safe for concurrent use; use one per
// goroutine.
type Subdivider struct {
	backend *backend.Backend
	hints   nurbs.Renderhints
	state   state

	qlist   *quilt.Quilt
	arena   *trim.Arena
	initial *trim.Bin
	trimmed bool

	sbrk, tbrk quilt.Flist
	sIndex     int

	depth, maxDepth int
}

// NewSubdivider returns an idle subdivider writing to b.
func NewSubdivider(b *backend.Backend, hints nurbs.Renderhints) *Subdivider {
	a := trim.NewArena()
	hints.Init()
	return &Subdivider{
		backend: b,
		hints:   hints,
		arena:   a,
		initial: trim.NewBin(a),
	}
}

// Arena holds the trim arcs of the next surface. It is reset after every
// draw call.
func (s *Subdivider) Arena() *trim.Arena { return s.arena }

// MaxDepth is the deepest recursion reached by the last draw call.
func (s *Subdivider) MaxDepth() int { return s.maxDepth }

// SetRenderhints replaces the hints used by later draw calls.
func (s *Subdivider) SetRenderhints(h nurbs.Renderhints) {
	h.Init()
	s.hints = h
}

// BeginQuilts drops the current quilts and starts collecting new ones.
func (s *Subdivider) BeginQuilts() error {
	if s.state != stateIdle {
		return fmt.Errorf("%w: BeginQuilts while %s", ErrInvalidState, s.state)
	}
	s.qlist = nil
	s.state = stateQuiltsOpen
	return nil
}

// AddQuilt appends q to the quilts drawn together. Quilts of one draw
// call share their parameter domain.
func (s *Subdivider) AddQuilt(q *quilt.Quilt) error {
	if s.state != stateQuiltsOpen {
		return fmt.Errorf("%w: AddQuilt while %s", ErrInvalidState, s.state)
	}
	if q == nil {
		return nil
	}
	if s.qlist == nil {
		s.qlist = q
	} else {
		s.qlist.Append(q)
	}
	return nil
}

// EndQuilts closes the quilt list.
func (s *Subdivider) EndQuilts() error {
	if s.state != stateQuiltsOpen {
		return fmt.Errorf("%w: EndQuilts while %s", ErrInvalidState, s.state)
	}
	s.state = stateIdle
	return nil
}

// AddArc adds one trim arc to the next surface. The arcs added before a
// draw call must form closed loops.
func (s *Subdivider) AddArc(id trim.ArcID) error {
	if s.state == stateDrawing {
		return fmt.Errorf("%w: AddArc while %s", ErrInvalidState, s.state)
	}
	s.initial.AddArc(id)
	s.trimmed = true
	return nil
}

// AddLoop adds every arc of the loop through first.
func (s *Subdivider) AddLoop(first trim.ArcID) error {
	if s.state == stateDrawing {
		return fmt.Errorf("%w: AddLoop while %s", ErrInvalidState, s.state)
	}
	s.initial.AddLoop(first)
	s.trimmed = true
	return nil
}

func (s *Subdivider) begin(op string) error {
	if s.state != stateIdle {
		return fmt.Errorf("%w: %s while %s", ErrInvalidState, op, s.state)
	}
	s.state = stateDrawing
	s.hints.Init()
	s.depth, s.maxDepth = 0, 0
	return nil
}

func (s *Subdivider) end() {
	s.initial.Clear()
	s.arena.Reset()
	s.trimmed = false
	s.state = stateIdle
}

func (s *Subdivider) enter() {
	s.depth++
	s.maxDepth = max(s.maxDepth, s.depth)
}

func (s *Subdivider) leave() { s.depth-- }

// report logs a recoverable problem, as a warning when error checking is on.
func (s *Subdivider) report(msg string, args ...any) {
	if s.hints.ErrorChecking == nurbs.Msg {
		Logger().Warn(msg, args...)
		return
	}
	Logger().Debug(msg, args...)
}

// DrawCurves tessellates the quilts as curves. Without quilts it does
// nothing.
func (s *Subdivider) DrawCurves() error {
	if err := s.begin("DrawCurves"); err != nil {
		return err
	}
	defer s.end()
	if s.qlist == nil {
		return nil
	}
	if d := s.qlist.Dimension(); d != 1 {
		return fmt.Errorf("%w: DrawCurves on %d-dimensional quilt", ErrDimension, d)
	}

	var bpts quilt.Flist
	s.qlist.GetRange(&bpts)
	pts := bpts.Values()

	s.backend.Bgncurv()
	for i := 0; i+1 < len(pts); i++ {
		pta, ptb := pts[i], pts[i+1]
		s.qlist.DownloadAll([]float64{pta}, []float64{ptb}, s.backend)
		s.curveSplit(sample.NewCurvelist(s.qlist, pta, ptb), s.hints.MaxSubdivisions)
	}
	s.backend.Endcurv()
	return nil
}

func (s *Subdivider) curveSplit(l *sample.Curvelist, subdivisions int) {
	s.enter()
	defer s.leave()
	if l.CullCheck() == nurbs.CullTrivialReject {
		return
	}
	l.GetStepSize()
	if l.NeedsSamplingSubdivision() {
		if subdivisions > 0 {
			mid := (l.Range[0] + l.Range[1]) * 0.5
			lower := l.Split(mid)
			s.curveSplit(lower, subdivisions-1)
			s.curveSplit(l, subdivisions-1)
			return
		}
		Logger().Debug("tessellate: curve subdivision budget exhausted",
			"from", l.Range[0], "to", l.Range[1], "step", l.Stepsize)
	}
	nu := gridSteps(l.Range[2], l.Stepsize)
	s.backend.Curvgrid(l.Range[0], l.Range[1], nu)
	s.backend.Curvmesh(0, nu)
}

func gridSteps(rng, step float64) int {
	if step <= 0 {
		return MaxGridSteps
	}
	n := 1 + rng/step
	if n >= MaxGridSteps {
		return MaxGridSteps
	}
	return int(n)
}

// DrawSurfaces tessellates the quilts as surfaces, trimmed by the loops
// added since the last draw call or by the border of the domain. Without
// quilts it does nothing.
func (s *Subdivider) DrawSurfaces() error {
	if err := s.begin("DrawSurfaces"); err != nil {
		return err
	}
	defer s.end()
	if s.qlist == nil {
		return nil
	}
	if d := s.qlist.Dimension(); d != 2 {
		return fmt.Errorf("%w: DrawSurfaces on %d-dimensional quilt", ErrDimension, d)
	}
	if quilt.ChainCulled(s.qlist) {
		Logger().Debug("tessellate: surface culled")
		return nil
	}

	s.sbrk, s.tbrk = quilt.Flist{}, quilt.Flist{}
	from, to := s.qlist.GetRange(&s.sbrk, &s.tbrk)

	optimize := !s.trimmed && s.qlist.Mapdesc.IsDomainSampling() &&
		s.hints.DisplayMethod != nurbs.DisplayOutlinePatch
	switch {
	case s.trimmed:
		rate := sample.FindRates(s.qlist, &s.sbrk, &s.tbrk)
		s.arena.TessellateBin(s.initial, rate)
	case !optimize:
		s.makeBorderTrim(from, to)
	}

	s.backend.Bgnsurf(s.hints.WireTris, s.hints.WireQuads)
	s.backend.Patch(from[0], to[0], from[1], to[1])
	if optimize {
		s.drawGrid()
	} else {
		s.subdivideInS(s.initial)
	}
	s.backend.Endsurf()
	return nil
}

// makeBorderTrim adds the counter-clockwise loop around [from, to].
func (s *Subdivider) makeBorderTrim(from, to [2]float64) {
	a := s.arena
	s0, t0, s1, t1 := from[0], from[1], to[0], to[1]
	first := a.Loop(
		a.Edge(trim.ArcBottom, s0, t0, s1, t0),
		a.Edge(trim.ArcRight, s1, t0, s1, t1),
		a.Edge(trim.ArcTop, s1, t1, s0, t1),
		a.Edge(trim.ArcLeft, s0, t1, s0, t0),
	)
	s.initial.AddLoop(first)
}

// drawGrid emits every breakpoint cell as one grid, skipping subdivision.
func (s *Subdivider) drawGrid() {
	sp, tp := s.sbrk.Values(), s.tbrk.Values()
	for i := 1; i < len(sp); i++ {
		for j := 1; j < len(tp); j++ {
			pta := [2]float64{sp[i-1], tp[j-1]}
			ptb := [2]float64{sp[i], tp[j]}
			s.qlist.DownloadAll(pta[:], ptb[:], s.backend)
			l := sample.NewPatchlist(s.qlist, pta, ptb)
			l.GetStepSize()
			nu, nv := l.Pspec[0].Steps(MaxGridSteps), l.Pspec[1].Steps(MaxGridSteps)
			s.backend.Surfgrid(pta[0], ptb[0], nu, pta[1], ptb[1], nv)
			s.backend.Surfmesh(0, 0, nu, nv)
		}
	}
}

func (s *Subdivider) subdivideInS(source *trim.Bin) {
	if s.hints.DisplayMethod == nurbs.DisplayOutlineParam {
		s.outline(source)
		source.Clear()
		return
	}
	s.splitInS(source, s.sbrk.Start, s.sbrk.End)
}

// split partitions source along param = value. On failure the arcs are
// dropped and false is returned.
func (s *Subdivider) split(source, left, right *trim.Bin, param int, value float64) bool {
	if err := trim.Split(source, left, right, param, value); err != nil {
		s.report("tessellate: dropping trim region", "error", err)
		source.Clear()
		return false
	}
	return true
}

// splitInS bisects the breakpoint index range [start, end] of the s
// direction. Index i stands for the interval ending at breakpoint i, so
// start and end are the intervals outside the domain.
func (s *Subdivider) splitInS(source *trim.Bin, start, end int) {
	if !source.IsNonEmpty() {
		return
	}
	s.enter()
	defer s.leave()

	if start != end {
		i := start + (end-start)/2
		left, right := trim.NewBin(s.arena), trim.NewBin(s.arena)
		if !s.split(source, left, right, 0, s.sbrk.Pts[i]) {
			return
		}
		s.splitInS(left, start, i)
		s.splitInS(right, i+1, end)
		return
	}

	switch {
	case start == s.sbrk.Start || start == s.sbrk.End:
		source.Clear()
	case s.hints.DisplayMethod == nurbs.DisplayOutlineParamS:
		s.outline(source)
		source.Clear()
	default:
		s.sIndex = start
		s.splitInT(source, s.tbrk.Start, s.tbrk.End)
	}
}

func (s *Subdivider) splitInT(source *trim.Bin, start, end int) {
	if !source.IsNonEmpty() {
		return
	}
	s.enter()
	defer s.leave()

	if start != end {
		i := start + (end-start)/2
		left, right := trim.NewBin(s.arena), trim.NewBin(s.arena)
		if !s.split(source, left, right, 1, s.tbrk.Pts[i]) {
			return
		}
		s.splitInT(left, start, i)
		s.splitInT(right, i+1, end)
		return
	}

	switch {
	case start == s.tbrk.Start || start == s.tbrk.End:
		source.Clear()
	case s.hints.DisplayMethod == nurbs.DisplayOutlineParamST:
		s.outline(source)
		source.Clear()
	default:
		pta := [2]float64{s.sbrk.Pts[s.sIndex-1], s.tbrk.Pts[start-1]}
		ptb := [2]float64{s.sbrk.Pts[s.sIndex], s.tbrk.Pts[start]}
		s.qlist.DownloadAll(pta[:], ptb[:], s.backend)
		l := sample.NewPatchlist(s.qlist, pta, ptb)
		s.samplingSplit(source, l, s.hints.MaxSubdivisions, 0)
	}
}

// samplingSplit halves the cell, alternating directions, until the step
// sizes are within the map's rate or the budget runs out.
func (s *Subdivider) samplingSplit(source *trim.Bin, l *sample.Patchlist, subdivisions, param int) {
	if !source.IsNonEmpty() {
		return
	}
	s.enter()
	defer s.leave()

	if l.CullCheck() == nurbs.CullTrivialReject {
		source.Clear()
		return
	}
	l.GetStepSize()

	if s.hints.DisplayMethod == nurbs.DisplayOutlinePatch {
		s.outline(source)
		source.Clear()
		return
	}

	if l.NeedsSamplingSubdivision() {
		if subdivisions > 0 {
			switch {
			case !l.NeedsSubdivision(0):
				param = 1
			case !l.NeedsSubdivision(1):
				param = 0
			default:
				param = 1 - param
			}
			r := l.Pspec[param].Range
			mid := (r[0] + r[1]) * 0.5
			left, right := trim.NewBin(s.arena), trim.NewBin(s.arena)
			if !s.split(source, left, right, param, mid) {
				return
			}
			lower := l.Split(param, mid)
			s.samplingSplit(left, lower, subdivisions-1, param)
			s.samplingSplit(right, l, subdivisions-1, param)
			return
		}
		Logger().Debug("tessellate: sampling budget exhausted",
			"s", l.Pspec[0].Range[:2], "t", l.Pspec[1].Range[:2])
	}
	s.nonSamplingSplit(source, l, subdivisions, param)
}

// nonSamplingSplit halves the cell while a bounding box is too big for the
// map and the budget lasts, then emits it.
func (s *Subdivider) nonSamplingSplit(source *trim.Bin, l *sample.Patchlist, subdivisions, param int) {
	s.enter()
	defer s.leave()

	if l.NeedsNonSamplingSubdivision() && subdivisions > 0 {
		param = 1 - param
		r := l.Pspec[param].Range
		mid := (r[0] + r[1]) * 0.5
		left, right := trim.NewBin(s.arena), trim.NewBin(s.arena)
		if !s.split(source, left, right, param, mid) {
			return
		}
		lower := l.Split(param, mid)
		if left.IsNonEmpty() {
			if lower.CullCheck() == nurbs.CullTrivialReject {
				left.Clear()
			} else {
				s.nonSamplingSplit(left, lower, subdivisions-1, param)
			}
		}
		if right.IsNonEmpty() {
			if l.CullCheck() == nurbs.CullTrivialReject {
				right.Clear()
			} else {
				s.nonSamplingSplit(right, l, subdivisions-1, param)
			}
		}
		return
	}
	s.leaf(source, l)
}

// grid is the sampling grid of one leaf.
type grid struct {
	lo, hi [2]float64
	n      [2]int
}

// at is the parameter of grid line i in direction param.
func (g grid) at(param, i int) float64 {
	if i == g.n[param] {
		return g.hi[param]
	}
	return g.lo[param] + float64(i)*(g.hi[param]-g.lo[param])/float64(g.n[param])
}

// leaf emits one cell: the whole grid when the trim is the cell's border,
// otherwise the untrimmed blocks of the grid as meshes and the trimmed
// grid cells as triangles.
func (s *Subdivider) leaf(source *trim.Bin, l *sample.Patchlist) {
	ps, pt := l.Pspec[0], l.Pspec[1]
	s.backend.Patch(ps.Range[0], ps.Range[1], pt.Range[0], pt.Range[1])
	if s.hints.DisplayMethod == nurbs.DisplayOutlineSubdiv {
		s.outline(source)
		source.Clear()
		return
	}

	g := grid{
		lo: [2]float64{ps.Range[0], pt.Range[0]},
		hi: [2]float64{ps.Range[1], pt.Range[1]},
		n:  [2]int{ps.Steps(MaxGridSteps), pt.Steps(MaxGridSteps)},
	}
	s.backend.Surfgrid(g.lo[0], g.hi[0], g.n[0], g.lo[1], g.hi[1], g.n[1])
	s.tile(source, g, [2]int{0, 0}, g.n)
}

// tile emits the grid block [lo, hi) covered by source.
func (s *Subdivider) tile(source *trim.Bin, g grid, lo, hi [2]int) {
	if !source.IsNonEmpty() {
		return
	}
	loops := source.Loops()
	box := curve.Rect{X0: g.at(0, lo[0]), Y0: g.at(1, lo[1]), X1: g.at(0, hi[0]), Y1: g.at(1, hi[1])}
	if trim.IsBox(loops, box) {
		s.backend.Surfmesh(lo[0], lo[1], hi[0]-lo[0], hi[1]-lo[1])
		source.Clear()
		return
	}

	param := 0
	if hi[1]-lo[1] > hi[0]-lo[0] {
		param = 1
	}
	if hi[param]-lo[param] == 1 {
		for _, tri := range trim.Triangulate(loops) {
			s.backend.Triangle(tri[0].X, tri[0].Y, tri[1].X, tri[1].Y, tri[2].X, tri[2].Y)
		}
		source.Clear()
		return
	}

	mid := (lo[param] + hi[param]) / 2
	left, right := trim.NewBin(s.arena), trim.NewBin(s.arena)
	if !s.split(source, left, right, param, g.at(param, mid)) {
		return
	}
	lhi, rlo := hi, lo
	lhi[param], rlo[param] = mid, mid
	s.tile(left, g, lo, lhi)
	s.tile(right, g, rlo, hi)
}

// outline draws every loop of b as parameter-space polylines, one per arc.
func (s *Subdivider) outline(b *trim.Bin) {
	a := s.arena
	b.MarkAll()
	b.Each(func(id trim.ArcID) {
		for j := id; a.IsMarked(j); j = a.Arc(j).Prev {
			a.ClearMark(j)
			pts := a.Points(j)
			if a.IsBezier(j) {
				pts = []curve.Point{a.Tail(j), a.Head(j)}
			}
			s.backend.Bgnoutline()
			for _, p := range pts {
				s.backend.Linevert(p.X, p.Y)
			}
			s.backend.Endoutline()
		}
	})
}
