// Package sdfx implements the backend evaluators on top of the
// github.com/deadsy/sdfx vector and mesh types. Bézier maps handed down by
// the subdivider are evaluated by de Casteljau's algorithm and the sampled
// grids and triangles are collected into meshes and polylines.
package sdfx

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/nurbs/pkg/backend"
	"github.com/chazu/nurbs/pkg/nurbs"
)

// Compile-time interface check.
var _ backend.Evaluator = (*Evaluator)(nil)

// normalStep is the parameter step, relative to the map's domain, used to
// estimate partial derivatives when no normal map is enabled.
const normalStep = 1e-4

// bezier is one Bézier map with its control points packed, n coordinates
// per point, the t index running fastest.
type bezier struct {
	typ   nurbs.MapType
	lo    [2]float64
	hi    [2]float64
	order [2]int
	n     int
	pts   []float64
}

// casteljau reduces order points of n coordinates to the point at t,
// overwriting pts. The result is in pts[:n].
func casteljau(pts []float64, order, n int, t float64) {
	for k := order - 1; k > 0; k-- {
		for i := 0; i < k; i++ {
			for c := 0; c < n; c++ {
				pts[i*n+c] = (1-t)*pts[i*n+c] + t*pts[(i+1)*n+c]
			}
		}
	}
}

func (b *bezier) param(k int, u float64) float64 {
	if b.hi[k] == b.lo[k] {
		return 0
	}
	return (u - b.lo[k]) / (b.hi[k] - b.lo[k])
}

func (b *bezier) eval1(u float64, out []float64) {
	tmp := append([]float64(nil), b.pts...)
	casteljau(tmp, b.order[0], b.n, b.param(0, u))
	copy(out, tmp[:b.n])
}

func (b *bezier) eval2(u, v float64, out []float64) {
	uo, vo, n := b.order[0], b.order[1], b.n
	tv := b.param(1, v)
	col := make([]float64, uo*n)
	row := make([]float64, vo*n)
	for i := 0; i < uo; i++ {
		copy(row, b.pts[i*vo*n:(i+1)*vo*n])
		casteljau(row, vo, n, tv)
		copy(col[i*n:], row[:n])
	}
	casteljau(col, uo, n, b.param(0, u))
	copy(out, col[:n])
}

func toVec(p []float64, rational bool) v3.Vec {
	if rational {
		w := p[3]
		if w == 0 {
			w = 1
		}
		return v3.Vec{X: p[0] / w, Y: p[1] / w, Z: p[2] / w}
	}
	return v3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

type mode int

const (
	modeNone mode = iota
	modeTmesh
	modeLine
)

// Evaluator turns the subdivider's output into meshes and polylines. One
// mesh is produced per surface and one polyline per curve or outline.
type Evaluator struct {
	part  string
	xform sdf.M44

	maps    map[nurbs.MapType]*bezier
	enabled map[nurbs.MapType]bool
	style   nurbs.MeshStyle

	grid1 struct {
		n      int
		u0, u1 float64
	}
	grid2 struct {
		nu, nv         int
		u0, u1, v0, v1 float64
	}
	domain [4]float64

	mesh  *backend.Mesh
	curve *backend.Polyline
	line  *backend.Polyline
	mode  mode
	strip []uint32

	meshes    []*backend.Mesh
	polylines []*backend.Polyline

	bounds    sdf.Box3
	hasBounds bool
}

// New returns an evaluator with an identity placement.
func New() *Evaluator {
	return &Evaluator{
		xform:   sdf.Identity3d(),
		maps:    make(map[nurbs.MapType]*bezier),
		enabled: make(map[nurbs.MapType]bool),
	}
}

// SetPart names the meshes and polylines produced from now on.
func (e *Evaluator) SetPart(name string) { e.part = name }

// SetTransform places the geometry produced from now on.
func (e *Evaluator) SetTransform(m sdf.M44) { e.xform = m }

// Meshes returns the surfaces evaluated so far.
func (e *Evaluator) Meshes() []*backend.Mesh { return e.meshes }

// Polylines returns the curves and outlines evaluated so far.
func (e *Evaluator) Polylines() []*backend.Polyline { return e.polylines }

// Bounds returns the bounding box of every emitted point, and false when
// nothing was emitted.
func (e *Evaluator) Bounds() (sdf.Box3, bool) { return e.bounds, e.hasBounds }

// Triangles returns every mesh triangle in sdfx form.
func (e *Evaluator) Triangles() []*sdf.Triangle3 {
	var tris []*sdf.Triangle3
	for _, m := range e.meshes {
		vert := func(i uint32) v3.Vec {
			return v3.Vec{
				X: float64(m.Vertices[3*i]),
				Y: float64(m.Vertices[3*i+1]),
				Z: float64(m.Vertices[3*i+2]),
			}
		}
		for k := 0; k+2 < len(m.Indices); k += 3 {
			tris = append(tris, &sdf.Triangle3{vert(m.Indices[k]), vert(m.Indices[k+1]), vert(m.Indices[k+2])})
		}
	}
	return tris
}

// SaveSTL writes every mesh triangle to an STL file.
func (e *Evaluator) SaveSTL(path string) error {
	return render.SaveSTL(path, e.Triangles())
}

func (e *Evaluator) include(p v3.Vec) {
	b := sdf.Box3{Min: p, Max: p}
	if !e.hasBounds {
		e.bounds, e.hasBounds = b, true
		return
	}
	e.bounds = e.bounds.Extend(b)
}

func (e *Evaluator) place(p v3.Vec) v3.Vec {
	return e.xform.MulPosition(p)
}

func (e *Evaluator) placeNormal(n v3.Vec) v3.Vec {
	r := e.xform.MulPosition(n).Sub(e.xform.MulPosition(v3.Vec{}))
	if l := r.Length(); l > 0 {
		return r.MulScalar(1 / l)
	}
	return v3.Vec{Z: 1}
}

func (e *Evaluator) store(typ nurbs.MapType, b *bezier) {
	e.maps[typ] = b
}

// vertexMap returns the enabled position map of the given dimension.
func (e *Evaluator) vertexMap(dim int) *bezier {
	v3t, v4t := nurbs.Map1Vertex3, nurbs.Map1Vertex4
	if dim == 2 {
		v3t, v4t = nurbs.Map2Vertex3, nurbs.Map2Vertex4
	}
	if e.enabled[v4t] {
		if m := e.maps[v4t]; m != nil {
			return m
		}
	}
	if e.enabled[v3t] {
		return e.maps[v3t]
	}
	return nil
}

// --- curves ---

func (e *Evaluator) Bgnmap1f() {
	clear(e.maps)
	clear(e.enabled)
	e.curve = &backend.Polyline{PartName: e.part}
}

func (e *Evaluator) Endmap1f() {
	if e.curve != nil && e.curve.PointCount() > 0 {
		e.polylines = append(e.polylines, e.curve)
	}
	e.curve = nil
}

func (e *Evaluator) Map1f(typ nurbs.MapType, ulo, uhi float64, stride, order int, pts []float64) {
	n := typ.Coords()
	b := &bezier{typ: typ, lo: [2]float64{ulo}, hi: [2]float64{uhi}, order: [2]int{order, 1}, n: n}
	for i := 0; i < order; i++ {
		b.pts = append(b.pts, pts[i*stride:i*stride+n]...)
	}
	e.store(typ, b)
}

func (e *Evaluator) Enable(typ nurbs.MapType) { e.enabled[typ] = true }

func (e *Evaluator) Mapgrid1f(nu int, u0, u1 float64) {
	e.grid1.n, e.grid1.u0, e.grid1.u1 = nu, u0, u1
}

func (e *Evaluator) Mapmesh1f(style nurbs.MeshStyle, from, to int) {
	m := e.vertexMap(1)
	if m == nil || e.curve == nil || e.grid1.n <= 0 {
		return
	}
	g := e.grid1
	p := make([]float64, m.n)
	for i := from; i <= to; i++ {
		u := g.u0 + float64(i)*(g.u1-g.u0)/float64(g.n)
		if i == g.n {
			u = g.u1
		}
		m.eval1(u, p)
		q := e.place(toVec(p, m.typ.IsRational()))
		e.include(q)
		if style == nurbs.MeshPoint {
			e.polylines = append(e.polylines, &backend.Polyline{
				Points:   []float32{float32(q.X), float32(q.Y), float32(q.Z)},
				PartName: e.part,
			})
			continue
		}
		e.curve.Add(float32(q.X), float32(q.Y), float32(q.Z))
	}
}

// --- surfaces ---

func (e *Evaluator) Bgnmap2f() {
	clear(e.maps)
	clear(e.enabled)
	e.mesh = &backend.Mesh{PartName: e.part}
}

func (e *Evaluator) Endmap2f() {
	if m := e.mesh; m != nil && !m.IsEmpty() {
		if len(m.Colors) != 4*m.VertexCount() {
			m.Colors = nil
		}
		e.meshes = append(e.meshes, m)
	}
	e.mesh = nil
}

func (e *Evaluator) Polymode(style nurbs.MeshStyle) { e.style = style }

func (e *Evaluator) Domain2f(ulo, uhi, vlo, vhi float64) {
	e.domain = [4]float64{ulo, uhi, vlo, vhi}
}

func (e *Evaluator) Map2f(typ nurbs.MapType, ulo, uhi float64, ustride, uorder int,
	vlo, vhi float64, vstride, vorder int, pts []float64) {
	n := typ.Coords()
	b := &bezier{
		typ:   typ,
		lo:    [2]float64{ulo, vlo},
		hi:    [2]float64{uhi, vhi},
		order: [2]int{uorder, vorder},
		n:     n,
		pts:   make([]float64, 0, uorder*vorder*n),
	}
	for i := 0; i < uorder; i++ {
		for j := 0; j < vorder; j++ {
			off := i*ustride + j*vstride
			b.pts = append(b.pts, pts[off:off+n]...)
		}
	}
	e.store(typ, b)
}

func (e *Evaluator) Mapgrid2f(nu int, u0, u1 float64, nv int, v0, v1 float64) {
	g := &e.grid2
	g.nu, g.u0, g.u1 = nu, u0, u1
	g.nv, g.v0, g.v1 = nv, v0, v1
}

func (e *Evaluator) gridParam(i, j int) (u, v float64) {
	g := e.grid2
	u = g.u0 + float64(i)*(g.u1-g.u0)/float64(g.nu)
	if i == g.nu {
		u = g.u1
	}
	v = g.v0 + float64(j)*(g.v1-g.v0)/float64(g.nv)
	if j == g.nv {
		v = g.v1
	}
	return u, v
}

// position evaluates the surface point at (u, v), unplaced.
func (e *Evaluator) position(m *bezier, u, v float64) v3.Vec {
	p := make([]float64, m.n)
	m.eval2(u, v, p)
	return toVec(p, m.typ.IsRational())
}

func clampTo(x, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return min(max(x, lo), hi)
}

// normal is the unit surface normal at (u, v), from the normal map when
// one is enabled and from the partial derivatives otherwise.
func (e *Evaluator) normal(m *bezier, u, v float64) v3.Vec {
	if nm := e.maps[nurbs.Map2Normal]; nm != nil && e.enabled[nurbs.Map2Normal] {
		p := make([]float64, nm.n)
		nm.eval2(u, v, p)
		n := v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		if l := n.Length(); l > 0 {
			return n.MulScalar(1 / l)
		}
	}
	du := (m.hi[0] - m.lo[0]) * normalStep
	dv := (m.hi[1] - m.lo[1]) * normalStep
	su := e.position(m, clampTo(u+du, m.lo[0], m.hi[0]), v).Sub(e.position(m, clampTo(u-du, m.lo[0], m.hi[0]), v))
	sv := e.position(m, u, clampTo(v+dv, m.lo[1], m.hi[1])).Sub(e.position(m, u, clampTo(v-dv, m.lo[1], m.hi[1])))
	n := su.Cross(sv)
	if l := n.Length(); l > 0 {
		return n.MulScalar(1 / l)
	}
	return v3.Vec{Z: 1}
}

// vertex evaluates (u, v) and appends it to the current mesh.
func (e *Evaluator) vertex(m *bezier, u, v float64) uint32 {
	p := e.place(e.position(m, u, v))
	n := e.placeNormal(e.normal(m, u, v))
	e.include(p)
	idx := e.mesh.AddVertex(float32(p.X), float32(p.Y), float32(p.Z), float32(n.X), float32(n.Y), float32(n.Z))
	if cm := e.maps[nurbs.Map2Color4]; cm != nil && e.enabled[nurbs.Map2Color4] {
		c := make([]float64, cm.n)
		cm.eval2(u, v, c)
		e.mesh.Colors = append(e.mesh.Colors, float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3]))
	}
	return idx
}

func (e *Evaluator) point(m *bezier, u, v float64) v3.Vec {
	p := e.place(e.position(m, u, v))
	e.include(p)
	return p
}

func (e *Evaluator) Mapmesh2f(style nurbs.MeshStyle, umin, umax, vmin, vmax int) {
	m := e.vertexMap(2)
	if m == nil || e.mesh == nil || e.grid2.nu <= 0 || e.grid2.nv <= 0 {
		return
	}
	switch style {
	case nurbs.MeshFill:
		w := umax - umin + 1
		idx := make([]uint32, 0, w*(vmax-vmin+1))
		for j := vmin; j <= vmax; j++ {
			for i := umin; i <= umax; i++ {
				u, v := e.gridParam(i, j)
				idx = append(idx, e.vertex(m, u, v))
			}
		}
		at := func(i, j int) uint32 { return idx[(j-vmin)*w+(i-umin)] }
		for j := vmin; j < vmax; j++ {
			for i := umin; i < umax; i++ {
				e.mesh.AddTriangle(at(i, j), at(i+1, j), at(i+1, j+1))
				e.mesh.AddTriangle(at(i, j), at(i+1, j+1), at(i, j+1))
			}
		}
	case nurbs.MeshLine:
		for j := vmin; j <= vmax; j++ {
			pl := &backend.Polyline{PartName: e.part}
			for i := umin; i <= umax; i++ {
				u, v := e.gridParam(i, j)
				p := e.point(m, u, v)
				pl.Add(float32(p.X), float32(p.Y), float32(p.Z))
			}
			e.polylines = append(e.polylines, pl)
		}
		for i := umin; i <= umax; i++ {
			pl := &backend.Polyline{PartName: e.part}
			for j := vmin; j <= vmax; j++ {
				u, v := e.gridParam(i, j)
				p := e.point(m, u, v)
				pl.Add(float32(p.X), float32(p.Y), float32(p.Z))
			}
			e.polylines = append(e.polylines, pl)
		}
	case nurbs.MeshPoint:
		for j := vmin; j <= vmax; j++ {
			for i := umin; i <= umax; i++ {
				u, v := e.gridParam(i, j)
				p := e.point(m, u, v)
				e.polylines = append(e.polylines, &backend.Polyline{
					Points:   []float32{float32(p.X), float32(p.Y), float32(p.Z)},
					PartName: e.part,
				})
			}
		}
	}
}

func (e *Evaluator) Bgntmesh() {
	e.mode = modeTmesh
	e.strip = e.strip[:0]
	if e.style == nurbs.MeshLine {
		e.line = &backend.Polyline{PartName: e.part}
	}
}

func (e *Evaluator) Endtmesh() {
	if e.line != nil {
		if len(e.line.Points) >= 3 {
			e.line.Add(e.line.Points[0], e.line.Points[1], e.line.Points[2])
		}
		e.polylines = append(e.polylines, e.line)
		e.line = nil
	}
	e.mode = modeNone
}

func (e *Evaluator) Bgnline() {
	e.mode = modeLine
	e.line = &backend.Polyline{PartName: e.part}
}

func (e *Evaluator) Endline() {
	if e.line != nil && e.line.PointCount() > 0 {
		e.polylines = append(e.polylines, e.line)
	}
	e.line = nil
	e.mode = modeNone
}

// Evalcoord2f adds a strip vertex or an outline point, depending on the
// open primitive.
func (e *Evaluator) Evalcoord2f(u, v float64) {
	m := e.vertexMap(2)
	if m == nil {
		return
	}
	if e.mode == modeLine || (e.mode == modeTmesh && e.line != nil) {
		p := e.point(m, u, v)
		e.line.Add(float32(p.X), float32(p.Y), float32(p.Z))
		return
	}
	if e.mode != modeTmesh || e.mesh == nil {
		return
	}
	e.strip = append(e.strip, e.vertex(m, u, v))
	if k := len(e.strip); k >= 3 {
		a, b, c := e.strip[k-3], e.strip[k-2], e.strip[k-1]
		if k%2 == 0 {
			a, b = b, a
		}
		e.mesh.AddTriangle(a, b, c)
	}
}
