package backend

import "github.com/chazu/nurbs/pkg/nurbs"

// Backend adapts the subdivider's output vocabulary to the evaluators.
// Either evaluator may be nil when only curves or only surfaces are drawn.
type Backend struct {
	curves   CurveEvaluator
	surfaces SurfaceEvaluator

	wireTris  bool
	wireQuads bool
}

// New returns a backend writing to the given evaluators.
func New(c CurveEvaluator, s SurfaceEvaluator) *Backend {
	return &Backend{curves: c, surfaces: s}
}

// Bgncurv starts a curve.
func (b *Backend) Bgncurv() {
	b.curves.Bgnmap1f()
}

// Curvpts hands one Bézier segment to the curve evaluator.
func (b *Backend) Curvpts(typ nurbs.MapType, pts []float64, stride, order int, ulo, uhi float64) {
	b.curves.Map1f(typ, ulo, uhi, stride, order, pts)
	b.curves.Enable(typ)
}

// Curvgrid defines nu steps over [u0, u1].
func (b *Backend) Curvgrid(u0, u1 float64, nu int) {
	b.curves.Mapgrid1f(nu, u0, u1)
}

// Curvmesh evaluates n steps of the grid starting at from.
func (b *Backend) Curvmesh(from, n int) {
	b.curves.Mapmesh1f(nurbs.MeshFill, from, from+n)
}

// Endcurv finishes a curve.
func (b *Backend) Endcurv() {
	b.curves.Endmap1f()
}

// Bgnsurf starts a surface. Wireframe triangles draw the patch grid as
// lines.
func (b *Backend) Bgnsurf(wireTris, wireQuads bool) {
	b.wireTris, b.wireQuads = wireTris, wireQuads
	b.surfaces.Bgnmap2f()
	if wireTris {
		b.surfaces.Polymode(nurbs.MeshLine)
	} else {
		b.surfaces.Polymode(nurbs.MeshFill)
	}
}

// Patch announces the parameter box of the next leaf.
func (b *Backend) Patch(ulo, uhi, vlo, vhi float64) {
	b.surfaces.Domain2f(ulo, uhi, vlo, vhi)
}

// Surfpts hands one Bézier patch to the surface evaluator.
func (b *Backend) Surfpts(typ nurbs.MapType, pts []float64, ustride, vstride, uorder, vorder int,
	ulo, uhi, vlo, vhi float64) {
	b.surfaces.Map2f(typ, ulo, uhi, ustride, uorder, vlo, vhi, vstride, vorder, pts)
	b.surfaces.Enable(typ)
}

// Surfgrid defines an nu x nv grid over [u0, u1] x [v0, v1].
func (b *Backend) Surfgrid(u0, u1 float64, nu int, v0, v1 float64, nv int) {
	b.surfaces.Mapgrid2f(nu, u0, u1, nv, v0, v1)
}

// Surfmesh evaluates n x m cells of the grid starting at (u, v).
func (b *Backend) Surfmesh(u, v, n, m int) {
	style := nurbs.MeshFill
	if b.wireQuads || b.wireTris {
		style = nurbs.MeshLine
	}
	b.surfaces.Mapmesh2f(style, u, u+n, v, v+m)
}

// Endsurf finishes a surface.
func (b *Backend) Endsurf() {
	b.surfaces.Endmap2f()
}

// Bgntmesh starts a triangle strip inside a trimmed region.
func (b *Backend) Bgntmesh() { b.surfaces.Bgntmesh() }

// Tmeshvert adds a parameter-space vertex to the strip.
func (b *Backend) Tmeshvert(u, v float64) { b.surfaces.Evalcoord2f(u, v) }

// Endtmesh finishes the strip.
func (b *Backend) Endtmesh() { b.surfaces.Endtmesh() }

// Bgnoutline starts a trim outline.
func (b *Backend) Bgnoutline() { b.surfaces.Bgnline() }

// Linevert adds a parameter-space vertex to the outline.
func (b *Backend) Linevert(u, v float64) { b.surfaces.Evalcoord2f(u, v) }

// Endoutline finishes the outline.
func (b *Backend) Endoutline() { b.surfaces.Endline() }

// Triangle emits one parameter-space triangle as a three vertex strip.
func (b *Backend) Triangle(u0, v0, u1, v1, u2, v2 float64) {
	b.Bgntmesh()
	b.Tmeshvert(u0, v0)
	b.Tmeshvert(u1, v1)
	b.Tmeshvert(u2, v2)
	b.Endtmesh()
}
