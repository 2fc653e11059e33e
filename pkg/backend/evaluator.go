// Package backend defines the evaluator contracts the subdivider talks to
// and the adapter that translates subdivider output into evaluator calls.
// Evaluators (sdfx, the call recorder) turn Bézier pieces and sampling
// grids into meshes or traces behind these interfaces, so the tessellator
// never depends on how output is drawn.
package backend

import "github.com/chazu/nurbs/pkg/nurbs"

// CurveEvaluator receives Bézier curve segments and 1D sampling requests.
type CurveEvaluator interface {
	// Bgnmap1f and Endmap1f bracket one curve.
	Bgnmap1f()
	Endmap1f()

	// Map1f registers order control points, stride float64s apart, of a
	// Bézier segment defined over [ulo, uhi].
	Map1f(typ nurbs.MapType, ulo, uhi float64, stride, order int, pts []float64)
	Enable(typ nurbs.MapType)

	// Mapgrid1f defines nu equal steps from u0 to u1; Mapmesh1f evaluates
	// grid points from through to.
	Mapgrid1f(nu int, u0, u1 float64)
	Mapmesh1f(style nurbs.MeshStyle, from, to int)
}

// SurfaceEvaluator receives Bézier patches, 2D sampling requests and the
// triangles and outlines of trimmed regions.
type SurfaceEvaluator interface {
	Bgnmap2f()
	Endmap2f()
	Polymode(style nurbs.MeshStyle)

	// Domain2f announces the parameter box of the patch about to be drawn.
	Domain2f(ulo, uhi, vlo, vhi float64)

	Map2f(typ nurbs.MapType, ulo, uhi float64, ustride, uorder int,
		vlo, vhi float64, vstride, vorder int, pts []float64)
	Enable(typ nurbs.MapType)

	Mapgrid2f(nu int, u0, u1 float64, nv int, v0, v1 float64)
	Mapmesh2f(style nurbs.MeshStyle, umin, umax, vmin, vmax int)

	// Bgntmesh starts a triangle strip; every Evalcoord2f after the
	// second closes a triangle with the two before it.
	Bgntmesh()
	Endtmesh()

	// Bgnline starts a polyline of Evalcoord2f points.
	Bgnline()
	Endline()

	Evalcoord2f(u, v float64)
}

// Evaluator handles both curves and surfaces.
type Evaluator interface {
	CurveEvaluator
	SurfaceEvaluator
}
