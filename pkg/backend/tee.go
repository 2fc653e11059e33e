package backend

import "github.com/chazu/nurbs/pkg/nurbs"

var _ Evaluator = Tee(nil)

// Tee forwards every call to each evaluator in order.
type Tee []Evaluator

func (t Tee) Bgnmap1f() {
	for _, e := range t {
		e.Bgnmap1f()
	}
}

func (t Tee) Endmap1f() {
	for _, e := range t {
		e.Endmap1f()
	}
}

func (t Tee) Map1f(typ nurbs.MapType, ulo, uhi float64, stride, order int, pts []float64) {
	for _, e := range t {
		e.Map1f(typ, ulo, uhi, stride, order, pts)
	}
}

func (t Tee) Enable(typ nurbs.MapType) {
	for _, e := range t {
		e.Enable(typ)
	}
}

func (t Tee) Mapgrid1f(nu int, u0, u1 float64) {
	for _, e := range t {
		e.Mapgrid1f(nu, u0, u1)
	}
}

func (t Tee) Mapmesh1f(style nurbs.MeshStyle, from, to int) {
	for _, e := range t {
		e.Mapmesh1f(style, from, to)
	}
}

func (t Tee) Bgnmap2f() {
	for _, e := range t {
		e.Bgnmap2f()
	}
}

func (t Tee) Endmap2f() {
	for _, e := range t {
		e.Endmap2f()
	}
}

func (t Tee) Polymode(style nurbs.MeshStyle) {
	for _, e := range t {
		e.Polymode(style)
	}
}

func (t Tee) Domain2f(ulo, uhi, vlo, vhi float64) {
	for _, e := range t {
		e.Domain2f(ulo, uhi, vlo, vhi)
	}
}

func (t Tee) Map2f(typ nurbs.MapType, ulo, uhi float64, ustride, uorder int,
	vlo, vhi float64, vstride, vorder int, pts []float64) {
	for _, e := range t {
		e.Map2f(typ, ulo, uhi, ustride, uorder, vlo, vhi, vstride, vorder, pts)
	}
}

func (t Tee) Mapgrid2f(nu int, u0, u1 float64, nv int, v0, v1 float64) {
	for _, e := range t {
		e.Mapgrid2f(nu, u0, u1, nv, v0, v1)
	}
}

func (t Tee) Mapmesh2f(style nurbs.MeshStyle, umin, umax, vmin, vmax int) {
	for _, e := range t {
		e.Mapmesh2f(style, umin, umax, vmin, vmax)
	}
}

func (t Tee) Bgntmesh() {
	for _, e := range t {
		e.Bgntmesh()
	}
}

func (t Tee) Endtmesh() {
	for _, e := range t {
		e.Endtmesh()
	}
}

func (t Tee) Bgnline() {
	for _, e := range t {
		e.Bgnline()
	}
}

func (t Tee) Endline() {
	for _, e := range t {
		e.Endline()
	}
}

func (t Tee) Evalcoord2f(u, v float64) {
	for _, e := range t {
		e.Evalcoord2f(u, v)
	}
}
