package backend

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/nurbs/pkg/nurbs"
)

// Compile-time interface checks.
var (
	_ CurveEvaluator   = (*Recorder)(nil)
	_ SurfaceEvaluator = (*Recorder)(nil)
)

// Call is one recorded evaluator call.
type Call struct {
	Name   string
	Type   nurbs.MapType
	Style  nurbs.MeshStyle
	Ints   []int
	Floats []float64
	// Points holds the control points of Map1f/Map2f packed without
	// stride gaps, Type.Coords() values per point.
	Points []float64
}

func (c Call) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Type != 0 {
		fmt.Fprintf(&b, " %s", c.Type)
	}
	switch c.Name {
	case "mapmesh1f", "mapmesh2f", "polymode":
		fmt.Fprintf(&b, " %s", c.Style)
	}
	for _, i := range c.Ints {
		fmt.Fprintf(&b, " %d", i)
	}
	for _, f := range c.Floats {
		fmt.Fprintf(&b, " %g", f)
	}
	if len(c.Points) > 0 {
		fmt.Fprintf(&b, " (%d values)", len(c.Points))
	}
	return b.String()
}

// Recorder is an evaluator that records every call it receives.
type Recorder struct {
	Calls []Call
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(c Call) { r.Calls = append(r.Calls, c) }

// Count returns how many calls named name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Find returns the calls named name in order.
func (r *Recorder) Find(name string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops every recorded call.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// WriteTo writes one call per line.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range r.Calls {
		n, err := fmt.Fprintln(w, c)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func pack(typ nurbs.MapType, pts []float64, stride, order int) []float64 {
	n := typ.Coords()
	out := make([]float64, 0, order*n)
	for i := 0; i < order; i++ {
		out = append(out, pts[i*stride:i*stride+n]...)
	}
	return out
}

func (r *Recorder) Bgnmap1f() { r.add(Call{Name: "bgnmap1f"}) }
func (r *Recorder) Endmap1f() { r.add(Call{Name: "endmap1f"}) }

func (r *Recorder) Map1f(typ nurbs.MapType, ulo, uhi float64, stride, order int, pts []float64) {
	r.add(Call{
		Name: "map1f", Type: typ,
		Ints:   []int{stride, order},
		Floats: []float64{ulo, uhi},
		Points: pack(typ, pts, stride, order),
	})
}

func (r *Recorder) Enable(typ nurbs.MapType) { r.add(Call{Name: "enable", Type: typ}) }

func (r *Recorder) Mapgrid1f(nu int, u0, u1 float64) {
	r.add(Call{Name: "mapgrid1f", Ints: []int{nu}, Floats: []float64{u0, u1}})
}

func (r *Recorder) Mapmesh1f(style nurbs.MeshStyle, from, to int) {
	r.add(Call{Name: "mapmesh1f", Style: style, Ints: []int{from, to}})
}

func (r *Recorder) Bgnmap2f() { r.add(Call{Name: "bgnmap2f"}) }
func (r *Recorder) Endmap2f() { r.add(Call{Name: "endmap2f"}) }

func (r *Recorder) Polymode(style nurbs.MeshStyle) {
	r.add(Call{Name: "polymode", Style: style})
}

func (r *Recorder) Domain2f(ulo, uhi, vlo, vhi float64) {
	r.add(Call{Name: "domain2f", Floats: []float64{ulo, uhi, vlo, vhi}})
}

func (r *Recorder) Map2f(typ nurbs.MapType, ulo, uhi float64, ustride, uorder int,
	vlo, vhi float64, vstride, vorder int, pts []float64) {
	n := typ.Coords()
	packed := make([]float64, 0, uorder*vorder*n)
	for i := 0; i < uorder; i++ {
		for j := 0; j < vorder; j++ {
			off := i*ustride + j*vstride
			packed = append(packed, pts[off:off+n]...)
		}
	}
	r.add(Call{
		Name: "map2f", Type: typ,
		Ints:   []int{ustride, uorder, vstride, vorder},
		Floats: []float64{ulo, uhi, vlo, vhi},
		Points: packed,
	})
}

func (r *Recorder) Mapgrid2f(nu int, u0, u1 float64, nv int, v0, v1 float64) {
	r.add(Call{Name: "mapgrid2f", Ints: []int{nu, nv}, Floats: []float64{u0, u1, v0, v1}})
}

func (r *Recorder) Mapmesh2f(style nurbs.MeshStyle, umin, umax, vmin, vmax int) {
	r.add(Call{Name: "mapmesh2f", Style: style, Ints: []int{umin, umax, vmin, vmax}})
}

func (r *Recorder) Bgntmesh() { r.add(Call{Name: "bgntmesh"}) }
func (r *Recorder) Endtmesh() { r.add(Call{Name: "endtmesh"}) }
func (r *Recorder) Bgnline()  { r.add(Call{Name: "bgnline"}) }
func (r *Recorder) Endline()  { r.add(Call{Name: "endline"}) }

func (r *Recorder) Evalcoord2f(u, v float64) {
	r.add(Call{Name: "evalcoord2f", Floats: []float64{u, v}})
}
